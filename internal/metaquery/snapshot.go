package metaquery

import (
	"strconv"

	"metaQuery/pkg/csvdb"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SaveSnapshot writes the kept and removed halves of a deduplication into
// dataDir as csvdb tables, replacing any earlier snapshot.
func SaveSnapshot(dataDir string, d DedupeResult, useGzip bool) error {
	db, err := csvdb.NewCsvDB(dataDir)
	if err != nil {
		return err
	}
	for name, t := range map[string]*Table{
		cKeptTableName:    d.Kept,
		cRemovedTableName: d.Removed,
	} {
		if err := db.DropTable(name); err != nil {
			return err
		}
		if err := saveTable(db, name, t, useGzip); err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{
		"dataDir": dataDir,
		"kept":    d.Kept.Len(),
		"removed": d.Removed.Len(),
	}).Info("Snapshot saved")
	return nil
}

func saveTable(db *csvdb.CsvDB, name string, t *Table, useGzip bool) error {
	columns := append([]string{cAttrIndexColumn}, t.ColumnNames()...)
	tb, err := db.CreateTable(name, columns, useGzip)
	if err != nil {
		return err
	}
	tb.SetAttr(cAttrProvenance, t.Provenance)
	for j, c := range t.Columns {
		tb.SetAttr(cAttrKindPrefix+strconv.Itoa(j), c.Kind.String())
	}
	for i, r := range t.Rows {
		args := make([]interface{}, len(columns))
		args[0] = r.Index
		for j, c := range r.Cells {
			args[j+1] = c.Text
		}
		if err := tb.InsertRow(nil, args...); err != nil {
			return err
		}
		if (i+1)%cSnapshotFlushRows == 0 {
			if err := tb.Flush(); err != nil {
				return err
			}
		}
	}
	return tb.Flush()
}

// SnapshotCounts counts the rows stored in every table of dataDir.
func SnapshotCounts(dataDir string) (map[string]int, error) {
	db, err := csvdb.NewCsvDB(dataDir)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, name := range db.TableNames() {
		tb, err := db.GetTable(name)
		if err != nil {
			return nil, err
		}
		cnt := tb.Count(nil)
		if cnt < 0 {
			return nil, errors.Errorf("cannot read table %s in %s", name, dataDir)
		}
		counts[name] = cnt
	}
	return counts, nil
}

// LoadSnapshot reads the kept table back from dataDir.
func LoadSnapshot(dataDir string) (*Table, error) {
	return loadSnapshotTable(dataDir, cKeptTableName)
}

// LoadRemovedSnapshot reads the removed rows back from dataDir.
func LoadRemovedSnapshot(dataDir string) (*Table, error) {
	return loadSnapshotTable(dataDir, cRemovedTableName)
}

func loadSnapshotTable(dataDir, name string) (*Table, error) {
	db, err := csvdb.NewCsvDB(dataDir)
	if err != nil {
		return nil, err
	}
	if !db.TableExists(name) {
		return nil, errors.Errorf("no snapshot table %s in %s", name, dataDir)
	}
	tb, err := db.GetTable(name)
	if err != nil {
		return nil, err
	}
	columns := tb.Columns()
	if len(columns) == 0 || columns[0] != cAttrIndexColumn {
		return nil, errors.Errorf("table %s in %s is not a snapshot", name, dataDir)
	}
	records, err := tb.ReadRows(nil)
	if err != nil {
		return nil, err
	}

	t := &Table{Provenance: tb.Attr(cAttrProvenance)}
	t.Columns = make([]Column, len(columns)-1)
	for j, colName := range columns[1:] {
		t.Columns[j] = Column{
			Name: colName,
			Kind: ParseColumnKind(tb.Attr(cAttrKindPrefix + strconv.Itoa(j))),
		}
	}
	t.Rows = make([]Row, len(records))
	for i, rec := range records {
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, errors.Wrapf(err, "bad row index in %s", name)
		}
		cells := make([]Cell, len(t.Columns))
		for j, v := range rec[1:] {
			if t.Columns[j].Kind == ColumnNumeric {
				cells[j] = NumberCell(v)
			} else {
				cells[j] = TextCell(v)
			}
		}
		t.Rows[i] = Row{Index: idx, Cells: cells}
	}
	return t, nil
}
