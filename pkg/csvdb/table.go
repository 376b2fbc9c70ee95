package csvdb

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type Table struct {
	*TableDef
	colMap  map[string]int
	pending [][]string
}

func newTable(td *TableDef) *Table {
	t := new(Table)
	t.TableDef = td
	colMap := make(map[string]int)
	for i, col := range td.columns {
		colMap[col] = i
	}
	t.colMap = colMap
	t.pending = make([][]string, 0)
	return t
}

func (t *Table) Drop() error {
	if err := removeIfExists(t.path); err != nil {
		return err
	}
	return removeIfExists(t.iniFile)
}

func (t *Table) GetColIdx(colName string) int {
	i, ok := t.colMap[colName]
	if ok {
		return i
	}
	return -1
}

// InsertRow buffers a row until the next Flush. With nil columns args must
// cover every table column in order.
func (t *Table) InsertRow(columns []string, args ...interface{}) error {
	if columns == nil && len(args) != len(t.columns) {
		return errors.New("len of args do not match to table columns")
	}
	if columns != nil && len(columns) != len(args) {
		return errors.New("len of columns and args do not match")
	}

	row := make([]string, len(t.columns))
	if columns == nil {
		for i, v := range args {
			row[i] = asString(v)
		}
	} else {
		for i, col := range columns {
			j, ok := t.colMap[col]
			if !ok {
				return errors.New(fmt.Sprintf("column %s does not exist", col))
			}
			row[j] = asString(args[i])
		}
	}
	t.pending = append(t.pending, row)
	return nil
}

func (t *Table) Flush() error {
	return t.flush(CWriteModeAppend)
}

func (t *Table) FlushOverwrite() error {
	return t.flush(CWriteModeWrite)
}

func (t *Table) flush(wmode string) error {
	writer, err := newWriter(t.path, wmode)
	if err != nil {
		return err
	}
	for _, row := range t.pending {
		if err := writer.write(row); err != nil {
			writer.close()
			t.pending = t.pending[:0]
			return errors.WithStack(err)
		}
	}
	if err := writer.flush(); err != nil {
		writer.close()
		return errors.WithStack(err)
	}
	if err := writer.close(); err != nil {
		return errors.WithStack(err)
	}

	if wmode == CWriteModeWrite {
		t.rowCount = len(t.pending)
	} else {
		t.rowCount += len(t.pending)
	}
	t.pending = t.pending[:0]
	return t.save()
}

// SelectRows iterates the flushed rows matching conditionCheckFunc.
// A nil conditionCheckFunc matches every row.
func (t *Table) SelectRows(conditionCheckFunc func([]string) bool) (*Rows, error) {
	reader, err := newReader(t.path)
	if err != nil {
		return nil, err
	}
	return newRows(conditionCheckFunc, t.columns, reader), nil
}

func (t *Table) ReadRows(conditionCheckFunc func([]string) bool) ([][]string, error) {
	r, err := t.SelectRows(conditionCheckFunc)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	found := [][]string{}
	for r.Next() {
		found = append(found, r.Values())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func (t *Table) Count(conditionCheckFunc func([]string) bool) int {
	r, err := t.SelectRows(conditionCheckFunc)
	if err != nil {
		return -1
	}
	defer r.Close()
	cnt := 0
	for r.Next() {
		cnt++
	}
	if r.Err() != nil {
		return -1
	}
	return cnt
}

type Rows struct {
	reader             *Reader
	tableCols          []string
	conditionCheckFunc func([]string) bool
	err                error
}

func newRows(conditionCheckFunc func([]string) bool,
	tableCols []string, reader *Reader) *Rows {
	r := new(Rows)
	r.reader = reader
	r.tableCols = tableCols
	r.conditionCheckFunc = conditionCheckFunc
	return r
}

func (r *Rows) Next() bool {
	for r.reader.next() {
		if len(r.reader.values) != len(r.tableCols) {
			r.err = errors.Errorf("row has %d fields while expected %d",
				len(r.reader.values), len(r.tableCols))
			return false
		}
		if r.conditionCheckFunc == nil || r.conditionCheckFunc(r.reader.values) {
			return true
		}
	}
	return false
}

// Values returns a copy of the current row.
func (r *Rows) Values() []string {
	return append([]string(nil), r.reader.values...)
}

func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.reader.err != nil && r.reader.err != io.EOF {
		return r.reader.err
	}
	return nil
}

func (r *Rows) Close() {
	r.reader.close()
}
