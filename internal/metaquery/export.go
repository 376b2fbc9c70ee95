package metaquery

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Selection marks chosen rows by Row.Index. It lives for one request.
type Selection map[int]bool

func NewSelection(indexes []int) Selection {
	s := make(Selection, len(indexes))
	for _, i := range indexes {
		s[i] = true
	}
	return s
}

// SelectionColumns are the columns shown next to each selection checkbox:
// everything but the parent column, definition columns and provenance.
func SelectionColumns(t *Table) []int {
	parent := t.ParentColumn()
	cols := make([]int, 0, len(t.Columns))
	for _, j := range t.DataColumns() {
		if j == parent {
			continue
		}
		if strings.Contains(strings.ToLower(t.Columns[j].Name), cDefinitionMarker) {
			continue
		}
		cols = append(cols, j)
	}
	return cols
}

// TargetColumn is the exported column, -1 when there is none.
func TargetColumn(t *Table) int {
	cols := SelectionColumns(t)
	if len(cols) == 0 {
		return -1
	}
	return cols[0]
}

// AssembleExport collects the target value of every selected row in
// display order, dropping empty values. With nothing selected it falls
// back to every displayed row.
func AssembleExport(groups []Group, sel Selection, target int) []Cell {
	values := make([]Cell, 0)
	if target < 0 {
		return values
	}
	rows := FlattenGroups(groups)
	chosen := make([]Row, 0, len(rows))
	for _, r := range rows {
		if sel[r.Index] {
			chosen = append(chosen, r)
		}
	}
	if len(chosen) == 0 {
		chosen = rows
	}
	for _, r := range chosen {
		c := r.Cells[target]
		if c.IsEmpty() {
			continue
		}
		values = append(values, c)
	}
	return values
}

func CellTexts(cells []Cell) []string {
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.String()
	}
	return texts
}

// WriteExport writes values down column A of a single sheet, no header.
func WriteExport(w io.Writer, values []Cell) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CExportSheetName); err != nil {
		return errors.WithStack(err)
	}
	for i, c := range values {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.WithStack(err)
		}
		var v interface{} = c.Text
		if c.Kind == CellNumber {
			if fv, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64); err == nil {
				v = fv
			}
		}
		if err := f.SetCellValue(CExportSheetName, axis, v); err != nil {
			return errors.WithStack(err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write export workbook")
	}
	return nil
}
