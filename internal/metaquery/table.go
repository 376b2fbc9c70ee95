package metaquery

import (
	"strings"

	"metaQuery/pkg/utils"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell keeps the source text of a value. Numbers are not reformatted.
type Cell struct {
	Kind CellKind
	Text string
}

func TextCell(s string) Cell {
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(s string) Cell {
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellNumber, Text: s}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

func (c Cell) String() string {
	return c.Text
}

type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnNumeric
)

func (k ColumnKind) String() string {
	if k == ColumnNumeric {
		return "numeric"
	}
	return "text"
}

func ParseColumnKind(s string) ColumnKind {
	if s == "numeric" {
		return ColumnNumeric
	}
	return ColumnText
}

type Column struct {
	Name string
	Kind ColumnKind
}

// Row is one record. Index is its position in the ingested table and is
// kept through every transformation, so it identifies the row for selection.
type Row struct {
	Index int
	Cells []Cell
}

func (r Row) clone() Row {
	return Row{Index: r.Index, Cells: append([]Cell(nil), r.Cells...)}
}

type Table struct {
	Columns    []Column
	Rows       []Row
	Provenance string
}

// NewTable builds a table from a header and string records. Column kinds
// are inferred and every row gets its position as Index.
func NewTable(header []string, records [][]string, provenance string) *Table {
	t := &Table{Provenance: provenance}
	t.Columns = make([]Column, len(header))
	for i, h := range header {
		t.Columns[i] = Column{Name: h, Kind: ColumnText}
	}
	t.Rows = make([]Row, len(records))
	for i, rec := range records {
		cells := make([]Cell, len(header))
		for j := range header {
			if j < len(rec) {
				cells[j] = TextCell(rec[j])
			}
		}
		t.Rows[i] = Row{Index: i, Cells: cells}
	}
	t.InferKinds()
	return t
}

// InferKinds marks a column numeric when every non-empty cell parses as a
// number, the rule spreadsheet readers use.
func (t *Table) InferKinds() {
	for j := range t.Columns {
		numeric := false
		for _, r := range t.Rows {
			c := r.Cells[j]
			if c.IsEmpty() {
				continue
			}
			if !utils.IsNumeric(strings.TrimSpace(c.Text)) {
				numeric = false
				break
			}
			numeric = true
		}
		if t.isProvenance(j) {
			numeric = false
		}
		t.SetColumnKind(j, boolKind(numeric))
	}
}

func boolKind(numeric bool) ColumnKind {
	if numeric {
		return ColumnNumeric
	}
	return ColumnText
}

// SetColumnKind changes a column kind and retypes its cells.
func (t *Table) SetColumnKind(j int, kind ColumnKind) {
	t.Columns[j].Kind = kind
	for i := range t.Rows {
		c := t.Rows[i].Cells[j]
		if c.IsEmpty() {
			continue
		}
		if kind == ColumnNumeric {
			t.Rows[i].Cells[j] = NumberCell(c.Text)
		} else {
			t.Rows[i].Cells[j] = TextCell(c.Text)
		}
	}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) ColIdx(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) isProvenance(j int) bool {
	return t.Provenance != "" && t.Columns[j].Name == t.Provenance
}

// DataColumns are the column indexes other than the provenance column.
func (t *Table) DataColumns() []int {
	idxs := make([]int, 0, len(t.Columns))
	for j := range t.Columns {
		if !t.isProvenance(j) {
			idxs = append(idxs, j)
		}
	}
	return idxs
}

// ParentColumn is the grouping column: the first data column, -1 if none.
func (t *Table) ParentColumn() int {
	cols := t.DataColumns()
	if len(cols) == 0 {
		return -1
	}
	return cols[0]
}

// KeyColumn is the deduplication column: the second data column, -1 if
// the table has fewer than two. It is deliberately not the parent column.
func (t *Table) KeyColumn() int {
	cols := t.DataColumns()
	if len(cols) < 2 {
		return -1
	}
	return cols[1]
}

func (t *Table) Clone() *Table {
	c := &Table{
		Columns:    append([]Column(nil), t.Columns...),
		Provenance: t.Provenance,
		Rows:       make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = r.clone()
	}
	return c
}

// subset copies the table layout with the given rows.
func (t *Table) subset(rows []Row) *Table {
	c := &Table{
		Columns:    append([]Column(nil), t.Columns...),
		Provenance: t.Provenance,
		Rows:       make([]Row, len(rows)),
	}
	for i, r := range rows {
		c.Rows[i] = r.clone()
	}
	return c
}

// WithoutColumns copies the table dropping the named columns.
func (t *Table) WithoutColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	keep := make([]int, 0, len(t.Columns))
	for j, c := range t.Columns {
		if !drop[c.Name] {
			keep = append(keep, j)
		}
	}
	c := &Table{Provenance: t.Provenance, Rows: make([]Row, len(t.Rows))}
	if drop[t.Provenance] {
		c.Provenance = ""
	}
	c.Columns = make([]Column, len(keep))
	for i, j := range keep {
		c.Columns[i] = t.Columns[j]
	}
	for i, r := range t.Rows {
		cells := make([]Cell, len(keep))
		for k, j := range keep {
			cells[k] = r.Cells[j]
		}
		c.Rows[i] = Row{Index: r.Index, Cells: cells}
	}
	return c
}

// Concat appends tables into one, taking the union of their columns in
// first seen order. Missing cells stay empty and rows are re-indexed.
func Concat(provenance string, tables ...*Table) *Table {
	out := &Table{Provenance: provenance}
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c.Name]; !ok {
				pos[c.Name] = len(out.Columns)
				out.Columns = append(out.Columns, Column{Name: c.Name, Kind: ColumnText})
			}
		}
	}
	for _, t := range tables {
		for _, r := range t.Rows {
			cells := make([]Cell, len(out.Columns))
			for j, c := range t.Columns {
				cells[pos[c.Name]] = r.Cells[j]
			}
			out.Rows = append(out.Rows, Row{Index: len(out.Rows), Cells: cells})
		}
	}
	out.InferKinds()
	return out
}
