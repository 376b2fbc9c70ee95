package metaquery

import (
	"fmt"
	"strings"
)

// newTestTable builds a table whose last column is the provenance column.
func newTestTable(header []string, records ...[]string) *Table {
	header = append(append([]string(nil), header...), CDefaultProvenanceColumn)
	recs := make([][]string, len(records))
	for i, r := range records {
		recs[i] = append(append([]string(nil), r...), "test.csv")
	}
	return NewTable(header, recs, CDefaultProvenanceColumn)
}

func rowIndexes(rows []Row) string {
	idx := make([]string, len(rows))
	for i, r := range rows {
		idx[i] = fmt.Sprint(r.Index)
	}
	return strings.Join(idx, ",")
}

func groupDisplays(groups []Group) string {
	d := make([]string, len(groups))
	for i, g := range groups {
		d[i] = g.Display
	}
	return strings.Join(d, ",")
}
