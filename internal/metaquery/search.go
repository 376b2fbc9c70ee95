package metaquery

import (
	"regexp"
)

// SearchPattern compiles query as a literal, case-insensitive pattern.
// It returns nil for an empty query.
func SearchPattern(query string) *regexp.Regexp {
	if query == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
}

// Search keeps the rows where some textual column contains query. The
// provenance column is not searched. An empty query returns t itself.
func Search(t *Table, query string) *Table {
	pattern := SearchPattern(query)
	if pattern == nil {
		return t
	}
	cols := make([]int, 0, len(t.Columns))
	for _, j := range t.DataColumns() {
		if t.Columns[j].Kind == ColumnText {
			cols = append(cols, j)
		}
	}
	rows := make([]Row, 0)
	for _, r := range t.Rows {
		for _, j := range cols {
			if pattern.MatchString(r.Cells[j].String()) {
				rows = append(rows, r)
				break
			}
		}
	}
	return t.subset(rows)
}
