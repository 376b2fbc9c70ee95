package metaquery

import (
	"strings"
)

type Group struct {
	Key     string
	Display string
	Rows    []Row
}

func (g Group) Count() int {
	return len(g.Rows)
}

// GroupByParent groups rows by the lowercased parent column value. Groups
// come in order of first appearance and keep their rows in table order.
func GroupByParent(t *Table) []Group {
	return GroupByColumn(t, t.ParentColumn())
}

// GroupByColumn groups on column col; a negative col puts every row into
// one group with an empty key.
func GroupByColumn(t *Table, col int) []Group {
	groups := make([]Group, 0)
	pos := make(map[string]int)
	for _, r := range t.Rows {
		display := ""
		if col >= 0 {
			display = r.Cells[col].String()
		}
		key := strings.ToLower(display)
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, Group{Key: key, Display: display})
		}
		groups[i].Rows = append(groups[i].Rows, r.clone())
	}
	return groups
}

// FlattenGroups lists the rows in display order.
func FlattenGroups(groups []Group) []Row {
	rows := make([]Row, 0)
	for _, g := range groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}
