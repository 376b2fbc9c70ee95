package metaquery

import (
	"html/template"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Result is one full recomputation over an ingested table for a query and
// a set of selected rows.
type Result struct {
	Query        string
	TotalBefore  int
	TotalAfter   int
	RemovedCount int
	Warning      string

	Dedupe        DedupeResult
	RemovedGroups []Group

	// Filtered is the searched table without the provenance column.
	Filtered *Table
	Groups   []Group
	Pattern  *regexp.Regexp

	SelectionColumns []int
	Target           int
	Selection        Selection
	Export           []Cell
}

// Run deduplicates, searches, groups and assembles the export. t is
// never modified.
func Run(t *Table, query string, sel Selection) *Result {
	res := new(Result)
	res.Query = query
	res.Selection = sel
	res.TotalBefore = t.Len()

	res.Dedupe = Deduplicate(t)
	res.Warning = res.Dedupe.Warning
	res.TotalAfter = res.Dedupe.Kept.Len()
	res.RemovedCount = res.Dedupe.Removed.Len()
	if res.Dedupe.Skipped {
		logrus.WithField("columns", len(t.Columns)).Warn(res.Warning)
	}
	removed := res.Dedupe.Removed
	res.RemovedGroups = GroupByColumn(removed, removed.ParentColumn())

	filtered := Search(res.Dedupe.Kept, query)
	if t.Provenance != "" {
		filtered = filtered.WithoutColumns(t.Provenance)
	}
	res.Filtered = filtered
	res.Pattern = SearchPattern(query)
	res.Groups = GroupByParent(filtered)

	res.SelectionColumns = SelectionColumns(filtered)
	res.Target = TargetColumn(filtered)
	res.Export = AssembleExport(res.Groups, sel, res.Target)

	logrus.WithFields(logrus.Fields{
		"before":   res.TotalBefore,
		"after":    res.TotalAfter,
		"removed":  res.RemovedCount,
		"query":    query,
		"filtered": filtered.Len(),
		"groups":   len(res.Groups),
		"selected": len(sel),
		"exported": len(res.Export),
	}).Debug("pipeline done")
	return res
}

func (res *Result) ParentName() string {
	p := res.Filtered.ParentColumn()
	if p < 0 {
		return ""
	}
	return res.Filtered.Columns[p].Name
}

func (res *Result) TargetName() string {
	if res.Target < 0 {
		return ""
	}
	return res.Filtered.Columns[res.Target].Name
}

func (res *Result) PreviewHTML() template.HTML {
	return RenderGroupedHTML(res.Filtered, res.Groups, res.Pattern)
}

// SelectionItem is one checkbox of the selection view.
type SelectionItem struct {
	Index   int
	Label   string
	Checked bool
	Cells   []string
}

type SelectionGroup struct {
	Display string
	Count   int
	Items   []SelectionItem
}

// SelectionGroups lays out the checkboxes per group. The label is the
// first selection column, which is also the exported one.
func (res *Result) SelectionGroups() []SelectionGroup {
	out := make([]SelectionGroup, 0, len(res.Groups))
	for _, g := range res.Groups {
		sg := SelectionGroup{Display: g.Display, Count: g.Count()}
		for _, r := range g.Rows {
			item := SelectionItem{Index: r.Index, Checked: res.Selection[r.Index]}
			for _, j := range res.SelectionColumns {
				item.Cells = append(item.Cells, DisplayText(r.Cells[j]))
			}
			if len(item.Cells) > 0 {
				item.Label = item.Cells[0]
			}
			sg.Items = append(sg.Items, item)
		}
		out = append(out, sg)
	}
	return out
}

func (res *Result) SelectionHeaders() []string {
	names := make([]string, len(res.SelectionColumns))
	for i, j := range res.SelectionColumns {
		names[i] = res.Filtered.Columns[j].Name
	}
	return names
}
