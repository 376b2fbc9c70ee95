package metaquery

import (
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
)

const noDefinitionHTML = "<span style='color:red;'>" + CNoDefinition + "</span>"

// IsBlank reports cells shown as "No Definition".
func IsBlank(c Cell) bool {
	if c.IsEmpty() {
		return true
	}
	return emptyMarkers[strings.ToLower(strings.TrimSpace(c.Text))]
}

// DisplayText is the plain text form used for labels.
func DisplayText(c Cell) string {
	if IsBlank(c) {
		return CNoDefinition
	}
	return c.Text
}

// FormatCell renders a cell for display, wrapping pattern matches in <mark>.
// It only affects presentation; exported values are never formatted.
func FormatCell(c Cell, pattern *regexp.Regexp) template.HTML {
	if IsBlank(c) {
		return template.HTML(noDefinitionHTML)
	}
	return template.HTML(highlight(c.Text, pattern))
}

func highlight(text string, pattern *regexp.Regexp) string {
	if pattern == nil {
		return html.EscapeString(text)
	}
	var b strings.Builder
	last := 0
	for _, m := range pattern.FindAllStringIndex(text, -1) {
		if m[0] == m[1] {
			continue
		}
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString("<mark>")
		b.WriteString(html.EscapeString(text[m[0]:m[1]]))
		b.WriteString("</mark>")
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func headerStyle(i int) string {
	switch i {
	case 0:
		return " style='width:20%'"
	case 1:
		return " style='width:30%'"
	case 3:
		return " style='width:50%'"
	}
	return ""
}

func childStyle(j int) string {
	switch j {
	case 0:
		return " style='width:30%'"
	case 2:
		return " style='width:50%'"
	}
	return ""
}

// RenderGroupedHTML draws the grouped preview: one row per record with the
// parent value spanning its group. The provenance column is not shown.
func RenderGroupedHTML(t *Table, groups []Group, pattern *regexp.Regexp) template.HTML {
	cols := t.DataColumns()
	var b strings.Builder
	b.WriteString("<table border='1' style='border-collapse:collapse; width:100%; text-align:left;'>")
	b.WriteString("<tr>")
	for i, j := range cols {
		fmt.Fprintf(&b, "<th%s>%s</th>", headerStyle(i), html.EscapeString(t.Columns[j].Name))
	}
	b.WriteString("</tr>")
	if len(cols) == 0 {
		b.WriteString("</table>")
		return template.HTML(b.String())
	}

	parent := cols[0]
	children := cols[1:]
	for _, g := range groups {
		for i, r := range g.Rows {
			b.WriteString("<tr>")
			if i == 0 {
				fmt.Fprintf(&b, "<td rowspan='%d' style='vertical-align: top; font-weight:bold;'>%s</td>",
					len(g.Rows), FormatCell(g.Rows[0].Cells[parent], pattern))
			}
			for k, j := range children {
				fmt.Fprintf(&b, "<td%s>%s</td>", childStyle(k), FormatCell(r.Cells[j], pattern))
			}
			b.WriteString("</tr>")
		}
	}
	b.WriteString("</table>")
	return template.HTML(b.String())
}
