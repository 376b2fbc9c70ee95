package metaquery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	separatorRe = regexp.MustCompile(`[_\-]+`)

	// composes accents first so "é" survives as one letter
	stripSpecials = transform.Chain(norm.NFC, runes.Remove(runes.Predicate(isSpecial)))
)

func isSpecial(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
		return false
	}
	return r != '(' && r != ')' && r != '/'
}

// Normalize maps text to its comparison key. Separators are turned into
// spaces before special characters are removed, so "a_b" keys as "a b".
// The result is a fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = separatorRe.ReplaceAllString(strings.ToLower(text), " ")
	text = collapseSpaces(text)
	text, _, _ = transform.String(stripSpecials, text)
	// removed characters may leave doubled or edge spaces behind
	return collapseSpaces(text)
}

// collapseSpaces trims and turns every run of unicode whitespace (NBSP,
// ideographic space, \v) into one ASCII space.
func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeCell normalizes text cells; other cells pass through unchanged.
func NormalizeCell(c Cell) Cell {
	if c.Kind != CellText {
		return c
	}
	return Cell{Kind: CellText, Text: Normalize(c.Text)}
}

// NormalizeTable returns the normalized shadow of t: every textual column
// normalized, numeric columns untouched. t is not modified.
func NormalizeTable(t *Table) *Table {
	shadow := t.Clone()
	for j, col := range shadow.Columns {
		if col.Kind != ColumnText {
			continue
		}
		for i := range shadow.Rows {
			shadow.Rows[i].Cells[j] = NormalizeCell(shadow.Rows[i].Cells[j])
		}
	}
	return shadow
}
