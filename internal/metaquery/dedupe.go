package metaquery

import (
	"strconv"
	"strings"
)

type DedupeResult struct {
	Kept    *Table
	Removed *Table
	Skipped bool
	Warning string
}

// dedupeKey compares numbers by value and keeps empty cells apart from
// text that normalizes to "".
func dedupeKey(c Cell) string {
	switch c.Kind {
	case CellEmpty:
		return "e:"
	case CellNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64); err == nil {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
	}
	return "t:" + c.Text
}

// Deduplicate keeps the first row of every normalized key-column value and
// moves later rows with the same key to Removed, whatever their other
// columns hold. Both halves keep the original order.
func Deduplicate(t *Table) DedupeResult {
	key := t.KeyColumn()
	if key < 0 {
		return DedupeResult{
			Kept:    t.Clone(),
			Removed: t.subset(nil),
			Skipped: true,
			Warning: "Dataset has only one column; skipping second-column deduplication.",
		}
	}

	shadow := NormalizeTable(t)
	seen := make(map[string]bool, len(t.Rows))
	kept := make([]Row, 0, len(t.Rows))
	removed := make([]Row, 0)
	for i, r := range t.Rows {
		k := dedupeKey(shadow.Rows[i].Cells[key])
		if seen[k] {
			removed = append(removed, r)
			continue
		}
		seen[k] = true
		kept = append(kept, r)
	}
	return DedupeResult{Kept: t.subset(kept), Removed: t.subset(removed)}
}
