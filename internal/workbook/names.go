package workbook

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tableNames hands out workbook-unique table names.
type tableNames struct {
	prefix string
	used   map[string]int
}

func newTableNames(prefix string) *tableNames {
	return &tableNames{prefix: prefix, used: make(map[string]int)}
}

// next returns the table name for label: accents are folded, every character
// that is not an ASCII letter becomes "_", and the sheet prefix is prepended.
// Repeated names get a numeric suffix.
func (n *tableNames) next(label string) string {
	name := n.prefix + "_" + sanitizeTableName(label)

	n.used[name]++
	if count := n.used[name]; count > 1 {
		return fmt.Sprintf("%s_%d", name, count)
	}
	return name
}

func sanitizeTableName(label string) string {
	// Normalize unicode (e.g., accented characters)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, label)
	if err != nil {
		normalized = label
	}

	var b strings.Builder
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "Table"
	}
	return b.String()
}
