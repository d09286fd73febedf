package portal

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mind-engage/mindengage-cie/internal/scoring"
)

// fieldUSN is the identifier column; the rest are scoring fields.
const fieldUSN scoring.Field = "usn"

// headerSynonyms lists, per field, the accepted header spellings in
// priority order. Spellings are compared after normalizeHeader.
var headerSynonyms = []struct {
	field scoring.Field
	names []string
}{
	{fieldUSN, []string{"usn", "u s n"}},
	{scoring.FieldIA1, []string{"ia1 (40)", "ia1", "ia 1", "ia1 ( 40 )"}},
	{scoring.FieldIA2, []string{"ia2 (40)", "ia2", "ia 2"}},
	{scoring.FieldIA3, []string{"ia3 (40)", "ia3", "ia 3"}},
	{scoring.FieldASG1, []string{"asg1 (25)", "asg1 (20)", "asg1", "asg 1"}},
	{scoring.FieldASG2, []string{"asg2 (25)", "asg2 (20)", "asg2", "asg 2"}},
	{scoring.FieldLabCIE, []string{"lab cie", "lab cie (15)", "lab_cie"}},
	{scoring.FieldLabTest, []string{"lab test", "lab test (10)", "lab_test"}},
	{scoring.FieldTotal, []string{"total cie", "total cie (50)", "total", "total cie ( 50 )"}},
}

func normalizeHeader(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKC.String(s)))
}

// resolveHeaders maps each recognized field to its 0-based column. For every
// field the first synonym present wins, at its first occurrence; fields with
// no matching header are absent from the result.
func resolveHeaders(header []string) map[scoring.Field]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, seen := index[n]; !seen {
			index[n] = i
		}
	}
	out := make(map[scoring.Field]int, len(headerSynonyms))
	for _, syn := range headerSynonyms {
		for _, name := range syn.names {
			if i, ok := index[name]; ok {
				out[syn.field] = i
				break
			}
		}
	}
	return out
}
