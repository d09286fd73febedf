package scoring

import (
	"fmt"
	"strings"
)

// Field names one mark column of a sheet row.
type Field string

const (
	FieldIA1     Field = "ia1"
	FieldIA2     Field = "ia2"
	FieldIA3     Field = "ia3"
	FieldASG1    Field = "asg1"
	FieldASG2    Field = "asg2"
	FieldLabCIE  Field = "lab_cie"
	FieldLabTest Field = "lab_test"
	FieldTotal   Field = "total"
)

// Column is a mark column as it appears in a template.
type Column struct {
	Field  Field
	Header string
	Width  float64
}

// FirstMarkColumn is the 1-based column of IA1; SL No, USN and Name precede it.
const FirstMarkColumn = 4

// Columns lists the mark columns for a course, total last.
func Columns(credits int) []Column {
	cols := []Column{
		{FieldIA1, "IA1", 8},
		{FieldIA2, "IA2", 8},
		{FieldIA3, "IA3", 8},
		{FieldASG1, "ASG1", 8},
		{FieldASG2, "ASG2", 8},
	}
	if HasLab(credits) {
		cols = append(cols, Column{FieldLabCIE, "Lab CIE", 10}, Column{FieldLabTest, "Lab Test", 10})
	}
	return append(cols, Column{FieldTotal, "Total CIE (50)", 12})
}

// Formula renders the total rule for a 1-based sheet row, without the
// leading '='. The best two IA scores are MAX plus MEDIAN of the three, with
// blank cells read as 0 through N(); the four-credit assignment mean skips
// blanks the way ComputeTotal does. Every term is a separate SUM argument.
func Formula(credits, row int) string {
	cell := cellNames(credits, row)
	ia := fmt.Sprintf("N(%s),N(%s),N(%s)", cell[FieldIA1], cell[FieldIA2], cell[FieldIA3])
	asg := cell[FieldASG1] + ":" + cell[FieldASG2]

	var terms []string
	if HasLab(credits) {
		terms = []string{
			"MAX(" + ia + ")/2/40*15",
			"MEDIAN(" + ia + ")/2/40*15",
			"IFERROR(AVERAGE(" + asg + "),0)/25*10",
			cell[FieldLabCIE] + ":" + cell[FieldLabTest],
		}
	} else {
		terms = []string{
			"MAX(" + ia + ")/2/40*25",
			"MEDIAN(" + ia + ")/2/40*25",
			"SUM(" + asg + ")/50*25",
		}
	}
	return "CEILING(SUM(" + strings.Join(terms, ",") + "),1)"
}

// CellName returns the cell holding field f on the given row.
func CellName(credits, row int, f Field) string {
	return cellNames(credits, row)[f]
}

func cellNames(credits, row int) map[Field]string {
	cols := Columns(credits)
	out := make(map[Field]string, len(cols))
	for i, c := range cols {
		// mark columns stay within A..Z
		out[c.Field] = fmt.Sprintf("%c%d", 'A'+FirstMarkColumn-1+i, row)
	}
	return out
}
