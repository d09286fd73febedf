package sheet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Table is the active sheet of a workbook: the first row as Header and the
// remaining rows as Rows. Formula cells are returned as their formula text
// prefixed with '=' and are never evaluated.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Cell returns row r, column c (0-based) or "" when absent.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// Read parses an xlsx stream.
func Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return nil, errors.New("workbook has no active sheet")
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", name)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i := range rows {
		for c := 0; c < width; c++ {
			cell, err := excelize.CoordinatesToCellName(c+1, i+1)
			if err != nil {
				return nil, err
			}
			formula, err := f.GetCellFormula(name, cell)
			if err != nil {
				return nil, errors.Wrapf(err, "read formula %s", cell)
			}
			if formula == "" {
				continue
			}
			for len(rows[i]) <= c {
				rows[i] = append(rows[i], "")
			}
			rows[i][c] = "=" + formula
		}
	}

	t := &Table{Sheet: name}
	if len(rows) > 0 {
		t.Header, t.Rows = rows[0], rows[1:]
	}
	return t, nil
}
