// Package sheet reads and writes xlsx workbooks for the marks templates.
package sheet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Writer builds a single-sheet workbook.
type Writer struct {
	f    *excelize.File
	name string
	wrap int
	bold int
}

// NewWriter returns a workbook whose only sheet is called title.
func NewWriter(title string) (*Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), title); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "rename sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "header style")
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "wrap style")
	}
	return &Writer{f: f, name: title, bold: bold, wrap: wrap}, nil
}

// Header writes a bold, centered first row.
func (w *Writer) Header(titles []string) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(w.name, cell, title); err != nil {
			return err
		}
	}
	if len(titles) == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	return w.f.SetCellStyle(w.name, "A1", last, w.bold)
}

// Set writes a plain value at (col,row), both 1-based.
func (w *Writer) Set(col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(w.name, cell, v)
}

// SetWrapped writes a value with wrapped text.
func (w *Writer) SetWrapped(col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.name, cell, v); err != nil {
		return err
	}
	return w.f.SetCellStyle(w.name, cell, cell, w.wrap)
}

// SetFormula stores a live formula, given without the leading '='.
func (w *Writer) SetFormula(col, row int, formula string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellFormula(w.name, cell, formula)
}

// Width sets the width of a 1-based column.
func (w *Writer) Width(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.f.SetColWidth(w.name, name, name, width)
}

// WriteTo streams the workbook as xlsx.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	return w.f.WriteTo(out)
}

func (w *Writer) Close() error { return w.f.Close() }
