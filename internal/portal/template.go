package portal

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-cie/internal/records"
	"github.com/mind-engage/mindengage-cie/internal/scoring"
	"github.com/mind-engage/mindengage-cie/internal/sheet"
)

const (
	templateSheet = "Template"
	XLSXMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Template is a generated marks workbook.
type Template struct {
	Filename string
	Credits  int
	Body     []byte
}

var leadColumns = []scoring.Column{
	{Field: "sl_no", Header: "SL No", Width: 6},
	{Field: fieldUSN, Header: "USN", Width: 12},
	{Field: "name", Header: "Name", Width: 28},
}

// GenerateTemplate builds the marks sheet for a subject's class: one row per
// student with the total column holding the live scoring formula.
func (s *Service) GenerateTemplate(ctx context.Context, subjectID int64) (*Template, error) {
	if subjectID <= 0 {
		return nil, NewValidationError(errors.New("subject_id required"))
	}
	sub, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, lookupErr(err, "Subject")
	}
	credits, err := s.templateCredits(ctx, sub)
	if err != nil {
		return nil, err
	}
	students, err := s.store.ListStudents(ctx, sub.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}

	w, err := sheet.NewWriter(templateSheet)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	cols := append(append([]scoring.Column{}, leadColumns...), scoring.Columns(credits)...)
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Header
	}
	if err := w.Header(titles); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	for i, c := range cols {
		if err := w.Width(i+1, c.Width); err != nil {
			return nil, err
		}
	}

	totalCol := len(cols)
	for i, st := range students {
		row := i + 2
		if st.SlNo.Valid {
			if err := w.Set(1, row, st.SlNo.Int); err != nil {
				return nil, err
			}
		}
		if err := w.Set(2, row, st.USN); err != nil {
			return nil, err
		}
		if err := w.SetWrapped(3, row, st.Name); err != nil {
			return nil, err
		}
		if err := w.SetFormula(totalCol, row, scoring.Formula(credits, row)); err != nil {
			return nil, errors.Wrapf(err, "formula row %d", row)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return &Template{
		Filename: sub.Subject + "_template.xlsx",
		Credits:  credits,
		Body:     buf.Bytes(),
	}, nil
}

// templateCredits prefers the credits of the course already backing the
// subject, so a re-downloaded template matches how uploads are scored.
func (s *Service) templateCredits(ctx context.Context, sub records.Subject) (int, error) {
	c, err := s.store.FindCourse(ctx, sub.ClassID, sub.Subject, sub.Subcode)
	switch {
	case err == nil && c.Credits > 0:
		return c.Credits, nil
	case err != nil && !errors.Is(err, records.ErrNotFound):
		return 0, errors.Wrap(err, "find course")
	}
	return sub.Credits, nil
}
