package portal

import (
	"sort"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports a malformed request. Fields is nil when the
// problem is not tied to a single field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// fieldErrors turns a validator message map into a ValidationError.
func fieldErrors(fields map[string]string) error {
	flds := make([]FieldError, 0, len(fields))
	for f, msg := range fields {
		flds = append(flds, FieldError{Field: f, Error: msg})
	}
	sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
	return NewValidationError(errors.New("invalid request"), flds...)
}

// NotFoundError reports a missing entity, e.g. "Subject not found".
type NotFoundError struct {
	What string
}

func (err NotFoundError) Error() string { return err.What + " not found" }

func notFound(what string) error { return &NotFoundError{What: what} }

// ParseError reports an uploaded file that could not be read as a workbook.
type ParseError struct {
	Err error
}

func (err ParseError) Error() string {
	return "Failed to read Excel file: " + errors.Cause(err.Err).Error()
}

func (err ParseError) Unwrap() error { return err.Err }
