package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/mindengage-cie/internal/records"
	"github.com/mind-engage/mindengage-cie/internal/scoring"
	"github.com/mind-engage/mindengage-cie/internal/sheet"
	"github.com/mind-engage/mindengage-cie/internal/storage"
)

// MaxRowErrors caps the row errors returned with an upload summary.
const MaxRowErrors = 20

const defaultCredits = 3

type UploadMarksInput struct {
	File        io.Reader
	SubjectID   int64
	TeacherName string
	Credits     string // optional override; ignored unless an integer in 1..4
}

type UploadSummary struct {
	UploadID   string   `json:"upload_id"`
	CourseID   int64    `json:"course_id"`
	SavedRows  int      `json:"saved_rows"`
	Errors     []string `json:"errors,omitempty"`
	ArchiveKey string   `json:"archive_key,omitempty"`
}

// UploadMarks reads a filled marks sheet and upserts one marks record per
// recognized student of the subject's class. Row problems are collected in
// the summary and do not abort the upload.
func (s *Service) UploadMarks(ctx context.Context, in UploadMarksInput) (*UploadSummary, error) {
	if in.File == nil || in.SubjectID <= 0 {
		return nil, NewValidationError(errors.New("file and subject_id required"))
	}
	sub, err := s.store.GetSubject(ctx, in.SubjectID)
	if err != nil {
		return nil, lookupErr(err, "Subject")
	}
	raw, err := io.ReadAll(in.File)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	tbl, err := sheet.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	class, err := s.store.GetClassByID(ctx, sub.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "load class")
	}

	teacher := strings.TrimSpace(in.TeacherName)
	override, hasOverride := parseCreditsOverride(in.Credits)
	course, err := s.resolveCourse(ctx, sub, teacher, override, hasOverride)
	if err != nil {
		return nil, err
	}

	credits := firstPositive(course.Credits, sub.Credits, override, defaultCredits)
	summary := &UploadSummary{UploadID: uuid.NewString(), CourseID: course.ID}
	log := s.log.With().
		Str("upload_id", summary.UploadID).
		Int64("course_id", course.ID).
		Int("credits", credits).
		Logger()

	students, err := s.store.ListStudents(ctx, class.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	byUSN := make(map[string]records.Student, len(students))
	for _, st := range students {
		byUSN[st.USN] = st
	}

	cols := resolveHeaders(tbl.Header)
	usnCol, ok := cols[fieldUSN]
	if !ok {
		usnCol = 1
	}
	cell := func(r int, f scoring.Field) null.Float64 {
		c, ok := cols[f]
		if !ok {
			return null.Float64{}
		}
		return parseMark(tbl.Cell(r, c))
	}

	var rowErrs []string
	for r := range tbl.Rows {
		usn := strings.TrimSpace(tbl.Cell(r, usnCol))
		if usn == "" {
			usn = strings.TrimSpace(tbl.Cell(r, 1))
		}
		if usn == "" {
			continue
		}
		st, ok := byUSN[usn]
		if !ok {
			log.Warn().Int("row", r+2).Str("usn", usn).Msg("usn not in class")
			rowErrs = append(rowErrs, fmt.Sprintf("Student with USN %s not found in class %s.", usn, class))
			continue
		}

		m := records.MarksRecord{
			StudentID: st.ID,
			ClassID:   class.ID,
			CourseID:  course.ID,
			IA1:       cell(r, scoring.FieldIA1),
			IA2:       cell(r, scoring.FieldIA2),
			IA3:       cell(r, scoring.FieldIA3),
			ASG1:      cell(r, scoring.FieldASG1),
			ASG2:      cell(r, scoring.FieldASG2),
			LabCIE:    zeroIfNull(cell(r, scoring.FieldLabCIE)),
			LabTest:   zeroIfNull(cell(r, scoring.FieldLabTest)),
			Total:     cell(r, scoring.FieldTotal),
		}
		if !m.Total.Valid {
			m.Total = null.Float64From(float64(scoring.ComputeTotal(credits, m.Scores())))
		}

		if err := s.store.UpsertMarks(ctx, m); err != nil {
			log.Error().Err(err).Int("row", r+2).Str("usn", usn).Msg("save marks")
			rowErrs = append(rowErrs, fmt.Sprintf("Failed saving marks for %s: %v", usn, err))
			continue
		}
		summary.SavedRows++
	}

	if len(rowErrs) > MaxRowErrors {
		rowErrs = rowErrs[:MaxRowErrors]
	}
	summary.Errors = rowErrs
	if s.archive != nil {
		key := storage.UploadKey(course.ID, summary.UploadID)
		if err := s.archive.Put(ctx, key, bytes.NewReader(raw)); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("archive workbook")
		} else {
			summary.ArchiveKey = key
		}
	}
	log.Info().Int("saved_rows", summary.SavedRows).Int("row_errors", len(rowErrs)).Msg("marks upload")
	return summary, nil
}

// resolveCourse finds or creates the course backing a subject and applies the
// teacher name and credits overrides.
func (s *Service) resolveCourse(ctx context.Context, sub records.Subject, teacher string, override int, hasOverride bool) (records.Course, error) {
	def := records.CourseDefaults{
		Credits: firstPositive(sub.Credits, override, defaultCredits),
		Faculty: sub.Faculty,
	}
	if def.Faculty == "" {
		def.Faculty = teacher
	}
	course, _, err := s.store.GetOrCreateCourse(ctx, sub.ClassID, sub.Subject, sub.Subcode, def)
	if err != nil {
		return records.Course{}, errors.Wrap(err, "resolve course")
	}

	updated := false
	if teacher != "" && course.Faculty != teacher {
		course.Faculty = teacher
		updated = true
	}
	if hasOverride && course.Credits != override {
		course.Credits = override
		updated = true
	}
	if updated {
		if err := s.store.UpdateCourse(ctx, course); err != nil {
			return records.Course{}, errors.Wrap(err, "update course")
		}
	}
	return course, nil
}

func parseCreditsOverride(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 || v > scoring.LabCredits {
		return 0, false
	}
	return v, true
}

// parseMark reads one cell: blank, non-numeric (formula text included) and
// non-finite values are absent.
func parseMark(raw string) null.Float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return null.Float64{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float64{}
	}
	return null.Float64From(v)
}

func zeroIfNull(v null.Float64) null.Float64 {
	if !v.Valid {
		return null.Float64From(0)
	}
	return v
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
