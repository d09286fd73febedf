// Package portal implements the marks portal operations on top of the
// records store: roster and subject management, template download, marks
// upload and the student-facing views.
package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/mindengage-cie/internal/records"
	"github.com/mind-engage/mindengage-cie/internal/storage"
	"github.com/mind-engage/mindengage-cie/internal/validate"
)

type Service struct {
	store    records.Store
	validate *validate.Validator
	log      zerolog.Logger
	archive  storage.BlobStore
}

type Option func(*Service)

// WithArchive keeps a copy of every accepted marks workbook in b.
func WithArchive(b storage.BlobStore) Option {
	return func(s *Service) { s.archive = b }
}

func NewService(store records.Store, v *validate.Validator, log zerolog.Logger, opts ...Option) *Service {
	if v == nil {
		v = validate.New()
	}
	s := &Service{store: store, validate: v, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lookupErr maps a store miss to a NotFoundError for what.
func lookupErr(err error, what string) error {
	if errors.Is(err, records.ErrNotFound) {
		return notFound(what)
	}
	return errors.Wrapf(err, "load %s", strings.ToLower(what))
}

func (s *Service) check(req any) error {
	fields, err := s.validate.Struct(req)
	if err != nil {
		return errors.Wrap(err, "validate")
	}
	if fields != nil {
		return fieldErrors(fields)
	}
	return nil
}

func trimKey(k records.ClassKey) records.ClassKey {
	return records.ClassKey{
		Branch:   strings.TrimSpace(k.Branch),
		Semester: strings.TrimSpace(k.Semester),
		Section:  strings.TrimSpace(k.Section),
	}
}

// findClass returns the class for key, or false when it does not exist yet.
func (s *Service) findClass(ctx context.Context, key records.ClassKey) (records.ClassSection, bool, error) {
	c, err := s.store.GetClass(ctx, trimKey(key))
	if errors.Is(err, records.ErrNotFound) {
		return records.ClassSection{}, false, nil
	}
	if err != nil {
		return records.ClassSection{}, false, errors.Wrap(err, "load class")
	}
	return c, true, nil
}

// ---------- subjects ----------

const msgClassMissing = "Class not found. Please add students first."

type SubjectList struct {
	Subjects []records.Subject `json:"subjects"`
	Count    int               `json:"count"`
	Message  string            `json:"message,omitempty"`
	Error    string            `json:"error,omitempty"`
}

const msgMissingParams = "Missing parameters"

// ListSubjects returns the class' subjects by name. An unknown class yields an
// empty list with an explanatory message; an incomplete class key yields an
// empty list flagged with an error rather than a failed request.
func (s *Service) ListSubjects(ctx context.Context, key records.ClassKey) (*SubjectList, error) {
	key = trimKey(key)
	if err := s.check(key); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return &SubjectList{Subjects: []records.Subject{}, Error: msgMissingParams}, nil
		}
		return nil, err
	}
	class, ok, err := s.findClass(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &SubjectList{Subjects: []records.Subject{}, Message: msgClassMissing}, nil
	}
	subs, err := s.store.ListSubjects(ctx, class.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list subjects")
	}
	return &SubjectList{Subjects: subs, Count: len(subs)}, nil
}

type CreateSubjectInput struct {
	Branch   string `json:"branch" validate:"required"`
	Semester string `json:"semester" validate:"required"`
	Section  string `json:"section" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Subcode  string `json:"subcode"`
	Credits  int    `json:"credits" validate:"min=0,max=4"`
	Faculty  string `json:"faculty"`
}

func (s *Service) CreateSubject(ctx context.Context, in CreateSubjectInput) (int64, error) {
	key := trimKey(records.ClassKey{Branch: in.Branch, Semester: in.Semester, Section: in.Section})
	in.Branch, in.Semester, in.Section = key.Branch, key.Semester, key.Section
	in.Subject = strings.TrimSpace(in.Subject)
	in.Subcode = strings.TrimSpace(in.Subcode)
	in.Faculty = strings.TrimSpace(in.Faculty)
	if err := s.check(in); err != nil {
		return 0, err
	}
	class, ok, err := s.findClass(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, notFound("Class")
	}
	id, err := s.store.CreateSubject(ctx, records.Subject{
		ClassID: class.ID,
		Subject: in.Subject,
		Subcode: in.Subcode,
		Credits: in.Credits,
		Faculty: in.Faculty,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create subject")
	}
	s.log.Info().Int64("subject_id", id).Str("class", class.String()).Msg("subject created")
	return id, nil
}

// ---------- roster ----------

// StudentEntry is one roster line as exchanged with clients.
type StudentEntry struct {
	Sl   null.Int `json:"sl"`
	USN  string   `json:"usn" validate:"required"`
	Name string   `json:"name" validate:"required"`
}

// GetStudents lists the roster by SL No; an unknown class has no students.
func (s *Service) GetStudents(ctx context.Context, key records.ClassKey) ([]StudentEntry, error) {
	out := []StudentEntry{}
	class, ok, err := s.findClass(ctx, key)
	if err != nil || !ok {
		return out, err
	}
	students, err := s.store.ListStudents(ctx, class.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	for _, st := range students {
		out = append(out, StudentEntry{Sl: st.SlNo, USN: st.USN, Name: st.Name})
	}
	return out, nil
}

type UploadStudentsInput struct {
	Branch   string         `json:"branch" validate:"required"`
	Semester string         `json:"semester" validate:"required"`
	Section  string         `json:"section" validate:"required"`
	Students []StudentEntry `json:"students" validate:"dive"`
}

// UploadStudents replaces the class roster, creating the class when needed.
// Existing students and their marks are removed.
func (s *Service) UploadStudents(ctx context.Context, in UploadStudentsInput) error {
	key := trimKey(records.ClassKey{Branch: in.Branch, Semester: in.Semester, Section: in.Section})
	in.Branch, in.Semester, in.Section = key.Branch, key.Semester, key.Section
	for i := range in.Students {
		in.Students[i].USN = strings.TrimSpace(in.Students[i].USN)
		in.Students[i].Name = strings.TrimSpace(in.Students[i].Name)
	}
	if err := s.check(in); err != nil {
		return err
	}
	seen := make(map[string]int, len(in.Students))
	roster := make([]records.Student, 0, len(in.Students))
	for i, st := range in.Students {
		if j, dup := seen[st.USN]; dup {
			return NewValidationError(errors.New("duplicate USN"), FieldError{
				Field: fmt.Sprintf("students[%d].usn", i),
				Error: fmt.Sprintf("USN %s already listed at row %d", st.USN, j+1),
			})
		}
		seen[st.USN] = i
		roster = append(roster, records.Student{SlNo: st.Sl, USN: st.USN, Name: st.Name})
	}

	class, err := s.store.GetOrCreateClass(ctx, key)
	if err != nil {
		return errors.Wrap(err, "resolve class")
	}
	if err := s.store.ReplaceStudents(ctx, class.ID, roster); err != nil {
		return errors.Wrap(err, "replace roster")
	}
	s.log.Info().Str("class", class.String()).Int("students", len(roster)).Msg("roster replaced")
	return nil
}

// ---------- uploaded marks ----------

// GetUploadedMarks lists the class' courses that have marks on file.
func (s *Service) GetUploadedMarks(ctx context.Context, key records.ClassKey) ([]records.CourseUpload, error) {
	out := []records.CourseUpload{}
	class, ok, err := s.findClass(ctx, key)
	if err != nil || !ok {
		return out, err
	}
	uploads, err := s.store.ListUploads(ctx, class.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list uploads")
	}
	return uploads, nil
}

type CourseMarkRow struct {
	USN     string       `json:"usn"`
	Name    string       `json:"name"`
	IA1     null.Float64 `json:"ia1"`
	IA2     null.Float64 `json:"ia2"`
	IA3     null.Float64 `json:"ia3"`
	ASG1    null.Float64 `json:"asg1"`
	ASG2    null.Float64 `json:"asg2"`
	LabCIE  null.Float64 `json:"lab_cie"`
	LabTest null.Float64 `json:"lab_test"`
	Total   null.Float64 `json:"total"`
	Credits int          `json:"credits"`
}

type CourseMarks struct {
	Marks      []CourseMarkRow `json:"marks"`
	CourseName string          `json:"course_name"`
	Credits    int             `json:"credits"`
}

// GetCourseMarks returns every marks record of a course by student SL No.
func (s *Service) GetCourseMarks(ctx context.Context, courseID int64) (*CourseMarks, error) {
	if courseID <= 0 {
		return nil, NewValidationError(errors.New("course_id required"))
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, lookupErr(err, "Course")
	}
	rows, err := s.store.ListCourseMarks(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "list marks")
	}
	out := &CourseMarks{Marks: make([]CourseMarkRow, 0, len(rows)), CourseName: course.CourseName, Credits: course.Credits}
	for _, m := range rows {
		out.Marks = append(out.Marks, CourseMarkRow{
			USN: m.USN, Name: m.Name,
			IA1: m.IA1, IA2: m.IA2, IA3: m.IA3,
			ASG1: m.ASG1, ASG2: m.ASG2,
			LabCIE: m.LabCIE, LabTest: m.LabTest,
			Total:   m.Total,
			Credits: course.Credits,
		})
	}
	return out, nil
}

// DeleteUploadedMarks removes all marks of a course and reports how many.
func (s *Service) DeleteUploadedMarks(ctx context.Context, courseID int64) (int64, error) {
	if courseID <= 0 {
		return 0, NewValidationError(errors.New("course_id required"))
	}
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return 0, lookupErr(err, "Course")
	}
	n, err := s.store.DeleteCourseMarks(ctx, courseID)
	if err != nil {
		return 0, errors.Wrap(err, "delete marks")
	}
	s.log.Info().Int64("course_id", courseID).Int64("deleted", n).Msg("marks deleted")
	return n, nil
}

// ---------- student views ----------

func (s *Service) studentByUSN(ctx context.Context, usn, what string) (records.Student, error) {
	usn = strings.TrimSpace(usn)
	if usn == "" {
		return records.Student{}, NewValidationError(errors.New("USN required"))
	}
	st, err := s.store.FindStudentByUSN(ctx, usn)
	if err != nil {
		return records.Student{}, lookupErr(err, what)
	}
	return st, nil
}

// StudentCheck returns the name of the first student with usn.
func (s *Service) StudentCheck(ctx context.Context, usn string) (string, error) {
	st, err := s.studentByUSN(ctx, usn, "USN")
	if err != nil {
		return "", err
	}
	return st.Name, nil
}

type StudentSubject struct {
	SubjectID int64  `json:"subject_id"`
	Subject   string `json:"subject"`
	Subcode   string `json:"subcode"`
	Credits   int    `json:"credits"`
	Faculty   string `json:"faculty"`
	HasMarks  bool   `json:"has_marks"`
}

// StudentSubjects lists the courses the student has marks for. SubjectID
// carries the course id.
func (s *Service) StudentSubjects(ctx context.Context, usn string) ([]StudentSubject, error) {
	st, err := s.studentByUSN(ctx, usn, "Student")
	if err != nil {
		return nil, err
	}
	marks, err := s.store.ListStudentMarks(ctx, st.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list student marks")
	}
	out := make([]StudentSubject, 0, len(marks))
	for _, m := range marks {
		out = append(out, StudentSubject{
			SubjectID: m.CourseID,
			Subject:   m.CourseName,
			Subcode:   m.SubCode,
			Credits:   m.Credits,
			Faculty:   m.Faculty,
			HasMarks:  true,
		})
	}
	return out, nil
}

type StudentSummary struct {
	Name     string       `json:"name"`
	USN      string       `json:"usn"`
	Semester string       `json:"semester"`
	Section  string       `json:"section"`
	Subject  string       `json:"subject"`
	SubCode  string       `json:"sub_code"`
	Faculty  string       `json:"faculty"`
	Credits  int          `json:"credits"`
	IA1      null.Float64 `json:"ia1"`
	IA2      null.Float64 `json:"ia2"`
	IA3      null.Float64 `json:"ia3"`
	ASG1     null.Float64 `json:"asg1"`
	ASG2     null.Float64 `json:"asg2"`
	LabCIE   null.Float64 `json:"lab_cie"`
	LabTest  null.Float64 `json:"lab_test"`
	Total    null.Float64 `json:"total"`
}

// GetStudentSummary returns one student's marks for a course.
func (s *Service) GetStudentSummary(ctx context.Context, usn string, courseID int64) (*StudentSummary, error) {
	if strings.TrimSpace(usn) == "" || courseID <= 0 {
		return nil, NewValidationError(errors.New("USN and subject_id required"))
	}
	st, err := s.studentByUSN(ctx, usn, "Student")
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMarks(ctx, st.ID, courseID)
	if err != nil {
		return nil, lookupErr(err, "Marks for this subject")
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, lookupErr(err, "Course")
	}
	class, err := s.store.GetClassByID(ctx, st.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "load class")
	}
	return &StudentSummary{
		Name:     st.Name,
		USN:      st.USN,
		Semester: class.Semester,
		Section:  class.Section,
		Subject:  course.CourseName,
		SubCode:  course.SubCode,
		Faculty:  course.Faculty,
		Credits:  course.Credits,
		IA1:      m.IA1,
		IA2:      m.IA2,
		IA3:      m.IA3,
		ASG1:     m.ASG1,
		ASG2:     m.ASG2,
		LabCIE:   m.LabCIE,
		LabTest:  m.LabTest,
		Total:    m.Total,
	}, nil
}
