package records

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// CourseDefaults seed a course created on first upload.
type CourseDefaults struct {
	Faculty string
	Credits int
}

type Store interface {
	GetClass(ctx context.Context, key ClassKey) (ClassSection, error)
	GetClassByID(ctx context.Context, id int64) (ClassSection, error)
	GetOrCreateClass(ctx context.Context, key ClassKey) (ClassSection, error)

	ListStudents(ctx context.Context, classID int64) ([]Student, error) // by sl_no
	ReplaceStudents(ctx context.Context, classID int64, students []Student) error
	FindStudentByUSN(ctx context.Context, usn string) (Student, error) // lowest id wins

	CreateSubject(ctx context.Context, s Subject) (int64, error)
	GetSubject(ctx context.Context, id int64) (Subject, error)
	ListSubjects(ctx context.Context, classID int64) ([]Subject, error) // by subject name

	GetOrCreateCourse(ctx context.Context, classID int64, name, subCode string, def CourseDefaults) (Course, bool, error)
	FindCourse(ctx context.Context, classID int64, name, subCode string) (Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	UpdateCourse(ctx context.Context, c Course) error

	UpsertMarks(ctx context.Context, m MarksRecord) error
	GetMarks(ctx context.Context, studentID, courseID int64) (MarksRecord, error)
	ListCourseMarks(ctx context.Context, courseID int64) ([]StudentMarks, error) // by student sl_no
	ListStudentMarks(ctx context.Context, studentID int64) ([]CourseMarks, error)
	ListUploads(ctx context.Context, classID int64) ([]CourseUpload, error)
	DeleteCourseMarks(ctx context.Context, courseID int64) (int64, error)
}
