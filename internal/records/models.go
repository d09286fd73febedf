package records

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/mindengage-cie/internal/scoring"
)

// ClassKey identifies a class section.
type ClassKey struct {
	Branch   string `json:"branch" validate:"required"`
	Semester string `json:"semester" validate:"required"`
	Section  string `json:"section" validate:"required"`
}

type ClassSection struct {
	ID       int64  `db:"id" json:"id"`
	Branch   string `db:"branch" json:"branch"`
	Semester string `db:"semester" json:"semester"`
	Section  string `db:"section" json:"section"`
}

func (c ClassSection) Key() ClassKey {
	return ClassKey{Branch: c.Branch, Semester: c.Semester, Section: c.Section}
}

// String is the display form used in messages, e.g. "CSE - Sem 5 - Sec A".
func (c ClassSection) String() string {
	return fmt.Sprintf("%s - Sem %s - Sec %s", c.Branch, c.Semester, c.Section)
}

type Student struct {
	ID      int64    `db:"id" json:"id"`
	ClassID int64    `db:"class_id" json:"class_id"`
	SlNo    null.Int `db:"sl_no" json:"sl"`
	USN     string   `db:"usn" json:"usn"`
	Name    string   `db:"name" json:"name"`
}

type Course struct {
	ID         int64  `db:"id" json:"id"`
	ClassID    int64  `db:"class_id" json:"class_id"`
	CourseName string `db:"course_name" json:"course_name"`
	SubCode    string `db:"sub_code" json:"sub_code"`
	Faculty    string `db:"faculty" json:"faculty"`
	Credits    int    `db:"credits" json:"credits"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

type Subject struct {
	ID      int64  `db:"id" json:"id"`
	ClassID int64  `db:"class_id" json:"-"`
	Subject string `db:"subject" json:"subject"`
	Subcode string `db:"subcode" json:"subcode"`
	Credits int    `db:"credits" json:"credits"`
	Faculty string `db:"faculty" json:"faculty"`
}

// MarksRecord is one student's marks for one course.
type MarksRecord struct {
	ID        int64        `db:"id" json:"-"`
	StudentID int64        `db:"student_id" json:"-"`
	ClassID   int64        `db:"class_id" json:"-"`
	CourseID  int64        `db:"course_id" json:"-"`
	IA1       null.Float64 `db:"ia1" json:"ia1"`
	IA2       null.Float64 `db:"ia2" json:"ia2"`
	IA3       null.Float64 `db:"ia3" json:"ia3"`
	ASG1      null.Float64 `db:"asg1" json:"asg1"`
	ASG2      null.Float64 `db:"asg2" json:"asg2"`
	LabCIE    null.Float64 `db:"lab_cie" json:"lab_cie"`
	LabTest   null.Float64 `db:"lab_test" json:"lab_test"`
	Total     null.Float64 `db:"total" json:"total"`
}

// Scores returns the raw marks in the shape the scoring policy takes.
func (m MarksRecord) Scores() scoring.Marks {
	return scoring.Marks{
		IA1: m.IA1, IA2: m.IA2, IA3: m.IA3,
		ASG1: m.ASG1, ASG2: m.ASG2,
		LabCIE: m.LabCIE, LabTest: m.LabTest,
	}
}

// CourseUpload summarizes a course that has marks on file.
type CourseUpload struct {
	CourseID     int64  `db:"course_id" json:"course_id"`
	Subject      string `db:"course_name" json:"subject"`
	Subcode      string `db:"sub_code" json:"subcode"`
	Credits      int    `db:"credits" json:"credits"`
	Faculty      string `db:"faculty" json:"faculty"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// StudentMarks is a marks record joined with its student.
type StudentMarks struct {
	MarksRecord
	USN  string   `db:"usn" json:"usn"`
	Name string   `db:"name" json:"name"`
	SlNo null.Int `db:"sl_no" json:"-"`
}

// CourseMarks is a marks record joined with its course.
type CourseMarks struct {
	MarksRecord
	CourseName string `db:"course_name" json:"-"`
	SubCode    string `db:"sub_code" json:"-"`
	Faculty    string `db:"faculty" json:"-"`
	Credits    int    `db:"credits" json:"-"`
}
