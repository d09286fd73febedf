package portal

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/mindengage-cie/internal/records"
)

func TestListSubjectsUnknownClass(t *testing.T) {
	fx := newFixture(t)
	got, err := fx.svc.ListSubjects(context.Background(), records.ClassKey{Branch: "ME", Semester: "1", Section: "C"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got.Subjects) != 0 || got.Message != msgClassMissing {
		t.Fatalf("got %+v", got)
	}
}

func TestListSubjectsMissingParams(t *testing.T) {
	fx := newFixture(t)
	list, err := fx.svc.ListSubjects(context.Background(), records.ClassKey{Branch: "CSE", Section: "  "})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if list.Error != "Missing parameters" || list.Subjects == nil || len(list.Subjects) != 0 || list.Count != 0 {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateSubjectReportsFieldsInOrder(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.CreateSubject(context.Background(), CreateSubjectInput{Branch: "CSE"})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("err = %v", err)
	}
	if verr.Fields[0].Field != "section" || verr.Fields[1].Field != "semester" || verr.Fields[2].Field != "subject" {
		t.Fatalf("fields = %+v", verr.Fields)
	}
}

func TestCreateSubjectNeedsExistingClass(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.CreateSubject(context.Background(), CreateSubjectInput{
		Branch: "CSE", Semester: "5", Section: "A", Subject: "DBMS", Credits: 3,
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.What != "Class" {
		t.Fatalf("err = %v", err)
	}

	fx.roster(t, "U1")
	_, err = fx.svc.CreateSubject(context.Background(), CreateSubjectInput{
		Branch: "CSE", Semester: "5", Section: "A", Subject: " ", Credits: 9,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("err = %v", err)
	}

	fx.subject(t, "Networks", "CS53", 4)
	fx.subject(t, "Algorithms", "CS51", 3)
	list, err := fx.svc.ListSubjects(context.Background(), testClass)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Count != 2 || list.Subjects[0].Subject != "Algorithms" || list.Subjects[1].Credits != 4 {
		t.Fatalf("list = %+v", list)
	}
}

func TestUploadStudentsReplacesRosterAndMarks(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.roster(t, "U1", "U2")
	subID := fx.subject(t, "DBMS", "CS51", 3)
	sum := fx.upload(t, subID, workbook(t, [][]any{header3, {1, "U1", "A", 30}, {2, "U2", "B", 30}}), "", "")

	fx.roster(t, "U3")
	students, err := fx.svc.GetStudents(ctx, testClass)
	if err != nil {
		t.Fatalf("students: %v", err)
	}
	if len(students) != 1 || students[0].USN != "U3" || students[0].Sl.Int != 1 {
		t.Fatalf("students = %+v", students)
	}
	marks, err := fx.svc.GetCourseMarks(ctx, sum.CourseID)
	if err != nil {
		t.Fatalf("marks: %v", err)
	}
	if len(marks.Marks) != 0 {
		t.Fatalf("old marks survived: %+v", marks.Marks)
	}
}

func TestUploadStudentsValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.roster(t, "U1")

	err := fx.svc.UploadStudents(ctx, UploadStudentsInput{
		Branch: "CSE", Semester: "5", Section: "A",
		Students: []StudentEntry{{USN: "U7", Name: "a"}, {USN: " U7", Name: "b"}},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "students[1].usn" {
		t.Fatalf("dup err = %v", err)
	}

	err = fx.svc.UploadStudents(ctx, UploadStudentsInput{
		Branch: "CSE", Semester: "5", Section: "A",
		Students: []StudentEntry{{USN: "U8"}},
	})
	if !errors.As(err, &verr) || verr.Fields[0].Field != "students[0].name" {
		t.Fatalf("missing name err = %v", err)
	}

	// rejected uploads leave the roster alone
	students, _ := fx.svc.GetStudents(ctx, testClass)
	if len(students) != 1 || students[0].USN != "U1" {
		t.Fatalf("roster changed: %+v", students)
	}
}

func TestGetStudentsUnknownClass(t *testing.T) {
	fx := newFixture(t)
	got, err := fx.svc.GetStudents(context.Background(), testClass)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	uploads, err := fx.svc.GetUploadedMarks(context.Background(), testClass)
	if err != nil || uploads == nil || len(uploads) != 0 {
		t.Fatalf("uploads %v, %v", uploads, err)
	}
}

func TestDeleteUploadedMarks(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.roster(t, "U1", "U2", "U3")
	subID := fx.subject(t, "DBMS", "CS51", 3)
	sum := fx.upload(t, subID, workbook(t, [][]any{header3, {1, "U1"}, {2, "U2"}, {3, "U3"}}), "", "")

	n, err := fx.svc.DeleteUploadedMarks(ctx, sum.CourseID)
	if err != nil || n != 3 {
		t.Fatalf("deleted = %d, %v", n, err)
	}
	marks, _ := fx.svc.GetCourseMarks(ctx, sum.CourseID)
	if len(marks.Marks) != 0 {
		t.Fatalf("marks left: %+v", marks.Marks)
	}
	uploads, _ := fx.svc.GetUploadedMarks(ctx, testClass)
	if len(uploads) != 0 {
		t.Fatalf("uploads = %+v", uploads)
	}

	_, err = fx.svc.DeleteUploadedMarks(ctx, 999)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("unknown course err = %v", err)
	}
	_, err = fx.svc.DeleteUploadedMarks(ctx, 0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("zero course err = %v", err)
	}
}

func TestStudentViews(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.roster(t, "U1", "U2")
	subID := fx.subject(t, "DBMS", "CS51", 3)
	sum := fx.upload(t, subID, workbook(t, [][]any{header3, {1, "U1", "A", 30, 35, 20, 20, 22}}), "", "")

	name, err := fx.svc.StudentCheck(ctx, " U1 ")
	if err != nil || name != "Name U1" {
		t.Fatalf("check = %q, %v", name, err)
	}
	_, err = fx.svc.StudentCheck(ctx, "NOPE")
	var nf *NotFoundError
	if !errors.As(err, &nf) || err.Error() != "USN not found" {
		t.Fatalf("unknown usn err = %v", err)
	}

	subs, err := fx.svc.StudentSubjects(ctx, "U1")
	if err != nil || len(subs) != 1 {
		t.Fatalf("subjects = %+v, %v", subs, err)
	}
	if s := subs[0]; s.SubjectID != sum.CourseID || s.Subject != "DBMS" || s.Subcode != "CS51" || !s.HasMarks || s.Faculty != "Dr. Rao" {
		t.Fatalf("subject = %+v", s)
	}
	if subs, _ := fx.svc.StudentSubjects(ctx, "U2"); len(subs) != 0 {
		t.Fatalf("U2 has no marks: %+v", subs)
	}

	summary, err := fx.svc.GetStudentSummary(ctx, "U1", sum.CourseID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Semester != "5" || summary.Section != "A" || summary.SubCode != "CS51" || summary.Total != null.Float64From(42) {
		t.Fatalf("summary = %+v", summary)
	}
	_, err = fx.svc.GetStudentSummary(ctx, "U2", sum.CourseID)
	if !errors.As(err, &nf) {
		t.Fatalf("summary without marks err = %v", err)
	}
	_, err = fx.svc.GetStudentSummary(ctx, "", sum.CourseID)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("missing usn err = %v", err)
	}
}
