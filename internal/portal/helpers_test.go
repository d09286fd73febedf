package portal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-cie/internal/db"
	"github.com/mind-engage/mindengage-cie/internal/records"
)

var testClass = records.ClassKey{Branch: "CSE", Semester: "5", Section: "A"}

type fixture struct {
	svc   *Service
	store *records.SQLStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dsn := "file:" + filepath.Join(t.TempDir(), "portal.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	store := records.NewSQLStore(dbh)
	return &fixture{svc: NewService(store, nil, zerolog.Nop()), store: store}
}

// roster uploads students with SL No 1..n for testClass.
func (fx *fixture) roster(t *testing.T, usns ...string) {
	t.Helper()
	in := UploadStudentsInput{Branch: testClass.Branch, Semester: testClass.Semester, Section: testClass.Section}
	for i, usn := range usns {
		in.Students = append(in.Students, StudentEntry{Sl: null.IntFrom(i + 1), USN: usn, Name: "Name " + usn})
	}
	if err := fx.svc.UploadStudents(context.Background(), in); err != nil {
		t.Fatalf("upload students: %v", err)
	}
}

func (fx *fixture) subject(t *testing.T, name, code string, credits int) int64 {
	t.Helper()
	id, err := fx.svc.CreateSubject(context.Background(), CreateSubjectInput{
		Branch: testClass.Branch, Semester: testClass.Semester, Section: testClass.Section,
		Subject: name, Subcode: code, Credits: credits, Faculty: "Dr. Rao",
	})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return id
}

// workbook renders rows (header first) into xlsx bytes; nil cells stay blank.
func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func (fx *fixture) upload(t *testing.T, subjectID int64, body []byte, teacher, credits string) *UploadSummary {
	t.Helper()
	sum, err := fx.svc.UploadMarks(context.Background(), UploadMarksInput{
		File: bytes.NewReader(body), SubjectID: subjectID, TeacherName: teacher, Credits: credits,
	})
	if err != nil {
		t.Fatalf("upload marks: %v", err)
	}
	return sum
}
