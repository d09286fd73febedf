package records

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) get(ctx context.Context, dest any, q string, args ...any) error {
	if err := s.db.GetContext(ctx, dest, s.db.Rebind(q), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *SQLStore) selectAll(ctx context.Context, dest any, q string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), args...)
}

// ---------- classes ----------

func (s *SQLStore) GetClass(ctx context.Context, key ClassKey) (ClassSection, error) {
	var c ClassSection
	err := s.get(ctx, &c, `SELECT id, branch, semester, section FROM classes
		WHERE branch=? AND semester=? AND section=?`, key.Branch, key.Semester, key.Section)
	return c, err
}

func (s *SQLStore) GetClassByID(ctx context.Context, id int64) (ClassSection, error) {
	var c ClassSection
	err := s.get(ctx, &c, `SELECT id, branch, semester, section FROM classes WHERE id=?`, id)
	return c, err
}

func (s *SQLStore) GetOrCreateClass(ctx context.Context, key ClassKey) (ClassSection, error) {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO classes (branch, semester, section)
		VALUES (?,?,?) ON CONFLICT (branch, semester, section) DO NOTHING`),
		key.Branch, key.Semester, key.Section); err != nil {
		return ClassSection{}, errors.Wrap(err, "insert class")
	}
	return s.GetClass(ctx, key)
}

// ---------- students ----------

func (s *SQLStore) ListStudents(ctx context.Context, classID int64) ([]Student, error) {
	out := []Student{}
	err := s.selectAll(ctx, &out, `SELECT id, class_id, sl_no, usn, name FROM students
		WHERE class_id=? ORDER BY sl_no, id`, classID)
	return out, err
}

// ReplaceStudents deletes the class roster and inserts the given one in a
// single transaction. The class's marks are removed with the old roster.
func (s *SQLStore) ReplaceStudents(ctx context.Context, classID int64, students []Student) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM marks WHERE class_id=?`), classID); err != nil {
		return errors.Wrap(err, "delete class marks")
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE class_id=?`), classID); err != nil {
		return errors.Wrap(err, "delete roster")
	}
	ins := tx.Rebind(`INSERT INTO students (class_id, sl_no, usn, name) VALUES (?,?,?,?)`)
	for _, st := range students {
		if _, err := tx.ExecContext(ctx, ins, classID, st.SlNo, st.USN, st.Name); err != nil {
			return errors.Wrapf(err, "insert student %s", st.USN)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) FindStudentByUSN(ctx context.Context, usn string) (Student, error) {
	var st Student
	err := s.get(ctx, &st, `SELECT id, class_id, sl_no, usn, name FROM students
		WHERE usn=? ORDER BY id LIMIT 1`, usn)
	return st, err
}

// ---------- subjects ----------

func (s *SQLStore) CreateSubject(ctx context.Context, sub Subject) (int64, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`INSERT INTO subjects (class_id, subject, subcode, credits, faculty)
		VALUES (?,?,?,?,?) RETURNING id`),
		sub.ClassID, sub.Subject, sub.Subcode, sub.Credits, sub.Faculty).Scan(&id)
	return id, err
}

func (s *SQLStore) GetSubject(ctx context.Context, id int64) (Subject, error) {
	var sub Subject
	err := s.get(ctx, &sub, `SELECT id, class_id, subject, subcode, credits, faculty FROM subjects WHERE id=?`, id)
	return sub, err
}

func (s *SQLStore) ListSubjects(ctx context.Context, classID int64) ([]Subject, error) {
	out := []Subject{}
	err := s.selectAll(ctx, &out, `SELECT id, class_id, subject, subcode, credits, faculty FROM subjects
		WHERE class_id=? ORDER BY subject, id`, classID)
	return out, err
}

// ---------- courses ----------

const courseCols = `id, class_id, course_name, sub_code, faculty, credits, created_at`

// GetOrCreateCourse finds the course keyed by (class, name, code), creating
// it with def when missing. The bool reports whether a row was inserted.
func (s *SQLStore) GetOrCreateCourse(ctx context.Context, classID int64, name, subCode string, def CourseDefaults) (Course, bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO courses (class_id, course_name, sub_code, faculty, credits, created_at)
		VALUES (?,?,?,?,?,?) ON CONFLICT (class_id, course_name, sub_code) DO NOTHING`),
		classID, name, subCode, def.Faculty, def.Credits, time.Now().Unix())
	if err != nil {
		return Course{}, false, errors.Wrap(err, "insert course")
	}
	n, _ := res.RowsAffected()

	c, err := s.FindCourse(ctx, classID, name, subCode)
	if err != nil {
		return Course{}, false, err
	}
	return c, n > 0, nil
}

func (s *SQLStore) FindCourse(ctx context.Context, classID int64, name, subCode string) (Course, error) {
	var c Course
	err := s.get(ctx, &c, `SELECT `+courseCols+` FROM courses
		WHERE class_id=? AND course_name=? AND sub_code=?`, classID, name, subCode)
	return c, err
}

func (s *SQLStore) GetCourse(ctx context.Context, id int64) (Course, error) {
	var c Course
	err := s.get(ctx, &c, `SELECT `+courseCols+` FROM courses WHERE id=?`, id)
	return c, err
}

func (s *SQLStore) UpdateCourse(ctx context.Context, c Course) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE courses SET faculty=?, credits=? WHERE id=?`),
		c.Faculty, c.Credits, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- marks ----------

func (s *SQLStore) UpsertMarks(ctx context.Context, m MarksRecord) error {
	q := `INSERT INTO marks (student_id, class_id, course_id, ia1, ia2, ia3, asg1, asg2, lab_cie, lab_test, total)
		VALUES (:student_id, :class_id, :course_id, :ia1, :ia2, :ia3, :asg1, :asg2, :lab_cie, :lab_test, :total)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
		  class_id=EXCLUDED.class_id,
		  ia1=EXCLUDED.ia1, ia2=EXCLUDED.ia2, ia3=EXCLUDED.ia3,
		  asg1=EXCLUDED.asg1, asg2=EXCLUDED.asg2,
		  lab_cie=EXCLUDED.lab_cie, lab_test=EXCLUDED.lab_test,
		  total=EXCLUDED.total`
	_, err := s.db.NamedExecContext(ctx, q, m)
	return err
}

const marksCols = `m.id, m.student_id, m.class_id, m.course_id,
	m.ia1, m.ia2, m.ia3, m.asg1, m.asg2, m.lab_cie, m.lab_test, m.total`

func (s *SQLStore) GetMarks(ctx context.Context, studentID, courseID int64) (MarksRecord, error) {
	var m MarksRecord
	err := s.get(ctx, &m, `SELECT `+marksCols+` FROM marks m WHERE m.student_id=? AND m.course_id=?`,
		studentID, courseID)
	return m, err
}

func (s *SQLStore) ListCourseMarks(ctx context.Context, courseID int64) ([]StudentMarks, error) {
	out := []StudentMarks{}
	err := s.selectAll(ctx, &out, `SELECT `+marksCols+`, st.usn, st.name, st.sl_no
		FROM marks m JOIN students st ON st.id=m.student_id
		WHERE m.course_id=? ORDER BY st.sl_no, st.id`, courseID)
	return out, err
}

func (s *SQLStore) ListStudentMarks(ctx context.Context, studentID int64) ([]CourseMarks, error) {
	out := []CourseMarks{}
	err := s.selectAll(ctx, &out, `SELECT `+marksCols+`, c.course_name, c.sub_code, c.faculty, c.credits
		FROM marks m JOIN courses c ON c.id=m.course_id
		WHERE m.student_id=? ORDER BY m.id`, studentID)
	return out, err
}

// ListUploads returns the class' courses that have at least one marks record.
func (s *SQLStore) ListUploads(ctx context.Context, classID int64) ([]CourseUpload, error) {
	out := []CourseUpload{}
	err := s.selectAll(ctx, &out, `SELECT c.id AS course_id, c.course_name, c.sub_code, c.credits, c.faculty,
		       COUNT(m.id) AS student_count
		  FROM courses c JOIN marks m ON m.course_id=c.id AND m.class_id=c.class_id
		 WHERE c.class_id=?
		 GROUP BY c.id, c.course_name, c.sub_code, c.credits, c.faculty
		 ORDER BY c.id`, classID)
	return out, err
}

func (s *SQLStore) DeleteCourseMarks(ctx context.Context, courseID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM marks WHERE course_id=?`), courseID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
