package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-cie/internal/portal"
	"github.com/mind-engage/mindengage-cie/internal/records"
)

// Portal is the set of operations the HTTP layer exposes.
type Portal interface {
	GenerateTemplate(ctx context.Context, subjectID int64) (*portal.Template, error)
	UploadMarks(ctx context.Context, in portal.UploadMarksInput) (*portal.UploadSummary, error)
	ListSubjects(ctx context.Context, key records.ClassKey) (*portal.SubjectList, error)
	CreateSubject(ctx context.Context, in portal.CreateSubjectInput) (int64, error)
	GetStudents(ctx context.Context, key records.ClassKey) ([]portal.StudentEntry, error)
	UploadStudents(ctx context.Context, in portal.UploadStudentsInput) error
	GetUploadedMarks(ctx context.Context, key records.ClassKey) ([]records.CourseUpload, error)
	GetCourseMarks(ctx context.Context, courseID int64) (*portal.CourseMarks, error)
	DeleteUploadedMarks(ctx context.Context, courseID int64) (int64, error)
	StudentCheck(ctx context.Context, usn string) (string, error)
	StudentSubjects(ctx context.Context, usn string) ([]portal.StudentSubject, error)
	GetStudentSummary(ctx context.Context, usn string, courseID int64) (*portal.StudentSummary, error)
}

func classKey(r *http.Request) records.ClassKey {
	q := r.URL.Query()
	return records.ClassKey{Branch: q.Get("branch"), Semester: q.Get("semester"), Section: q.Get("section")}
}

// POST /api/create_subject/
func CreateSubjectHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req portal.CreateSubjectInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		id, err := svc.CreateSubject(r.Context(), req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "success", "subject_id": id})
	}
}

// GET /api/list_subjects/?branch=&semester=&section=
func ListSubjectsHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListSubjects(r.Context(), classKey(r))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /api/download_subject_template/?subject_id=
func DownloadTemplateHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.URL.Query().Get("subject_id"), "subject_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		tpl, err := svc.GenerateTemplate(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", portal.XLSXMediaType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tpl.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(tpl.Body)))
		_, _ = w.Write(tpl.Body)
	}
}

// POST /api/upload_marks_subject/ (multipart: file, subject_id, teacher_name, credits)
func UploadMarksHandler(svc Portal, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			badRequest(w, "multipart form required")
			return
		}
		id, err := parseID(r.FormValue("subject_id"), "subject_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		in := portal.UploadMarksInput{
			SubjectID:   id,
			TeacherName: r.FormValue("teacher_name"),
			Credits:     r.FormValue("credits"),
		}
		if f, _, err := r.FormFile("file"); err == nil {
			defer f.Close()
			in.File = f
		}

		sum, err := svc.UploadMarks(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			*portal.UploadSummary
		}{"saved", sum})
	}
}

// POST /api/student_check/ {"usn": ...}
func StudentCheckHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			USN string `json:"usn"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		name, err := svc.StudentCheck(r.Context(), req.USN)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "student_name": name})
	}
}

// GET /api/student_subjects/?usn=
func StudentSubjectsHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := svc.StudentSubjects(r.Context(), r.URL.Query().Get("usn"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "success", "subjects": subs})
	}
}

// GET /api/get_students/?branch=&semester=&section=
func GetStudentsHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := svc.GetStudents(r.Context(), classKey(r))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"students": students})
	}
}

// POST /api/upload_students/ {"branch","semester","section","students":[{sl,usn,name}]}
func UploadStudentsHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req portal.UploadStudentsInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := svc.UploadStudents(r.Context(), req); err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// GET /api/get_uploaded_marks/?branch=&semester=&section=
func GetUploadedMarksHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := svc.GetUploadedMarks(r.Context(), classKey(r))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
	}
}

// GET /api/get_course_marks/?course_id=
func GetCourseMarksHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.URL.Query().Get("course_id"), "course_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		marks, err := svc.GetCourseMarks(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			*portal.CourseMarks
		}{"success", marks})
	}
}

// POST /api/delete_uploaded_marks/ {"course_id": ...}
func DeleteUploadedMarksHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID flexID `json:"course_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		id, err := parseID(string(req.CourseID), "course_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		n, err := svc.DeleteUploadedMarks(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"status":        "success",
			"message":       fmt.Sprintf("Deleted marks for %d students", n),
			"deleted_count": n,
		})
	}
}

// GET /api/student/summary/?usn=&subject_id=
func StudentSummaryHandler(svc Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id, err := parseID(q.Get("subject_id"), "subject_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		summary, err := svc.GetStudentSummary(r.Context(), strings.TrimSpace(q.Get("usn")), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "success", "summary": summary})
	}
}
