package http

import (
	"github.com/go-chi/chi/v5"
)

// MountPortal registers the portal endpoints on r; callers mount it at /api.
// Paths keep their trailing slash for existing clients.
func MountPortal(r chi.Router, svc Portal, maxUploadBytes int64) {
	// subjects & templates
	r.Post("/create_subject/", CreateSubjectHandler(svc))
	r.Get("/list_subjects/", ListSubjectsHandler(svc))
	r.Get("/download_subject_template/", DownloadTemplateHandler(svc))
	r.Post("/upload_marks_subject/", UploadMarksHandler(svc, maxUploadBytes))

	// roster
	r.Get("/get_students/", GetStudentsHandler(svc))
	r.Post("/upload_students/", UploadStudentsHandler(svc))

	// uploaded marks
	r.Get("/get_uploaded_marks/", GetUploadedMarksHandler(svc))
	r.Get("/get_course_marks/", GetCourseMarksHandler(svc))
	r.Post("/delete_uploaded_marks/", DeleteUploadedMarksHandler(svc))

	// student views
	r.Post("/student_check/", StudentCheckHandler(svc))
	r.Get("/student_subjects/", StudentSubjectsHandler(svc))
	r.Get("/student/summary/", StudentSummaryHandler(svc))
}
