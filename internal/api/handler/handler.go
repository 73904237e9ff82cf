package handler

import "github.com/Kopuraj/SEM-Tracker/internal/service"

// Handler aggregates every handler.
type Handler struct {
	Timetable *TimetableHandler
	Export    *ExportHandler

	Subject    *SubjectHandler
	Attendance *AttendanceHandler
	Mark       *MarkHandler
}

// NewHandler creates the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Timetable: NewTimetableHandler(svc.Timetable, svc.Calendar),
		Export:    NewExportHandler(svc.Calendar, svc.Export),

		Subject:    NewSubjectHandler(svc.Subject),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Mark:       NewMarkHandler(svc.Mark),
	}
}
