package service

import (
	"go.uber.org/zap"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
)

// Service aggregates every service.
type Service struct {
	Timetable TimetableService
	Reminder  ReminderService
	Calendar  CalendarService
	Export    ExportService

	Subject    SubjectService
	Attendance AttendanceService
	Mark       MarkService
}

// NewService wires the services. store and sender back the reminder dispatcher.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store ReminderStatusStore,
	sender Sender,
	logger *zap.Logger,
) *Service {
	loc := cfg.Reminder.Location()
	reminder := NewReminderService(cfg.Reminder, repo, store, sender, logger)
	timetable := NewTimetableService(repo, reminder, loc, logger)

	return &Service{
		Timetable: timetable,
		Reminder:  reminder,
		Calendar:  NewCalendarService(repo, timetable, loc, logger),
		Export:    NewExportService(timetable, logger),

		Subject:    NewSubjectService(repo, logger),
		Attendance: NewAttendanceService(repo, logger),
		Mark:       NewMarkService(repo, logger),
	}
}
