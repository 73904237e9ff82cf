package repository

import "gorm.io/gorm"

// Repository aggregates every repository.
type Repository struct {
	ScheduleEntry ScheduleEntryRepository
	Subject       SubjectRepository
	Attendance    AttendanceRepository
	Mark          MarkRepository
}

// NewRepository creates the repository aggregate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		ScheduleEntry: NewScheduleEntryRepo(db),
		Subject:       NewSubjectRepo(db),
		Attendance:    NewAttendanceRepo(db),
		Mark:          NewMarkRepo(db),
	}
}
