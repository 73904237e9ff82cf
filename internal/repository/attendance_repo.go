package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// AttendanceFilter narrows List. Zero values mean "no filter".
type AttendanceFilter struct {
	Username string
	Subject  string // exact, case-insensitive
	From     string // YYYY-MM-DD, inclusive
	To       string // YYYY-MM-DD, inclusive
}

// AttendanceRepository stores attendance records.
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	List(ctx context.Context, filter AttendanceFilter) ([]model.AttendanceRecord, error)
	Update(ctx context.Context, record *model.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates an AttendanceRepository.
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).Where("attendance_id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) List(ctx context.Context, filter AttendanceFilter) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	db := r.db.WithContext(ctx)

	if filter.Username != "" {
		db = db.Where("username = ?", filter.Username)
	}
	if filter.Subject != "" {
		db = db.Where("LOWER(subject) = LOWER(?)", filter.Subject)
	}
	// YYYY-MM-DD compares chronologically as a string
	if filter.From != "" {
		db = db.Where("attendance_date >= ?", filter.From)
	}
	if filter.To != "" {
		db = db.Where("attendance_date <= ?", filter.To)
	}

	err := db.Order("attendance_date ASC, start_time ASC").Find(&records).Error
	return records, err
}

func (r *attendanceRepo) Update(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *attendanceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("attendance_id = ?", id).Delete(&model.AttendanceRecord{}).Error
}
