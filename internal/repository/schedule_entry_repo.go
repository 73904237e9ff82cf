package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// ScheduleEntryFilter narrows List. Zero values mean "no filter".
type ScheduleEntryFilter struct {
	Username string
	Subject  string // case-insensitive substring
	Location string // case-insensitive substring
	Lecturer string // case-insensitive substring
	Special  *bool  // only special (true) or only regular (false) entries
}

// ScheduleEntryRepository is the storage collaborator of the timetable core.
type ScheduleEntryRepository interface {
	Create(ctx context.Context, entry *model.ScheduleEntry) error
	GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error)
	List(ctx context.Context, filter ScheduleEntryFilter) ([]model.ScheduleEntry, error)
	Update(ctx context.Context, entry *model.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type scheduleEntryRepo struct {
	db *gorm.DB
}

// NewScheduleEntryRepo creates a ScheduleEntryRepository.
func NewScheduleEntryRepo(db *gorm.DB) ScheduleEntryRepository {
	return &scheduleEntryRepo{db: db}
}

func (r *scheduleEntryRepo) Create(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *scheduleEntryRepo) GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error) {
	var entry model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("schedule_entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *scheduleEntryRepo) List(ctx context.Context, filter ScheduleEntryFilter) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	db := r.db.WithContext(ctx)

	if filter.Username != "" {
		db = db.Where("username = ?", filter.Username)
	}
	if filter.Subject != "" {
		db = db.Where("subject ILIKE ?", likePattern(filter.Subject))
	}
	if filter.Location != "" {
		db = db.Where("location ILIKE ?", likePattern(filter.Location))
	}
	if filter.Lecturer != "" {
		db = db.Where("lecturer ILIKE ?", likePattern(filter.Lecturer))
	}
	if filter.Special != nil {
		db = db.Where("is_special_schedule = ?", *filter.Special)
	}

	err := db.Order("start_time ASC, created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *scheduleEntryRepo) Update(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *scheduleEntryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_entry_id = ?", id).
		Delete(&model.ScheduleEntry{}).Error
}

// likePattern wraps s in wildcards, escaping LIKE metacharacters.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
