package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// MarkFilter narrows List. Zero values mean "no filter".
type MarkFilter struct {
	Username       string
	SubjectID      string
	AssessmentType string // exact, case-insensitive
}

// MarkRepository stores assessment marks.
type MarkRepository interface {
	Create(ctx context.Context, mark *model.Mark) error
	GetByID(ctx context.Context, id string) (*model.Mark, error)
	// List returns the newest assessment first.
	List(ctx context.Context, filter MarkFilter) ([]model.Mark, error)
	Update(ctx context.Context, mark *model.Mark) error
	Delete(ctx context.Context, id string) error
}

type markRepo struct {
	db *gorm.DB
}

// NewMarkRepo creates a MarkRepository.
func NewMarkRepo(db *gorm.DB) MarkRepository {
	return &markRepo{db: db}
}

func (r *markRepo) Create(ctx context.Context, mark *model.Mark) error {
	return r.db.WithContext(ctx).Create(mark).Error
}

func (r *markRepo) GetByID(ctx context.Context, id string) (*model.Mark, error) {
	var mark model.Mark
	err := r.db.WithContext(ctx).Where("mark_id = ?", id).First(&mark).Error
	if err != nil {
		return nil, err
	}
	return &mark, nil
}

func (r *markRepo) List(ctx context.Context, filter MarkFilter) ([]model.Mark, error) {
	var marks []model.Mark
	db := r.db.WithContext(ctx)

	if filter.Username != "" {
		db = db.Where("username = ?", filter.Username)
	}
	if filter.SubjectID != "" {
		db = db.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.AssessmentType != "" {
		db = db.Where("UPPER(assessment_type) = UPPER(?)", filter.AssessmentType)
	}

	err := db.Order("assessment_date DESC, created_at DESC").Find(&marks).Error
	return marks, err
}

func (r *markRepo) Update(ctx context.Context, mark *model.Mark) error {
	return r.db.WithContext(ctx).Save(mark).Error
}

func (r *markRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("mark_id = ?", id).Delete(&model.Mark{}).Error
}
