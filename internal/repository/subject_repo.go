package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// SubjectRepository stores the per-user subject catalog.
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	// GetByName and GetByCode match case-insensitively within one owner.
	GetByName(ctx context.Context, username, name string) (*model.Subject, error)
	GetByCode(ctx context.Context, username, code string) (*model.Subject, error)
	List(ctx context.Context, username string) ([]model.Subject, error)
	Update(ctx context.Context, subject *model.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo creates a SubjectRepository.
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).Where("subject_id = ?", id).First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetByName(ctx context.Context, username, name string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("username = ? AND LOWER(name) = LOWER(?)", username, name).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetByCode(ctx context.Context, username, code string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("username = ? AND LOWER(code) = LOWER(?)", username, code).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context, username string) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("LOWER(name) ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) Update(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("subject_id = ?", id).Delete(&model.Subject{}).Error
}
