package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
)

// SubjectService manages the caller's subject catalog. Names and codes are
// unique per owner, case-insensitively. Deleting a subject deletes its marks.
type SubjectService interface {
	Create(ctx context.Context, req *dto.CreateSubjectRequest, caller string) (*dto.SubjectResponse, error)
	GetByID(ctx context.Context, id, caller string) (*dto.SubjectResponse, error)
	GetByCode(ctx context.Context, code, caller string) (*dto.SubjectResponse, error)
	List(ctx context.Context, caller string) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, caller string) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, id, caller string) error
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService creates a SubjectService.
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

// ── Create ──

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, caller string) (*dto.SubjectResponse, error) {
	total := req.TotalMarks
	if total == 0 {
		total = defaultTotalMarks
	}
	pass := defaultPassMarks(total)
	if req.PassMarks != nil {
		pass = *req.PassMarks
	}
	minPercent := 0.0
	if req.MinAttendancePercent != nil {
		minPercent = *req.MinAttendancePercent
	}

	subject, err := s.save(ctx, model.Subject{
		Username:             caller,
		Name:                 req.Name,
		Code:                 req.Code,
		Description:          req.Description,
		TotalMarks:           total,
		PassMarks:            pass,
		ScheduledHours:       req.ScheduledHours,
		MinAttendancePercent: minPercent,
	}, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subject created",
		zap.String("subject_id", subject.SubjectID),
		zap.String("username", caller))
	resp := ToSubjectResponse(subject)
	return &resp, nil
}

// ── Reads ──

func (s *subjectService) GetByID(ctx context.Context, id, caller string) (*dto.SubjectResponse, error) {
	subject, err := loadSubject(ctx, s.repo, id, caller)
	if err != nil {
		return nil, err
	}
	resp := ToSubjectResponse(subject)
	return &resp, nil
}

func (s *subjectService) GetByCode(ctx context.Context, code, caller string) (*dto.SubjectResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrSubjectNotFound
	}
	subject, err := s.repo.Subject.GetByCode(ctx, caller, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject by code: %w", err)
	}
	resp := ToSubjectResponse(subject)
	return &resp, nil
}

func (s *subjectService) List(ctx context.Context, caller string) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, ToSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// ── Update ──

func (s *subjectService) Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, caller string) (*dto.SubjectResponse, error) {
	existing, err := loadSubject(ctx, s.repo, id, caller)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Code != nil {
		merged.Code = *req.Code
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.TotalMarks != nil {
		merged.TotalMarks = *req.TotalMarks
	}
	if req.PassMarks != nil {
		merged.PassMarks = *req.PassMarks
	}
	if req.ScheduledHours != nil {
		merged.ScheduledHours = *req.ScheduledHours
	}
	if req.MinAttendancePercent != nil {
		merged.MinAttendancePercent = *req.MinAttendancePercent
	}

	subject, err := s.save(ctx, merged, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subject updated", zap.String("subject_id", id))
	resp := ToSubjectResponse(subject)
	return &resp, nil
}

// ── Delete ──

func (s *subjectService) Delete(ctx context.Context, id, caller string) error {
	if _, err := loadSubject(ctx, s.repo, id, caller); err != nil {
		return err
	}
	if err := s.repo.Subject.Delete(ctx, id); err != nil {
		s.logger.Error("delete subject failed", zap.String("subject_id", id), zap.Error(err))
		return fmt.Errorf("delete subject: %w", err)
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

// ── helpers ──

// save validates candidate, checks name and code against the owner's other
// subjects and persists it.
func (s *subjectService) save(ctx context.Context, candidate model.Subject, create bool) (*model.Subject, error) {
	subject, err := NormalizeSubject(candidate)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, &subject); err != nil {
		return nil, err
	}

	if create {
		err = s.repo.Subject.Create(ctx, &subject)
	} else {
		err = s.repo.Subject.Update(ctx, &subject)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSubject
		}
		s.logger.Error("save subject failed", zap.Error(err))
		return nil, fmt.Errorf("save subject: %w", err)
	}
	return &subject, nil
}

func (s *subjectService) checkUnique(ctx context.Context, subject *model.Subject) error {
	clash := func(found *model.Subject, err error) error {
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("check subject: %w", err)
		}
		if found.SubjectID != subject.SubjectID {
			return ErrDuplicateSubject
		}
		return nil
	}

	if err := clash(s.repo.Subject.GetByName(ctx, subject.Username, subject.Name)); err != nil {
		return err
	}
	if subject.Code == "" {
		return nil
	}
	return clash(s.repo.Subject.GetByCode(ctx, subject.Username, subject.Code))
}

// loadSubject returns the caller's subject with the given id. Malformed ids
// and subjects owned by someone else are reported as not found.
func loadSubject(ctx context.Context, repo *repository.Repository, id, caller string) (*model.Subject, error) {
	if !validID(id) {
		return nil, ErrSubjectNotFound
	}
	subject, err := repo.Subject.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	if subject.Username != caller {
		return nil, ErrSubjectNotFound
	}
	return subject, nil
}

// ToSubjectResponse converts a stored subject to its API form.
func ToSubjectResponse(s *model.Subject) dto.SubjectResponse {
	resp := dto.SubjectResponse{
		ID:                   s.SubjectID,
		Name:                 s.Name,
		Code:                 s.Code,
		Description:          s.Description,
		TotalMarks:           s.TotalMarks,
		PassMarks:            s.PassMarks,
		ScheduledHours:       s.ScheduledHours,
		MinAttendancePercent: s.MinAttendancePercent,
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
