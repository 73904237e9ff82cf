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

// MarkService manages assessment results. Every mark belongs to one of the
// caller's catalog subjects; progress is derived from the stored marks.
type MarkService interface {
	Create(ctx context.Context, req *dto.CreateMarkRequest, caller string) (*dto.MarkResponse, error)
	GetByID(ctx context.Context, id, caller string) (*dto.MarkResponse, error)
	List(ctx context.Context, caller string, query *dto.MarkListQuery) ([]dto.MarkResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateMarkRequest, caller string) (*dto.MarkResponse, error)
	Delete(ctx context.Context, id, caller string) error

	// Progress returns averages, grades and the pass/fail tally, with the
	// recent newest marks. recent <= 0 uses the default of 5.
	Progress(ctx context.Context, caller string, recent int) (*dto.ProgressResponse, error)
}

type markService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMarkService creates a MarkService.
func NewMarkService(repo *repository.Repository, logger *zap.Logger) MarkService {
	return &markService{repo: repo, logger: logger}
}

func (s *markService) Create(ctx context.Context, req *dto.CreateMarkRequest, caller string) (*dto.MarkResponse, error) {
	subject, err := loadSubject(ctx, s.repo, req.SubjectID, caller)
	if err != nil {
		return nil, err
	}

	total := req.TotalMarks
	pass := subject.PassMarks
	if total == 0 {
		total = subject.TotalMarks
	} else if req.PassMarks == nil {
		pass = defaultPassMarks(total)
	}
	if req.PassMarks != nil {
		pass = *req.PassMarks
	}

	mark, err := NormalizeMark(model.Mark{
		Username:       caller,
		SubjectID:      subject.SubjectID,
		ObtainedMarks:  req.ObtainedMarks,
		TotalMarks:     total,
		PassMarks:      pass,
		AssessmentType: req.AssessmentType,
		AssessmentDate: req.AssessmentDate,
		Remarks:        req.Remarks,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Mark.Create(ctx, &mark); err != nil {
		s.logger.Error("create mark failed", zap.Error(err))
		return nil, fmt.Errorf("create mark: %w", err)
	}
	s.logger.Info("mark recorded",
		zap.String("mark_id", mark.MarkID),
		zap.String("subject_id", subject.SubjectID),
		zap.String("username", caller))

	resp := ToMarkResponse(&mark, subject.Name)
	return &resp, nil
}

func (s *markService) GetByID(ctx context.Context, id, caller string) (*dto.MarkResponse, error) {
	mark, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	resp := ToMarkResponse(mark, s.subjectName(ctx, mark.SubjectID))
	return &resp, nil
}

func (s *markService) List(ctx context.Context, caller string, query *dto.MarkListQuery) ([]dto.MarkResponse, error) {
	filter := repository.MarkFilter{Username: caller}
	if query != nil {
		filter.SubjectID = strings.TrimSpace(query.SubjectID)
		filter.AssessmentType = strings.TrimSpace(query.AssessmentType)
	}
	if filter.SubjectID != "" && !validID(filter.SubjectID) {
		return nil, ErrSubjectNotFound
	}

	marks, err := s.repo.Mark.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	names, err := s.subjectNames(ctx, caller)
	if err != nil {
		return nil, err
	}

	result := make([]dto.MarkResponse, 0, len(marks))
	for i := range marks {
		result = append(result, ToMarkResponse(&marks[i], names[marks[i].SubjectID]))
	}
	return result, nil
}

func (s *markService) Update(ctx context.Context, id string, req *dto.UpdateMarkRequest, caller string) (*dto.MarkResponse, error) {
	existing, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if req.SubjectID != nil && *req.SubjectID != existing.SubjectID {
		subject, err := loadSubject(ctx, s.repo, *req.SubjectID, caller)
		if err != nil {
			return nil, err
		}
		merged.SubjectID = subject.SubjectID
	}
	if req.ObtainedMarks != nil {
		merged.ObtainedMarks = *req.ObtainedMarks
	}
	if req.TotalMarks != nil {
		merged.TotalMarks = *req.TotalMarks
	}
	if req.PassMarks != nil {
		merged.PassMarks = *req.PassMarks
	}
	if req.AssessmentType != nil {
		merged.AssessmentType = *req.AssessmentType
	}
	if req.AssessmentDate != nil {
		merged.AssessmentDate = *req.AssessmentDate
	}
	if req.Remarks != nil {
		merged.Remarks = *req.Remarks
	}

	mark, err := NormalizeMark(merged)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Mark.Update(ctx, &mark); err != nil {
		s.logger.Error("update mark failed", zap.String("mark_id", id), zap.Error(err))
		return nil, fmt.Errorf("update mark: %w", err)
	}
	s.logger.Info("mark updated", zap.String("mark_id", id))

	resp := ToMarkResponse(&mark, s.subjectName(ctx, mark.SubjectID))
	return &resp, nil
}

func (s *markService) Delete(ctx context.Context, id, caller string) error {
	if _, err := s.load(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Mark.Delete(ctx, id); err != nil {
		s.logger.Error("delete mark failed", zap.String("mark_id", id), zap.Error(err))
		return fmt.Errorf("delete mark: %w", err)
	}
	s.logger.Info("mark deleted", zap.String("mark_id", id))
	return nil
}

func (s *markService) Progress(ctx context.Context, caller string, recent int) (*dto.ProgressResponse, error) {
	if recent <= 0 {
		recent = defaultRecentMarks
	}
	marks, err := s.repo.Mark.List(ctx, repository.MarkFilter{Username: caller})
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	catalog, err := s.repo.Subject.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	progress := SummarizeMarks(marks, catalog, recent)
	return &progress, nil
}

// ── helpers ──

func (s *markService) load(ctx context.Context, id, caller string) (*model.Mark, error) {
	if !validID(id) {
		return nil, ErrMarkNotFound
	}
	mark, err := s.repo.Mark.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMarkNotFound
		}
		return nil, fmt.Errorf("get mark: %w", err)
	}
	if mark.Username != caller {
		return nil, ErrMarkNotFound
	}
	return mark, nil
}

// subjectName is best effort; the name only decorates the response.
func (s *markService) subjectName(ctx context.Context, subjectID string) string {
	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		return ""
	}
	return subject.Name
}

func (s *markService) subjectNames(ctx context.Context, caller string) (map[string]string, error) {
	subjects, err := s.repo.Subject.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	names := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		names[subject.SubjectID] = subject.Name
	}
	return names, nil
}

// ToMarkResponse converts a stored mark to its API form.
func ToMarkResponse(m *model.Mark, subjectName string) dto.MarkResponse {
	more := m.PassMarks - m.ObtainedMarks
	if more < 0 {
		more = 0
	}
	resp := dto.MarkResponse{
		ID:              m.MarkID,
		SubjectID:       m.SubjectID,
		SubjectName:     subjectName,
		ObtainedMarks:   m.ObtainedMarks,
		TotalMarks:      m.TotalMarks,
		PassMarks:       m.PassMarks,
		Percentage:      round2(m.Percentage()),
		Passed:          m.Passed(),
		MoreMarksNeeded: more,
		AssessmentType:  m.AssessmentType,
		AssessmentDate:  m.AssessmentDate,
		Remarks:         m.Remarks,
	}
	if !m.CreatedAt.IsZero() {
		resp.CreatedAt = m.CreatedAt.Format(time.RFC3339)
	}
	if !m.UpdatedAt.IsZero() {
		resp.UpdatedAt = m.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
