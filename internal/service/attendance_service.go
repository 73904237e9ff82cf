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

// ── AttendanceService ──────────────────────────────────────
//
// Records are free-standing: the subject is a name, matched against the
// catalog and the timetable case-insensitively. Summary and eligibility are
// computed from the records on every read, so they never drift from them.
// ─────────────────────────────────────────────────────────────

// AttendanceService manages attended sessions.
type AttendanceService interface {
	Create(ctx context.Context, req *dto.CreateAttendanceRequest, caller string) (*dto.AttendanceResponse, error)
	GetByID(ctx context.Context, id, caller string) (*dto.AttendanceResponse, error)
	List(ctx context.Context, caller string, query *dto.AttendanceListQuery) ([]dto.AttendanceResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, caller string) (*dto.AttendanceResponse, error)
	Delete(ctx context.Context, id, caller string) error

	// Summary returns the standing of every subject with records or a catalog entry.
	Summary(ctx context.Context, caller string) (*dto.AttendanceSummaryResponse, error)
	// Eligibility returns the standing of one subject.
	Eligibility(ctx context.Context, caller, subject string) (*dto.SubjectAttendance, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAttendanceService creates an AttendanceService.
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger}
}

func (s *attendanceService) Create(ctx context.Context, req *dto.CreateAttendanceRequest, caller string) (*dto.AttendanceResponse, error) {
	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		return nil, err
	}

	record, err := NormalizeAttendance(model.AttendanceRecord{
		Username:       caller,
		Subject:        req.Subject,
		AttendanceDate: req.AttendanceDate,
		StartTime:      start,
		EndTime:        end,
		AttendedHours:  req.AttendedHours,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Attendance.Create(ctx, &record); err != nil {
		s.logger.Error("create attendance record failed", zap.Error(err))
		return nil, fmt.Errorf("create attendance record: %w", err)
	}
	s.logger.Info("attendance recorded",
		zap.String("attendance_id", record.AttendanceID),
		zap.String("username", caller),
		zap.Float64("hours", record.AttendedHours))

	resp := ToAttendanceResponse(&record)
	return &resp, nil
}

func (s *attendanceService) GetByID(ctx context.Context, id, caller string) (*dto.AttendanceResponse, error) {
	record, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	resp := ToAttendanceResponse(record)
	return &resp, nil
}

func (s *attendanceService) List(ctx context.Context, caller string, query *dto.AttendanceListQuery) ([]dto.AttendanceResponse, error) {
	filter := repository.AttendanceFilter{Username: caller}
	if query != nil {
		filter.Subject = strings.TrimSpace(query.Subject)
		filter.From = strings.TrimSpace(query.From)
		filter.To = strings.TrimSpace(query.To)
	}
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := model.ParseDate(d); err != nil {
			return nil, ErrInvalidDate
		}
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return nil, ErrInvalidDateRange
	}

	records, err := s.repo.Attendance.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, ToAttendanceResponse(&records[i]))
	}
	return result, nil
}

func (s *attendanceService) Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, caller string) (*dto.AttendanceResponse, error) {
	existing, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if req.Subject != nil {
		merged.Subject = *req.Subject
	}
	if req.AttendanceDate != nil {
		merged.AttendanceDate = *req.AttendanceDate
	}
	timesChanged := false
	if req.StartTime != nil {
		if merged.StartTime, err = parseOptionalTime(*req.StartTime); err != nil {
			return nil, err
		}
		timesChanged = true
	}
	if req.EndTime != nil {
		if merged.EndTime, err = parseOptionalTime(*req.EndTime); err != nil {
			return nil, err
		}
		timesChanged = true
	}
	switch {
	case req.AttendedHours != nil:
		merged.AttendedHours = *req.AttendedHours
	case timesChanged:
		merged.AttendedHours = 0
	}

	record, err := NormalizeAttendance(merged)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Attendance.Update(ctx, &record); err != nil {
		s.logger.Error("update attendance record failed", zap.String("attendance_id", id), zap.Error(err))
		return nil, fmt.Errorf("update attendance record: %w", err)
	}
	s.logger.Info("attendance record updated", zap.String("attendance_id", id))

	resp := ToAttendanceResponse(&record)
	return &resp, nil
}

func (s *attendanceService) Delete(ctx context.Context, id, caller string) error {
	if _, err := s.load(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Attendance.Delete(ctx, id); err != nil {
		s.logger.Error("delete attendance record failed", zap.String("attendance_id", id), zap.Error(err))
		return fmt.Errorf("delete attendance record: %w", err)
	}
	s.logger.Info("attendance record deleted", zap.String("attendance_id", id))
	return nil
}

// ════════════════════════════════════════════════════════════
// Standing
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Summary(ctx context.Context, caller string) (*dto.AttendanceSummaryResponse, error) {
	records, err := s.repo.Attendance.List(ctx, repository.AttendanceFilter{Username: caller})
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	catalog, err := s.repo.Subject.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	summary := SummarizeAttendance(records, catalog)
	return &summary, nil
}

func (s *attendanceService) Eligibility(ctx context.Context, caller, subject string) (*dto.SubjectAttendance, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrMissingSubject
	}

	records, err := s.repo.Attendance.List(ctx, repository.AttendanceFilter{Username: caller, Subject: subject})
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}

	var catalog *model.Subject
	found, err := s.repo.Subject.GetByName(ctx, caller, subject)
	switch {
	case err == nil:
		catalog = found
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("get subject: %w", err)
	}

	standing := SubjectAttendanceOf(subject, records, catalog)
	return &standing, nil
}

// ── helpers ──

func (s *attendanceService) load(ctx context.Context, id, caller string) (*model.AttendanceRecord, error) {
	if !validID(id) {
		return nil, ErrAttendanceNotFound
	}
	record, err := s.repo.Attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	if record.Username != caller {
		return nil, ErrAttendanceNotFound
	}
	return record, nil
}

// ToAttendanceResponse converts a stored record to its API form.
func ToAttendanceResponse(a *model.AttendanceRecord) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		ID:             a.AttendanceID,
		Subject:        a.Subject,
		AttendanceDate: a.AttendanceDate,
		AttendedHours:  a.AttendedHours,
	}
	if a.StartTime != nil {
		resp.StartTime = a.StartTime.String()
	}
	if a.EndTime != nil {
		resp.EndTime = a.EndTime.String()
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
