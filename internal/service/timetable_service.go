package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
)

// ── TimetableService ───────────────────────────────────────
//
// Every write runs NormalizeScheduleEntry and then the duplicate check
// against the owner's entries before anything reaches storage. The
// partial unique indexes on schedule_entries catch the concurrent case;
// gorm reports those as ErrDuplicatedKey.
//
// Entries are scoped to their owner: an id that belongs to another user
// reads as not found, and a request may not name another user as owner.
//
// Reads that depend on "today" use the configured timezone.
// ─────────────────────────────────────────────────────────────

// TimetableService manages schedule entries.
type TimetableService interface {
	Create(ctx context.Context, req *dto.CreateScheduleEntryRequest, caller string) (*dto.ScheduleEntryResponse, error)
	GetByID(ctx context.Context, id, caller string) (*dto.ScheduleEntryResponse, error)
	List(ctx context.Context, username string, query *dto.ScheduleEntryListQuery) ([]dto.ScheduleEntryResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleEntryRequest, caller string) (*dto.ScheduleEntryResponse, error)
	Delete(ctx context.Context, id, caller string) error

	// ListByDay returns the regular entries on a weekday.
	ListByDay(ctx context.Context, username, day string) ([]dto.ScheduleEntryResponse, error)
	// ListSpecial returns special entries, optionally only today or later.
	ListSpecial(ctx context.Context, username string, upcomingOnly bool) ([]dto.ScheduleEntryResponse, error)
	ActiveOn(ctx context.Context, username, date string) ([]dto.ScheduleEntryResponse, error)
	ActiveBetween(ctx context.Context, username, start, end string) ([]dto.ScheduleEntryResponse, error)
	Today(ctx context.Context, username string) ([]dto.ScheduleEntryResponse, error)
	// Week covers today and the seven days after it.
	Week(ctx context.Context, username string) ([]dto.ScheduleEntryResponse, error)
	HasClassOn(ctx context.Context, username, date string) (bool, error)
	// Upcoming returns today's entries starting within window from now.
	Upcoming(ctx context.Context, username string, window time.Duration) ([]dto.ScheduleEntryResponse, error)
}

type timetableService struct {
	repo      *repository.Repository
	reminders ReminderService
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewTimetableService creates a TimetableService.
func NewTimetableService(repo *repository.Repository, reminders ReminderService, loc *time.Location, logger *zap.Logger) TimetableService {
	if loc == nil {
		loc = time.Local
	}
	return &timetableService{
		repo:      repo,
		reminders: reminders,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *timetableService) Create(ctx context.Context, req *dto.CreateScheduleEntryRequest, caller string) (*dto.ScheduleEntryResponse, error) {
	candidate, err := entryFromCreateRequest(req, caller)
	if err != nil {
		return nil, err
	}

	entry, err := s.save(ctx, candidate, true)
	if err != nil {
		return nil, err
	}

	s.schedule(ctx, entry)
	s.logger.Info("schedule entry created",
		zap.String("entry_id", entry.ScheduleEntryID),
		zap.String("username", entry.Username))

	resp := ToScheduleEntryResponse(entry)
	return &resp, nil
}

func (s *timetableService) GetByID(ctx context.Context, id, caller string) (*dto.ScheduleEntryResponse, error) {
	entry, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	resp := ToScheduleEntryResponse(entry)
	return &resp, nil
}

func (s *timetableService) List(ctx context.Context, username string, query *dto.ScheduleEntryListQuery) ([]dto.ScheduleEntryResponse, error) {
	filter := repository.ScheduleEntryFilter{Username: username}
	if query != nil {
		filter.Subject = strings.TrimSpace(query.Subject)
		filter.Location = strings.TrimSpace(query.Location)
		filter.Lecturer = strings.TrimSpace(query.Lecturer)
		switch query.Type {
		case "special":
			filter.Special = boolPtr(true)
		case "regular":
			filter.Special = boolPtr(false)
		}
	}

	entries, err := s.repo.ScheduleEntry.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return toResponses(entries), nil
}

// ════════════════════════════════════════════════════════════
// Update
// ════════════════════════════════════════════════════════════
//
// The request is merged over the stored entry and the merged value goes
// through the full create pipeline. A blank username keeps the stored
// owner; a title that tracked the subject follows a subject change.

func (s *timetableService) Update(ctx context.Context, id string, req *dto.UpdateScheduleEntryRequest, caller string) (*dto.ScheduleEntryResponse, error) {
	existing, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if req.Username != nil && !ownedBy(*req.Username, caller) {
		return nil, ErrForeignOwner
	}

	merged, err := mergeUpdate(existing, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(merged.Username) == "" {
		merged.Username = existing.Username
	}

	entry, err := s.save(ctx, merged, false)
	if err != nil {
		return nil, err
	}

	if s.reminders != nil {
		if err := s.reminders.Cancel(ctx, existing); err != nil {
			s.logger.Warn("cancel reminder failed", zap.String("entry_id", id), zap.Error(err))
		}
	}
	s.schedule(ctx, entry)
	s.logger.Info("schedule entry updated", zap.String("entry_id", id))

	resp := ToScheduleEntryResponse(entry)
	return &resp, nil
}

func (s *timetableService) Delete(ctx context.Context, id, caller string) error {
	existing, err := s.load(ctx, id, caller)
	if err != nil {
		return err
	}
	if err := s.repo.ScheduleEntry.Delete(ctx, id); err != nil {
		s.logger.Error("delete schedule entry failed", zap.String("entry_id", id), zap.Error(err))
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	if s.reminders != nil {
		if err := s.reminders.Cancel(ctx, existing); err != nil {
			s.logger.Warn("cancel reminder failed", zap.String("entry_id", id), zap.Error(err))
		}
	}
	s.logger.Info("schedule entry deleted", zap.String("entry_id", id))
	return nil
}

// ════════════════════════════════════════════════════════════
// Calendar reads
// ════════════════════════════════════════════════════════════

func (s *timetableService) ListByDay(ctx context.Context, username, day string) ([]dto.ScheduleEntryResponse, error) {
	weekday, ok := model.ParseWeekday(day)
	if !ok {
		return nil, ErrInvalidDay
	}
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{
		Username: username,
		Special:  boolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}

	name := model.WeekdayName(weekday)
	result := make([]model.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.DayValue(), name) {
			result = append(result, e)
		}
	}
	return toResponses(result), nil
}

func (s *timetableService) ListSpecial(ctx context.Context, username string, upcomingOnly bool) ([]dto.ScheduleEntryResponse, error) {
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{
		Username: username,
		Special:  boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}

	today := s.today()
	result := make([]model.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		// YYYY-MM-DD compares chronologically as a string
		if upcomingOnly && e.SpecialDateValue() < today {
			continue
		}
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SpecialDateValue() < result[j].SpecialDateValue()
	})
	return toResponses(result), nil
}

func (s *timetableService) ActiveOn(ctx context.Context, username, date string) ([]dto.ScheduleEntryResponse, error) {
	entries, err := s.ownerEntries(ctx, username)
	if err != nil {
		return nil, err
	}
	active, err := ActiveOn(date, entries)
	if err != nil {
		return nil, err
	}
	return toResponses(active), nil
}

func (s *timetableService) ActiveBetween(ctx context.Context, username, start, end string) ([]dto.ScheduleEntryResponse, error) {
	entries, err := s.ownerEntries(ctx, username)
	if err != nil {
		return nil, err
	}
	active, err := ActiveBetween(start, end, entries)
	if err != nil {
		return nil, err
	}
	return toResponses(active), nil
}

func (s *timetableService) Today(ctx context.Context, username string) ([]dto.ScheduleEntryResponse, error) {
	return s.ActiveOn(ctx, username, s.today())
}

func (s *timetableService) Week(ctx context.Context, username string) ([]dto.ScheduleEntryResponse, error) {
	now := s.now().In(s.loc)
	return s.ActiveBetween(ctx, username, now.Format(model.DateLayout), dateOffset(now, 7))
}

func (s *timetableService) HasClassOn(ctx context.Context, username, date string) (bool, error) {
	entries, err := s.ownerEntries(ctx, username)
	if err != nil {
		return false, err
	}
	active, err := ActiveOn(date, entries)
	if err != nil {
		return false, err
	}
	return len(active) > 0, nil
}

func (s *timetableService) Upcoming(ctx context.Context, username string, window time.Duration) ([]dto.ScheduleEntryResponse, error) {
	entries, err := s.ownerEntries(ctx, username)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := now.Format(model.DateLayout)
	from, to := reminderWindow(now, window)

	result := make([]model.ScheduleEntry, 0)
	for _, e := range UpcomingBetween(from, to, today, entries) {
		if e.IsActiveOnDate(today) {
			result = append(result, e)
		}
	}
	return toResponses(result), nil
}

// ── helpers ──

// save validates candidate, checks it against the owner's entries and
// persists it.
func (s *timetableService) save(ctx context.Context, candidate model.ScheduleEntry, create bool) (*model.ScheduleEntry, error) {
	entry, err := NormalizeScheduleEntry(candidate)
	if err != nil {
		return nil, err
	}

	existing, err := s.ownerEntries(ctx, entry.Username)
	if err != nil {
		return nil, err
	}
	if ScheduleEntryConflicts(entry, existing) {
		return nil, ErrDuplicateSchedule
	}

	if create {
		err = s.repo.ScheduleEntry.Create(ctx, &entry)
	} else {
		err = s.repo.ScheduleEntry.Update(ctx, &entry)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSchedule
		}
		s.logger.Error("save schedule entry failed", zap.Error(err))
		return nil, fmt.Errorf("save schedule entry: %w", err)
	}
	return &entry, nil
}

// load returns the caller's entry with the given id. Malformed ids and
// entries owned by someone else are reported as not found.
func (s *timetableService) load(ctx context.Context, id, caller string) (*model.ScheduleEntry, error) {
	if !validID(id) {
		return nil, ErrScheduleEntryNotFound
	}
	entry, err := s.repo.ScheduleEntry.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleEntryNotFound
		}
		return nil, fmt.Errorf("get schedule entry: %w", err)
	}
	if entry.Username != caller {
		return nil, ErrScheduleEntryNotFound
	}
	return entry, nil
}

// validID reports whether id is a well-formed UUID; other ids cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ownedBy reports whether a requested owner is blank or the caller.
func ownedBy(username, caller string) bool {
	username = strings.TrimSpace(username)
	return username == "" || caller == "" || username == caller
}

func (s *timetableService) ownerEntries(ctx context.Context, username string) ([]model.ScheduleEntry, error) {
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{Username: username})
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

func (s *timetableService) schedule(ctx context.Context, entry *model.ScheduleEntry) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.Schedule(ctx, entry); err != nil {
		s.logger.Warn("schedule reminder failed", zap.String("entry_id", entry.ScheduleEntryID), zap.Error(err))
	}
}

func (s *timetableService) today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

func entryFromCreateRequest(req *dto.CreateScheduleEntryRequest, caller string) (model.ScheduleEntry, error) {
	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		return model.ScheduleEntry{}, err
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		return model.ScheduleEntry{}, err
	}

	if !ownedBy(req.Username, caller) {
		return model.ScheduleEntry{}, ErrForeignOwner
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = caller
	}
	isWeekly := !req.IsSpecialSchedule
	if req.IsWeekly != nil {
		isWeekly = *req.IsWeekly
	}

	return model.ScheduleEntry{
		Subject:                req.Subject,
		Title:                  req.Title,
		Location:               req.Location,
		Lecturer:               req.Lecturer,
		Description:            req.Description,
		IsSpecialSchedule:      req.IsSpecialSchedule,
		Day:                    optionalString(req.Day),
		SpecialDate:            optionalString(req.SpecialDate),
		StartTime:              start,
		EndTime:                end,
		IsWeekly:               isWeekly,
		NotificationPreference: req.NotificationPreference,
		Username:               username,
		DeviceToken:            req.DeviceToken,
	}, nil
}

func mergeUpdate(existing *model.ScheduleEntry, req *dto.UpdateScheduleEntryRequest) (model.ScheduleEntry, error) {
	merged := *existing

	if req.Subject != nil {
		if req.Title == nil && existing.Title == existing.Subject {
			merged.Title = ""
		}
		merged.Subject = *req.Subject
	}
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Location != nil {
		merged.Location = *req.Location
	}
	if req.Lecturer != nil {
		merged.Lecturer = *req.Lecturer
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.IsSpecialSchedule != nil {
		merged.IsSpecialSchedule = *req.IsSpecialSchedule
		if req.IsWeekly == nil {
			merged.IsWeekly = !merged.IsSpecialSchedule
		}
	}
	if req.Day != nil {
		merged.Day = optionalString(*req.Day)
	}
	if req.SpecialDate != nil {
		merged.SpecialDate = optionalString(*req.SpecialDate)
	}
	if req.StartTime != nil {
		t, err := parseOptionalTime(*req.StartTime)
		if err != nil {
			return model.ScheduleEntry{}, err
		}
		merged.StartTime = t
	}
	if req.EndTime != nil {
		t, err := parseOptionalTime(*req.EndTime)
		if err != nil {
			return model.ScheduleEntry{}, err
		}
		merged.EndTime = t
	}
	if req.IsWeekly != nil {
		merged.IsWeekly = *req.IsWeekly
	}
	if req.NotificationPreference != nil {
		merged.NotificationPreference = *req.NotificationPreference
	}
	if req.Username != nil {
		merged.Username = *req.Username
	}
	if req.DeviceToken != nil {
		merged.DeviceToken = *req.DeviceToken
	}
	return merged, nil
}

// parseOptionalTime returns nil for a blank value.
func parseOptionalTime(s string) (*model.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return nil, ErrInvalidTime
	}
	return &t, nil
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool { return &b }

// ToScheduleEntryResponse converts a stored entry to its API form.
func ToScheduleEntryResponse(e *model.ScheduleEntry) dto.ScheduleEntryResponse {
	resp := dto.ScheduleEntryResponse{
		ID:                     e.ScheduleEntryID,
		Subject:                e.Subject,
		Title:                  e.Title,
		Location:               e.Location,
		Lecturer:               e.Lecturer,
		Description:            e.Description,
		IsSpecialSchedule:      e.IsSpecialSchedule,
		Day:                    e.DayValue(),
		SpecialDate:            e.SpecialDateValue(),
		IsWeekly:               e.IsWeekly,
		NotificationPreference: e.NotificationPreference,
		Username:               e.Username,
		DisplayDate:            e.DisplayDate,
		FormattedTimeRange:     e.FormattedTimeRange(),
		EffectiveDate:          e.EffectiveDate(),
	}
	if e.StartTime != nil {
		resp.StartTime = e.StartTime.String()
	}
	if e.EndTime != nil {
		resp.EndTime = e.EndTime.String()
	}
	if !e.CreatedAt.IsZero() {
		resp.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	if !e.UpdatedAt.IsZero() {
		resp.UpdatedAt = e.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func toResponses(entries []model.ScheduleEntry) []dto.ScheduleEntryResponse {
	result := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, ToScheduleEntryResponse(&entries[i]))
	}
	return result
}
