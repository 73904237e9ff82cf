package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
	"github.com/Kopuraj/SEM-Tracker/pkg/redis"
)

// ReminderStatus tracks one entry's reminder.
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "SCHEDULED"
	ReminderSent      ReminderStatus = "SENT"
)

// Delivery channels passed to a Sender.
const (
	ChannelEmail = "EMAIL"
	ChannelPush  = "PUSH"
)

var ErrReminderAlreadyRunning = errors.New("reminder dispatcher is already running")

// ── Status store ──

// ReminderStatusStore is the keyed status table owned by the dispatcher.
// Get returns "" for an unknown entry.
type ReminderStatusStore interface {
	Set(ctx context.Context, entryID string, status ReminderStatus) error
	Get(ctx context.Context, entryID string) (ReminderStatus, error)
	Delete(ctx context.Context, entryID string) error
}

type memoryStatusStore struct {
	mu       sync.Mutex
	statuses map[string]ReminderStatus
}

// NewMemoryStatusStore returns a process-local store. Statuses are lost on restart.
func NewMemoryStatusStore() ReminderStatusStore {
	return &memoryStatusStore{statuses: make(map[string]ReminderStatus)}
}

func (m *memoryStatusStore) Set(_ context.Context, entryID string, status ReminderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[entryID] = status
	return nil
}

func (m *memoryStatusStore) Get(_ context.Context, entryID string) (ReminderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[entryID], nil
}

func (m *memoryStatusStore) Delete(_ context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, entryID)
	return nil
}

type redisStatusStore struct {
	client  *redis.Client
	sentTTL time.Duration
}

// NewRedisStatusStore keeps statuses in Redis. SENT statuses expire after
// sentTTL; SCHEDULED ones never expire.
func NewRedisStatusStore(client *redis.Client, sentTTL time.Duration) ReminderStatusStore {
	return &redisStatusStore{client: client, sentTTL: sentTTL}
}

func (r *redisStatusStore) Set(ctx context.Context, entryID string, status ReminderStatus) error {
	var ttl time.Duration
	if status == ReminderSent {
		ttl = r.sentTTL
	}
	return r.client.SetReminderStatus(ctx, entryID, string(status), ttl)
}

func (r *redisStatusStore) Get(ctx context.Context, entryID string) (ReminderStatus, error) {
	status, err := r.client.GetReminderStatus(ctx, entryID)
	return ReminderStatus(status), err
}

func (r *redisStatusStore) Delete(ctx context.Context, entryID string) error {
	return r.client.DeleteReminderStatus(ctx, entryID)
}

// ── Sender ──

// Sender delivers a reminder over one channel.
type Sender interface {
	Send(ctx context.Context, channel string, entry model.ScheduleEntry, message string) error
}

// LogSender writes reminders to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, channel string, entry model.ScheduleEntry, message string) error {
	fields := []zap.Field{
		zap.String("channel", channel),
		zap.String("entry_id", entry.ScheduleEntryID),
		zap.String("username", entry.Username),
		zap.String("message", message),
	}
	if channel == ChannelPush {
		fields = append(fields, zap.Bool("has_device_token", entry.DeviceToken != ""))
	}
	s.logger.Info("reminder", fields...)
	return nil
}

// ── ReminderService ────────────────────────────────────────
//
// Schedule/Cancel are invoked by the timetable service on every
// create, update and delete. CheckDue is the periodic poll: it selects
// entries starting within the lead time and sends each SCHEDULED one
// exactly once, then marks it SENT.
// ─────────────────────────────────────────────────────────────

// ReminderService dispatches class reminders.
type ReminderService interface {
	Schedule(ctx context.Context, entry *model.ScheduleEntry) error
	Cancel(ctx context.Context, entry *model.ScheduleEntry) error
	Status(ctx context.Context, entryID string) (ReminderStatus, error)
	// CheckDue sends reminders due at now and returns how many were sent.
	CheckDue(ctx context.Context, now time.Time) (int, error)
	Start(ctx context.Context) error
	Stop()
}

type reminderService struct {
	repo   *repository.Repository
	store  ReminderStatusStore
	sender Sender
	cfg    config.ReminderConfig
	loc    *time.Location
	logger *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewReminderService creates a ReminderService.
func NewReminderService(
	cfg config.ReminderConfig,
	repo *repository.Repository,
	store ReminderStatusStore,
	sender Sender,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		repo:   repo,
		store:  store,
		sender: sender,
		cfg:    cfg,
		loc:    cfg.Location(),
		logger: logger,
	}
}

func (s *reminderService) Schedule(ctx context.Context, entry *model.ScheduleEntry) error {
	if entry == nil || entry.ScheduleEntryID == "" {
		return nil
	}
	if !entry.IsNotificationEnabled() {
		return s.store.Delete(ctx, entry.ScheduleEntryID)
	}
	if err := s.store.Set(ctx, entry.ScheduleEntryID, ReminderScheduled); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	s.logger.Debug("reminder scheduled",
		zap.String("entry_id", entry.ScheduleEntryID),
		zap.String("preference", entry.NotificationPreference))
	return nil
}

func (s *reminderService) Cancel(ctx context.Context, entry *model.ScheduleEntry) error {
	if entry == nil || entry.ScheduleEntryID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, entry.ScheduleEntryID); err != nil {
		return fmt.Errorf("cancel reminder: %w", err)
	}
	return nil
}

func (s *reminderService) Status(ctx context.Context, entryID string) (ReminderStatus, error) {
	return s.store.Get(ctx, entryID)
}

// ════════════════════════════════════════════════════════════
// CheckDue
// ════════════════════════════════════════════════════════════

func (s *reminderService) CheckDue(ctx context.Context, now time.Time) (int, error) {
	now = now.In(s.loc)
	today := now.Format(model.DateLayout)

	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{})
	if err != nil {
		return 0, fmt.Errorf("load schedule entries: %w", err)
	}

	from, to := reminderWindow(now, s.cfg.LeadTime)
	sent := 0
	for _, e := range UpcomingBetween(from, to, today, entries) {
		if !e.IsActiveOnDate(today) || !e.IsNotificationEnabled() {
			continue
		}
		status, err := s.store.Get(ctx, e.ScheduleEntryID)
		if err != nil {
			s.logger.Warn("read reminder status failed", zap.String("entry_id", e.ScheduleEntryID), zap.Error(err))
			continue
		}
		if status != ReminderScheduled {
			continue
		}
		if err := s.send(ctx, e); err != nil {
			s.logger.Error("send reminder failed", zap.String("entry_id", e.ScheduleEntryID), zap.Error(err))
			continue
		}
		if err := s.store.Set(ctx, e.ScheduleEntryID, ReminderSent); err != nil {
			s.logger.Warn("mark reminder sent failed", zap.String("entry_id", e.ScheduleEntryID), zap.Error(err))
		}
		sent++
	}
	return sent, nil
}

func (s *reminderService) send(ctx context.Context, e model.ScheduleEntry) error {
	message := ReminderMessage(e)
	if e.WantsEmail() {
		if err := s.sender.Send(ctx, ChannelEmail, e, message); err != nil {
			return err
		}
	}
	if e.WantsPush() {
		if err := s.sender.Send(ctx, ChannelPush, e, message); err != nil {
			return err
		}
	}
	return nil
}

// ReminderMessage renders the reminder text for an entry.
func ReminderMessage(e model.ScheduleEntry) string {
	start := ""
	if e.StartTime != nil {
		start = e.StartTime.HHMM()
	}
	return fmt.Sprintf("Reminder: %s starts at %s", e.Title, start)
}

// reminderWindow returns [now, now+lead) as times of day, clipped at midnight.
func reminderWindow(now time.Time, lead time.Duration) (model.TimeOfDay, model.TimeOfDay) {
	from := model.TimeOfDayOf(now)
	to := from + model.TimeOfDay(lead/time.Second)
	if end := model.NewTimeOfDay(24, 0, 0); to > end {
		to = end
	}
	return from, to
}

// ── Scheduling loop ──

func (s *reminderService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrReminderAlreadyRunning
	}

	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(s.cfg.Spec, func() {
		sent, err := s.CheckDue(ctx, time.Now())
		if err != nil {
			s.logger.Error("reminder check failed", zap.Error(err))
			return
		}
		if sent > 0 {
			s.logger.Info("reminders sent", zap.Int("count", sent))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.cfg.Spec, err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("reminder dispatcher started",
		zap.String("spec", s.cfg.Spec),
		zap.Duration("lead_time", s.cfg.LeadTime))
	return nil
}

func (s *reminderService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("reminder dispatcher stopped")
}
