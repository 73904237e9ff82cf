package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
)

// ── Mock ScheduleEntryRepository ──

type mockScheduleEntryRepo struct {
	entries map[string]*model.ScheduleEntry
	order   []string

	saveErr     error // returned by Create and Update when set
	createCalls int
	updateCalls int
}

func newMockScheduleEntryRepo() *mockScheduleEntryRepo {
	return &mockScheduleEntryRepo{entries: make(map[string]*model.ScheduleEntry)}
}

func (m *mockScheduleEntryRepo) Create(_ context.Context, entry *model.ScheduleEntry) error {
	m.createCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if entry.ScheduleEntryID == "" {
		entry.ScheduleEntryID = uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	cp := *entry
	m.entries[entry.ScheduleEntryID] = &cp
	m.order = append(m.order, entry.ScheduleEntryID)
	return nil
}

func (m *mockScheduleEntryRepo) GetByID(_ context.Context, id string) (*model.ScheduleEntry, error) {
	if e, ok := m.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleEntryRepo) List(_ context.Context, filter repository.ScheduleEntryFilter) ([]model.ScheduleEntry, error) {
	result := make([]model.ScheduleEntry, 0)
	for _, id := range m.order {
		e, ok := m.entries[id]
		if !ok {
			continue
		}
		if filter.Username != "" && e.Username != filter.Username {
			continue
		}
		if !containsFold(e.Subject, filter.Subject) || !containsFold(e.Location, filter.Location) || !containsFold(e.Lecturer, filter.Lecturer) {
			continue
		}
		if filter.Special != nil && e.IsSpecialSchedule != *filter.Special {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockScheduleEntryRepo) Update(_ context.Context, entry *model.ScheduleEntry) error {
	m.updateCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.entries[entry.ScheduleEntryID]; !ok {
		return gorm.ErrRecordNotFound
	}
	entry.UpdatedAt = time.Now()
	cp := *entry
	m.entries[entry.ScheduleEntryID] = &cp
	return nil
}

func (m *mockScheduleEntryRepo) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── Mock Sender ──

type sentReminder struct {
	Channel string
	EntryID string
	Message string
}

type mockSender struct {
	mu   sync.Mutex
	sent []sentReminder
	err  error
}

func (m *mockSender) Send(_ context.Context, channel string, entry model.ScheduleEntry, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentReminder{Channel: channel, EntryID: entry.ScheduleEntryID, Message: message})
	return nil
}

// ── Mock ReminderService ──

type mockReminders struct {
	scheduled []string
	cancelled []string
}

func (m *mockReminders) Schedule(_ context.Context, entry *model.ScheduleEntry) error {
	m.scheduled = append(m.scheduled, entry.ScheduleEntryID)
	return nil
}

func (m *mockReminders) Cancel(_ context.Context, entry *model.ScheduleEntry) error {
	m.cancelled = append(m.cancelled, entry.ScheduleEntryID)
	return nil
}

func (m *mockReminders) Status(context.Context, string) (ReminderStatus, error) { return "", nil }
func (m *mockReminders) CheckDue(context.Context, time.Time) (int, error)       { return 0, nil }
func (m *mockReminders) Start(context.Context) error                             { return nil }
func (m *mockReminders) Stop()                                                   {}

// ── setup helpers ──

// fixedNow is Monday 2024-03-11 09:00 UTC.
var fixedNow = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func newTestRepo() (*repository.Repository, *mockScheduleEntryRepo) {
	entryRepo := newMockScheduleEntryRepo()
	return &repository.Repository{ScheduleEntry: entryRepo}, entryRepo
}

func setupTestTimetableService() (*timetableService, *mockScheduleEntryRepo, *mockReminders) {
	repo, entryRepo := newTestRepo()
	reminders := &mockReminders{}
	svc := NewTimetableService(repo, reminders, time.UTC, zap.NewNop()).(*timetableService)
	svc.now = func() time.Time { return fixedNow }
	return svc, entryRepo, reminders
}

func setupTestReminderService() (*reminderService, *mockScheduleEntryRepo, *mockSender) {
	repo, entryRepo := newTestRepo()
	sender := &mockSender{}
	cfg := config.ReminderConfig{
		Enabled:  true,
		Spec:     "@every 1m",
		LeadTime: 15 * time.Minute,
		Timezone: "UTC",
	}
	svc := NewReminderService(cfg, repo, NewMemoryStatusStore(), sender, zap.NewNop()).(*reminderService)
	return svc, entryRepo, sender
}

// seedEntry stores e as-is and returns its ID.
func seedEntry(repo *mockScheduleEntryRepo, e model.ScheduleEntry) string {
	_ = repo.Create(context.Background(), &e)
	return e.ScheduleEntryID
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	order    []string
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		subject.SubjectID = uuid.NewString()
	}
	subject.CreatedAt = time.Now()
	subject.UpdatedAt = subject.CreatedAt
	cp := *subject
	m.subjects[subject.SubjectID] = &cp
	m.order = append(m.order, subject.SubjectID)
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) find(match func(*model.Subject) bool) (*model.Subject, error) {
	for _, id := range m.order {
		if s, ok := m.subjects[id]; ok && match(s) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetByName(_ context.Context, username, name string) (*model.Subject, error) {
	return m.find(func(s *model.Subject) bool {
		return s.Username == username && strings.EqualFold(s.Name, name)
	})
}

func (m *mockSubjectRepo) GetByCode(_ context.Context, username, code string) (*model.Subject, error) {
	return m.find(func(s *model.Subject) bool {
		return s.Username == username && s.Code != "" && strings.EqualFold(s.Code, code)
	})
}

func (m *mockSubjectRepo) List(_ context.Context, username string) ([]model.Subject, error) {
	result := make([]model.Subject, 0)
	for _, id := range m.order {
		if s, ok := m.subjects[id]; ok && s.Username == username {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	if _, ok := m.subjects[subject.SubjectID]; !ok {
		return gorm.ErrRecordNotFound
	}
	subject.UpdatedAt = time.Now()
	cp := *subject
	m.subjects[subject.SubjectID] = &cp
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string) error {
	delete(m.subjects, id)
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord
	order   []string
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.AttendanceRecord) error {
	if record.AttendanceID == "" {
		record.AttendanceID = uuid.NewString()
	}
	cp := *record
	m.records[record.AttendanceID] = &cp
	m.order = append(m.order, record.AttendanceID)
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) List(_ context.Context, filter repository.AttendanceFilter) ([]model.AttendanceRecord, error) {
	result := make([]model.AttendanceRecord, 0)
	for _, id := range m.order {
		r, ok := m.records[id]
		if !ok {
			continue
		}
		if filter.Username != "" && r.Username != filter.Username {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(r.Subject, filter.Subject) {
			continue
		}
		if (filter.From != "" && r.AttendanceDate < filter.From) || (filter.To != "" && r.AttendanceDate > filter.To) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.AttendanceRecord) error {
	if _, ok := m.records[record.AttendanceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *record
	m.records[record.AttendanceID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

// ── Mock MarkRepository ──

type mockMarkRepo struct {
	marks map[string]*model.Mark
	order []string
}

func newMockMarkRepo() *mockMarkRepo {
	return &mockMarkRepo{marks: make(map[string]*model.Mark)}
}

func (m *mockMarkRepo) Create(_ context.Context, mark *model.Mark) error {
	if mark.MarkID == "" {
		mark.MarkID = uuid.NewString()
	}
	cp := *mark
	m.marks[mark.MarkID] = &cp
	m.order = append(m.order, mark.MarkID)
	return nil
}

func (m *mockMarkRepo) GetByID(_ context.Context, id string) (*model.Mark, error) {
	if mk, ok := m.marks[id]; ok {
		cp := *mk
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// List returns newest assessment date first, later inserts first on ties.
func (m *mockMarkRepo) List(_ context.Context, filter repository.MarkFilter) ([]model.Mark, error) {
	result := make([]model.Mark, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		mk, ok := m.marks[m.order[i]]
		if !ok {
			continue
		}
		if filter.Username != "" && mk.Username != filter.Username {
			continue
		}
		if filter.SubjectID != "" && mk.SubjectID != filter.SubjectID {
			continue
		}
		if filter.AssessmentType != "" && !strings.EqualFold(mk.AssessmentType, filter.AssessmentType) {
			continue
		}
		result = append(result, *mk)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AssessmentDate > result[j].AssessmentDate
	})
	return result, nil
}

func (m *mockMarkRepo) Update(_ context.Context, mark *model.Mark) error {
	if _, ok := m.marks[mark.MarkID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *mark
	m.marks[mark.MarkID] = &cp
	return nil
}

func (m *mockMarkRepo) Delete(_ context.Context, id string) error {
	delete(m.marks, id)
	return nil
}

// ── academic setup ──

type academicMocks struct {
	subjects   *mockSubjectRepo
	attendance *mockAttendanceRepo
	marks      *mockMarkRepo
}

func newAcademicTestRepo() (*repository.Repository, *academicMocks) {
	mocks := &academicMocks{
		subjects:   newMockSubjectRepo(),
		attendance: newMockAttendanceRepo(),
		marks:      newMockMarkRepo(),
	}
	return &repository.Repository{
		ScheduleEntry: newMockScheduleEntryRepo(),
		Subject:       mocks.subjects,
		Attendance:    mocks.attendance,
		Mark:          mocks.marks,
	}, mocks
}

func setupTestSubjectService() (SubjectService, *academicMocks) {
	repo, mocks := newAcademicTestRepo()
	return NewSubjectService(repo, zap.NewNop()), mocks
}

func setupTestAttendanceService() (AttendanceService, *academicMocks) {
	repo, mocks := newAcademicTestRepo()
	return NewAttendanceService(repo, zap.NewNop()), mocks
}

func setupTestMarkService() (MarkService, *academicMocks) {
	repo, mocks := newAcademicTestRepo()
	return NewMarkService(repo, zap.NewNop()), mocks
}

// seedSubject stores s as-is and returns its ID.
func seedSubject(repo *mockSubjectRepo, s model.Subject) string {
	_ = repo.Create(context.Background(), &s)
	return s.SubjectID
}
