//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
	"github.com/Kopuraj/SEM-Tracker/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=sem_tracker_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "get sql.DB: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "run migrations: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// testUser returns a username unique to this run and removes its rows afterwards.
func testUser(t *testing.T) string {
	t.Helper()
	username := fmt.Sprintf("it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		testDB.Where("username = ?", username).Delete(&model.ScheduleEntry{})
		testDB.Where("username = ?", username).Delete(&model.AttendanceRecord{})
		testDB.Where("username = ?", username).Delete(&model.Mark{})
		testDB.Where("username = ?", username).Delete(&model.Subject{})
	})
	return username
}

func strPtr(s string) *string { return &s }

func todPtr(h, m int) *model.TimeOfDay {
	t := model.NewTimeOfDay(h, m, 0)
	return &t
}

func regularEntry(username, subject, day string, start, end *model.TimeOfDay) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		Subject:                subject,
		Title:                  subject,
		Day:                    strPtr(day),
		StartTime:              start,
		EndTime:                end,
		IsWeekly:               true,
		NotificationPreference: model.NotifyNone,
		Username:               username,
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleEntryRepository
// ═══════════════════════════════════════════════════════════

func TestScheduleEntryRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewScheduleEntryRepo(testDB)
	username := testUser(t)

	entry := regularEntry(username, "Math", "MONDAY", todPtr(9, 0), todPtr(10, 30))
	entry.Location = "Room 101"
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if entry.ScheduleEntryID == "" {
		t.Fatal("Create should assign an id")
	}

	got, err := repo.GetByID(ctx, entry.ScheduleEntryID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StartTime == nil || *got.StartTime != model.NewTimeOfDay(9, 0, 0) {
		t.Errorf("start time did not round trip: %v", got.StartTime)
	}
	if got.EndTime == nil || got.EndTime.HHMM() != "10:30" {
		t.Errorf("end time did not round trip: %v", got.EndTime)
	}

	got.Location = "Room 202"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	again, _ := repo.GetByID(ctx, entry.ScheduleEntryID)
	if again.Location != "Room 202" {
		t.Errorf("update not persisted, location %q", again.Location)
	}

	if err := repo.Delete(ctx, entry.ScheduleEntryID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, entry.ScheduleEntryID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("want ErrRecordNotFound after delete, got %v", err)
	}
}

func TestScheduleEntryRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewScheduleEntryRepo(testDB)
	username := testUser(t)

	late := regularEntry(username, "Physics", "TUESDAY", todPtr(14, 0), todPtr(15, 0))
	late.Lecturer = "Dr. 100%"
	early := regularEntry(username, "Mathematics", "MONDAY", todPtr(8, 0), todPtr(9, 0))
	exam := &model.ScheduleEntry{
		Subject:                "Math Exam",
		Title:                  "Math Exam",
		IsSpecialSchedule:      true,
		Day:                    strPtr("WEDNESDAY"),
		SpecialDate:            strPtr("2024-03-13"),
		StartTime:              todPtr(10, 0),
		EndTime:                todPtr(12, 0),
		NotificationPreference: model.NotifyEmail,
		Username:               username,
	}
	for _, e := range []*model.ScheduleEntry{late, early, exam} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create %s failed: %v", e.Subject, err)
		}
	}

	all, err := repo.List(ctx, repository.ScheduleEntryFilter{Username: username})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Subject != "Mathematics" || all[2].Subject != "Physics" {
		t.Errorf("want entries ordered by start time, got %d entries", len(all))
	}

	math, _ := repo.List(ctx, repository.ScheduleEntryFilter{Username: username, Subject: "MATH"})
	if len(math) != 2 {
		t.Errorf("subject filter should be case-insensitive, got %d", len(math))
	}

	special := true
	specials, _ := repo.List(ctx, repository.ScheduleEntryFilter{Username: username, Special: &special})
	if len(specials) != 1 || specials[0].SpecialDate == nil || *specials[0].SpecialDate != "2024-03-13" {
		t.Errorf("want the exam only, got %+v", specials)
	}

	percent, _ := repo.List(ctx, repository.ScheduleEntryFilter{Username: username, Lecturer: "100%"})
	if len(percent) != 1 {
		t.Errorf("LIKE metacharacters should match literally, got %d", len(percent))
	}
	wildcard, _ := repo.List(ctx, repository.ScheduleEntryFilter{Username: username, Lecturer: "%"})
	if len(wildcard) != 1 {
		t.Errorf("a bare %% should not match every lecturer, got %d", len(wildcard))
	}
}

func TestScheduleEntryRepo_SpecialEntryNotWeekly(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewScheduleEntryRepo(testDB)
	username := testUser(t)

	exam := &model.ScheduleEntry{
		Subject:                "Final Exam",
		Title:                  "Final Exam",
		IsSpecialSchedule:      true,
		Day:                    strPtr("FRIDAY"),
		SpecialDate:            strPtr("2024-03-15"),
		StartTime:              todPtr(9, 0),
		EndTime:                todPtr(11, 0),
		IsWeekly:               false,
		NotificationPreference: model.NotifyNone,
		Username:               username,
	}
	if err := repo.Create(ctx, exam); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, exam.ScheduleEntryID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsWeekly {
		t.Error("a special entry should read back with is_weekly=false")
	}

	var stored bool
	testDB.Raw("SELECT is_weekly FROM schedule_entries WHERE schedule_entry_id = ?", exam.ScheduleEntryID).Scan(&stored)
	if stored {
		t.Error("is_weekly column should hold false")
	}
}

func TestScheduleEntryRepo_UniqueSlot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewScheduleEntryRepo(testDB)
	username := testUser(t)

	if err := repo.Create(ctx, regularEntry(username, "Math", "MONDAY", todPtr(9, 0), todPtr(10, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.Create(ctx, regularEntry(username, "math", "MONDAY", todPtr(9, 0), todPtr(10, 0)))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("want ErrDuplicatedKey for a case-variant repeat, got %v", err)
	}

	// another owner may hold the same slot
	other := testUser(t)
	if err := repo.Create(ctx, regularEntry(other, "Math", "MONDAY", todPtr(9, 0), todPtr(10, 0))); err != nil {
		t.Errorf("same slot for another user should be allowed, got %v", err)
	}
}

func TestScheduleEntryRepo_CheckConstraints(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewScheduleEntryRepo(testDB)
	username := testUser(t)

	inverted := regularEntry(username, "Math", "MONDAY", todPtr(10, 0), todPtr(9, 0))
	if err := repo.Create(ctx, inverted); err == nil {
		t.Error("end before start should violate the check constraint")
	}

	orphan := regularEntry(username, "Lab", "FRIDAY", todPtr(9, 0), todPtr(10, 0))
	orphan.SpecialDate = strPtr("2024-03-15")
	if err := repo.Create(ctx, orphan); err == nil {
		t.Error("a regular entry with a special date should be rejected")
	}
}

// ═══════════════════════════════════════════════════════════
// Academic records
// ═══════════════════════════════════════════════════════════

func physics(username string) *model.Subject {
	return &model.Subject{
		Username:             username,
		Name:                 "Physics",
		Code:                 "PHY101",
		TotalMarks:           100,
		PassMarks:            40,
		ScheduledHours:       30,
		MinAttendancePercent: 80,
	}
}

func TestSubjectRepo_LookupsAndUniqueness(t *testing.T) {
	repo := repository.NewSubjectRepo(testDB)
	ctx := context.Background()
	username := testUser(t)

	subject := physics(username)
	if err := repo.Create(ctx, subject); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if subject.SubjectID == "" {
		t.Fatal("SubjectID should be generated")
	}

	byName, err := repo.GetByName(ctx, username, "PHYSICS")
	if err != nil || byName.SubjectID != subject.SubjectID {
		t.Errorf("GetByName should match case-insensitively, got %v, %v", byName, err)
	}
	byCode, err := repo.GetByCode(ctx, username, "phy101")
	if err != nil || byCode.SubjectID != subject.SubjectID {
		t.Errorf("GetByCode should match case-insensitively, got %v, %v", byCode, err)
	}

	dup := physics(username)
	dup.Name, dup.Code = "physics", ""
	if err := repo.Create(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("want ErrDuplicatedKey for a case variant name, got %v", err)
	}

	noCode := physics(username)
	noCode.Name, noCode.Code = "Biology", ""
	if err := repo.Create(ctx, noCode); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other := physics(username)
	other.Name, other.Code = "Chemistry", ""
	if err := repo.Create(ctx, other); err != nil {
		t.Errorf("blank codes should not clash, got %v", err)
	}

	list, err := repo.List(ctx, username)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Biology" || list[2].Name != "Physics" {
		t.Errorf("want 3 subjects ordered by name, got %+v", list)
	}
}

func TestAttendanceRepo_ListFilters(t *testing.T) {
	repo := repository.NewAttendanceRepo(testDB)
	ctx := context.Background()
	username := testUser(t)

	records := []model.AttendanceRecord{
		{Username: username, Subject: "Physics", AttendanceDate: "2024-03-12", StartTime: todPtr(9, 0), EndTime: todPtr(11, 0), AttendedHours: 2},
		{Username: username, Subject: "physics", AttendanceDate: "2024-03-11", StartTime: todPtr(13, 0), EndTime: todPtr(14, 0), AttendedHours: 1},
		{Username: username, Subject: "Biology", AttendanceDate: "2024-03-20", StartTime: todPtr(9, 0), EndTime: todPtr(10, 0), AttendedHours: 1},
	}
	for i := range records {
		if err := repo.Create(ctx, &records[i]); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := repo.List(ctx, repository.AttendanceFilter{Username: username, Subject: "PHYSICS"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].AttendanceDate != "2024-03-11" {
		t.Errorf("want 2 physics records oldest first, got %+v", got)
	}

	got, err = repo.List(ctx, repository.AttendanceFilter{Username: username, From: "2024-03-12", To: "2024-03-31"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("want 2 records in range, got %d", len(got))
	}

	bad := model.AttendanceRecord{Username: username, Subject: "Art", AttendanceDate: "2024-03-11", StartTime: todPtr(10, 0), EndTime: todPtr(9, 0), AttendedHours: 1}
	if err := repo.Create(ctx, &bad); err == nil {
		t.Error("end before start should violate a check constraint")
	}
}

func TestMarkRepo_CascadeOnSubjectDelete(t *testing.T) {
	subjects := repository.NewSubjectRepo(testDB)
	marks := repository.NewMarkRepo(testDB)
	ctx := context.Background()
	username := testUser(t)

	subject := physics(username)
	if err := subjects.Create(ctx, subject); err != nil {
		t.Fatalf("Create subject failed: %v", err)
	}
	for _, date := range []string{"2024-03-11", "2024-03-18"} {
		mark := &model.Mark{
			Username: username, SubjectID: subject.SubjectID, ObtainedMarks: 55, TotalMarks: 100, PassMarks: 40,
			AssessmentType: model.AssessmentQuiz, AssessmentDate: date,
		}
		if err := marks.Create(ctx, mark); err != nil {
			t.Fatalf("Create mark failed: %v", err)
		}
	}

	list, err := marks.List(ctx, repository.MarkFilter{Username: username, SubjectID: subject.SubjectID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].AssessmentDate != "2024-03-18" {
		t.Errorf("want 2 marks newest first, got %+v", list)
	}

	if err := subjects.Delete(ctx, subject.SubjectID); err != nil {
		t.Fatalf("Delete subject failed: %v", err)
	}
	list, err = marks.List(ctx, repository.MarkFilter{Username: username})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("marks should be removed with their subject, got %d", len(list))
	}
}
