package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

func strPtr(s string) *string { return &s }

func mathRequest() *dto.CreateScheduleEntryRequest {
	return &dto.CreateScheduleEntryRequest{
		Subject:   "Math",
		Location:  "Room 101",
		Lecturer:  "Dr. Silva",
		Day:       "monday",
		StartTime: "09:00",
		EndTime:   "10:00",
	}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func TestTimetableService_Create_Success(t *testing.T) {
	svc, repo, reminders := setupTestTimetableService()

	req := mathRequest()
	req.NotificationPreference = "email"
	resp, err := svc.Create(context.Background(), req, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if resp.ID == "" {
		t.Error("ID should be assigned")
	}
	if resp.Username != "alice" {
		t.Errorf("username should default to the caller, got %q", resp.Username)
	}
	if resp.Day != "MONDAY" || resp.SpecialDate != "" {
		t.Errorf("unexpected day/date %q/%q", resp.Day, resp.SpecialDate)
	}
	if resp.Title != "Math" {
		t.Errorf("title should default to subject, got %q", resp.Title)
	}
	if !resp.IsWeekly {
		t.Error("regular entry should be weekly")
	}
	if resp.FormattedTimeRange != "09:00 - 10:00" {
		t.Errorf("unexpected time range %q", resp.FormattedTimeRange)
	}
	if resp.NotificationPreference != model.NotifyEmail {
		t.Errorf("want EMAIL, got %q", resp.NotificationPreference)
	}
	if repo.createCalls != 1 {
		t.Errorf("want 1 create call, got %d", repo.createCalls)
	}
	if len(reminders.scheduled) != 1 || reminders.scheduled[0] != resp.ID {
		t.Errorf("reminder should be scheduled once for %s, got %v", resp.ID, reminders.scheduled)
	}
}

func TestTimetableService_Create_SpecialDerivesDay(t *testing.T) {
	svc, _, _ := setupTestTimetableService()

	resp, err := svc.Create(context.Background(), &dto.CreateScheduleEntryRequest{
		Subject:           "Guest lecture",
		IsSpecialSchedule: true,
		Day:               "FRIDAY",
		SpecialDate:       "2024-03-16",
		StartTime:         "13:00",
		EndTime:           "14:30",
	}, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if resp.Day != "SATURDAY" {
		t.Errorf("day should come from the date, got %q", resp.Day)
	}
	if resp.IsWeekly {
		t.Error("special entry should not be weekly")
	}
	if resp.EffectiveDate != "Saturday, March 16, 2024" {
		t.Errorf("unexpected effective date %q", resp.EffectiveDate)
	}
}

func TestTimetableService_Create_Duplicate(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, mathRequest(), "alice"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	dup := mathRequest()
	dup.Subject = "MATH"
	dup.Day = "Monday"
	if _, err := svc.Create(ctx, dup, "alice"); !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("want ErrDuplicateSchedule, got %v", err)
	}
	if repo.createCalls != 1 {
		t.Errorf("duplicate must not reach storage, got %d create calls", repo.createCalls)
	}

	// another student's identical class is not a duplicate
	if _, err := svc.Create(ctx, mathRequest(), "bob"); err != nil {
		t.Errorf("other owner should be allowed, got %v", err)
	}
}

func TestTimetableService_Create_ValidationBeforeSave(t *testing.T) {
	svc, repo, reminders := setupTestTimetableService()

	req := mathRequest()
	req.EndTime = "09:00"
	if _, err := svc.Create(context.Background(), req, "alice"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("want ErrInvalidTimeRange, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Error("invalid entry must not reach storage")
	}
	if len(reminders.scheduled) != 0 {
		t.Error("invalid entry must not be scheduled")
	}
}

func TestTimetableService_Create_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *dto.CreateScheduleEntryRequest)
		caller  string
		wantErr error
	}{
		{"bad start time", func(r *dto.CreateScheduleEntryRequest) { r.StartTime = "9am" }, "alice", ErrInvalidTime},
		{"missing end time", func(r *dto.CreateScheduleEntryRequest) { r.EndTime = "" }, "alice", ErrMissingTime},
		{"missing day", func(r *dto.CreateScheduleEntryRequest) { r.Day = "" }, "alice", ErrMissingDay},
		{"missing subject", func(r *dto.CreateScheduleEntryRequest) { r.Subject = "" }, "alice", ErrMissingSubject},
		{"no owner", func(r *dto.CreateScheduleEntryRequest) {}, "", ErrMissingUsername},
		{"special bad date", func(r *dto.CreateScheduleEntryRequest) {
			r.IsSpecialSchedule = true
			r.SpecialDate = "2024-02-30"
		}, "alice", ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupTestTimetableService()
			req := mathRequest()
			tt.mutate(req)
			if _, err := svc.Create(context.Background(), req, tt.caller); !errors.Is(err, tt.wantErr) {
				t.Errorf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTimetableService_Create_UniqueViolation(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	repo.saveErr = gorm.ErrDuplicatedKey

	if _, err := svc.Create(context.Background(), mathRequest(), "alice"); !errors.Is(err, ErrDuplicateSchedule) {
		t.Errorf("want ErrDuplicateSchedule, got %v", err)
	}
}

func TestTimetableService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := setupTestTimetableService()

	if _, err := svc.GetByID(context.Background(), uuid.NewString(), "alice"); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("want ErrScheduleEntryNotFound, got %v", err)
	}
}

func TestTimetableService_MalformedIDIsNotFound(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	ctx := context.Background()

	for _, id := range []string{"abc", "", "entry-1", "00000000-0000-0000-0000"} {
		if _, err := svc.GetByID(ctx, id, "alice"); !errors.Is(err, ErrScheduleEntryNotFound) {
			t.Errorf("GetByID(%q): want ErrScheduleEntryNotFound, got %v", id, err)
		}
		if _, err := svc.Update(ctx, id, &dto.UpdateScheduleEntryRequest{Location: strPtr("x")}, "alice"); !errors.Is(err, ErrScheduleEntryNotFound) {
			t.Errorf("Update(%q): want ErrScheduleEntryNotFound, got %v", id, err)
		}
		if err := svc.Delete(ctx, id, "alice"); !errors.Is(err, ErrScheduleEntryNotFound) {
			t.Errorf("Delete(%q): want ErrScheduleEntryNotFound, got %v", id, err)
		}
	}
	if repo.updateCalls != 0 {
		t.Errorf("a malformed id should never reach storage, got %d updates", repo.updateCalls)
	}
}

// ════════════════════════════════════════════════════════════
// Ownership
// ════════════════════════════════════════════════════════════

func TestTimetableService_OtherUsersEntryIsNotFound(t *testing.T) {
	svc, repo, reminders := setupTestTimetableService()
	ctx := context.Background()

	created, err := svc.Create(ctx, mathRequest(), "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, created.ID, "bob"); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("GetByID by another user: want ErrScheduleEntryNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{Location: strPtr("Room 9")}, "bob"); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("Update by another user: want ErrScheduleEntryNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID, "bob"); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("Delete by another user: want ErrScheduleEntryNotFound, got %v", err)
	}

	stored, ok := repo.entries[created.ID]
	if !ok {
		t.Fatal("entry should survive another user's delete")
	}
	if stored.Location != "Room 101" {
		t.Errorf("entry should be unchanged, location %q", stored.Location)
	}
	if len(reminders.cancelled) != 0 {
		t.Errorf("no reminder should be cancelled, got %v", reminders.cancelled)
	}

	if _, err := svc.GetByID(ctx, created.ID, "alice"); err != nil {
		t.Errorf("owner should still read the entry: %v", err)
	}
}

func TestTimetableService_ForeignOwnerRejected(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	ctx := context.Background()

	req := mathRequest()
	req.Username = "bob"
	if _, err := svc.Create(ctx, req, "alice"); !errors.Is(err, ErrForeignOwner) {
		t.Errorf("Create for another user: want ErrForeignOwner, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Errorf("nothing should be stored, got %d entries", len(repo.entries))
	}

	req.Username = "alice"
	created, err := svc.Create(ctx, req, "alice")
	if err != nil {
		t.Fatalf("Create naming the caller failed: %v", err)
	}

	_, err = svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{Username: strPtr("bob")}, "alice")
	if !errors.Is(err, ErrForeignOwner) {
		t.Errorf("reassigning the owner: want ErrForeignOwner, got %v", err)
	}
	if repo.entries[created.ID].Username != "alice" {
		t.Errorf("owner should be unchanged, got %q", repo.entries[created.ID].Username)
	}
}

// ════════════════════════════════════════════════════════════
// Update
// ════════════════════════════════════════════════════════════

func TestTimetableService_Update_SelfIsNotDuplicate(t *testing.T) {
	svc, _, _ := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")

	resp, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{
		Subject:   strPtr("Math"),
		Day:       strPtr("MONDAY"),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("10:00"),
	}, "alice")
	if err != nil {
		t.Fatalf("updating an entry with its own values failed: %v", err)
	}
	if resp.ID != created.ID {
		t.Errorf("ID changed from %s to %s", created.ID, resp.ID)
	}
}

func TestTimetableService_Update_ConflictWithOther(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	ctx := context.Background()

	_, _ = svc.Create(ctx, mathRequest(), "alice")
	other := mathRequest()
	other.Day = "TUESDAY"
	second, _ := svc.Create(ctx, other, "alice")

	_, err := svc.Update(ctx, second.ID, &dto.UpdateScheduleEntryRequest{Day: strPtr("monday")}, "alice")
	if !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("want ErrDuplicateSchedule, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Error("conflicting update must not reach storage")
	}
}

func TestTimetableService_Update_PreservesUsername(t *testing.T) {
	svc, _, _ := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")

	resp, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{
		Username: strPtr(""),
		Location: strPtr("Room 202"),
	}, "alice")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("owner should be preserved, got %q", resp.Username)
	}
	if resp.Location != "Room 202" {
		t.Errorf("location not updated: %q", resp.Location)
	}
	if resp.Lecturer != "Dr. Silva" {
		t.Errorf("untouched field changed: %q", resp.Lecturer)
	}
}

func TestTimetableService_Update_TitleFollowsSubject(t *testing.T) {
	svc, _, _ := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")
	resp, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{Subject: strPtr("Statistics")}, "alice")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Title != "Statistics" {
		t.Errorf("derived title should follow subject, got %q", resp.Title)
	}

	req := mathRequest()
	req.Day = "FRIDAY"
	req.Title = "Calculus"
	custom, _ := svc.Create(ctx, req, "alice")
	resp, err = svc.Update(ctx, custom.ID, &dto.UpdateScheduleEntryRequest{Subject: strPtr("Algebra")}, "alice")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Title != "Calculus" {
		t.Errorf("explicit title should be kept, got %q", resp.Title)
	}
}

func TestTimetableService_Update_SwitchToSpecial(t *testing.T) {
	svc, _, _ := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")
	resp, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{
		IsSpecialSchedule: boolPtr(true),
		SpecialDate:       strPtr("2024-03-14"),
	}, "alice")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !resp.IsSpecialSchedule || resp.Day != "THURSDAY" || resp.SpecialDate != "2024-03-14" {
		t.Errorf("unexpected special entry %+v", resp)
	}
	if resp.IsWeekly {
		t.Error("special entry should not be weekly")
	}
}

func TestTimetableService_Update_Reminders(t *testing.T) {
	svc, _, reminders := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")
	reminders.scheduled = nil

	if _, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{NotificationPreference: strPtr("PUSH")}, "alice"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(reminders.cancelled) != 1 || len(reminders.scheduled) != 1 {
		t.Errorf("want one cancel and one schedule, got %v / %v", reminders.cancelled, reminders.scheduled)
	}
}

func TestTimetableService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTestTimetableService()

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateScheduleEntryRequest{}, "alice")
	if !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("want ErrScheduleEntryNotFound, got %v", err)
	}
}

func TestTimetableService_Update_InvalidRejected(t *testing.T) {
	svc, _, _ := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")
	_, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleEntryRequest{EndTime: strPtr("08:00")}, "alice")
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("want ErrInvalidTimeRange, got %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Delete
// ════════════════════════════════════════════════════════════

func TestTimetableService_Delete(t *testing.T) {
	svc, repo, reminders := setupTestTimetableService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, mathRequest(), "alice")
	if err := svc.Delete(ctx, created.ID, "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := repo.entries[created.ID]; ok {
		t.Error("entry should be removed")
	}
	if len(reminders.cancelled) != 1 || reminders.cancelled[0] != created.ID {
		t.Errorf("reminder should be cancelled, got %v", reminders.cancelled)
	}

	if err := svc.Delete(ctx, created.ID, "alice"); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("want ErrScheduleEntryNotFound, got %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Reads
// ════════════════════════════════════════════════════════════

func seedWeek(repo *mockScheduleEntryRepo) {
	seedEntry(repo, regular("Math", "MONDAY", tod(9, 15), tod(10, 0)))
	seedEntry(repo, regular("Physics", "TUESDAY", tod(9, 10), tod(10, 0)))
	seedEntry(repo, regular("Chemistry", "MONDAY", tod(11, 0), tod(12, 0)))
	seedEntry(repo, special("Lab", "2024-03-11", tod(9, 20), tod(11, 0)))
	seedEntry(repo, special("Exam", "2024-03-01", tod(9, 0), tod(12, 0)))

	other := regular("Art", "MONDAY", tod(9, 15), tod(10, 0))
	other.Username = "bob"
	seedEntry(repo, other)
}

func responseSubjects(entries []dto.ScheduleEntryResponse) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Subject)
	}
	return out
}

func TestTimetableService_List(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedWeek(repo)
	ctx := context.Background()

	all, err := svc.List(ctx, "alice", nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("want 5 entries for alice, got %v", responseSubjects(all))
	}

	specials, _ := svc.List(ctx, "alice", &dto.ScheduleEntryListQuery{Type: "special"})
	if len(specials) != 2 {
		t.Errorf("want 2 special entries, got %v", responseSubjects(specials))
	}

	found, _ := svc.List(ctx, "alice", &dto.ScheduleEntryListQuery{Subject: "chem"})
	if len(found) != 1 || found[0].Subject != "Chemistry" {
		t.Errorf("subject search failed: %v", responseSubjects(found))
	}
}

func TestTimetableService_ListByDay(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedWeek(repo)

	got, err := svc.ListByDay(context.Background(), "alice", "monday")
	if err != nil {
		t.Fatalf("ListByDay failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("want Math and Chemistry, got %v", responseSubjects(got))
	}

	if _, err := svc.ListByDay(context.Background(), "alice", "someday"); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("want ErrInvalidDay, got %v", err)
	}
}

func TestTimetableService_ListSpecial(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedWeek(repo)
	ctx := context.Background()

	all, _ := svc.ListSpecial(ctx, "alice", false)
	if len(all) != 2 || all[0].Subject != "Exam" {
		t.Errorf("want [Exam Lab] sorted by date, got %v", responseSubjects(all))
	}

	upcoming, _ := svc.ListSpecial(ctx, "alice", true)
	if len(upcoming) != 1 || upcoming[0].Subject != "Lab" {
		t.Errorf("want only today's Lab, got %v", responseSubjects(upcoming))
	}
}

func TestTimetableService_TodayAndHasClass(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedWeek(repo)
	ctx := context.Background()

	today, err := svc.Today(ctx, "alice")
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if len(today) != 3 {
		t.Errorf("want Math, Chemistry, Lab, got %v", responseSubjects(today))
	}

	has, err := svc.HasClassOn(ctx, "alice", "2024-03-13")
	if err != nil || has {
		t.Errorf("no class on Wednesday, got %v %v", has, err)
	}
	has, _ = svc.HasClassOn(ctx, "alice", "2024-03-12")
	if !has {
		t.Error("Physics is on Tuesday")
	}
	if _, err := svc.HasClassOn(ctx, "alice", "tomorrow"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("want ErrInvalidDate, got %v", err)
	}
}

func TestTimetableService_Week(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedEntry(repo, regular("Math", "MONDAY", tod(9, 0), tod(10, 0)))

	week, err := svc.Week(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Week failed: %v", err)
	}
	if len(week) != 2 {
		t.Fatalf("want two Mondays in the window, got %d", len(week))
	}
	if week[0].DisplayDate != "2024-03-11" || week[1].DisplayDate != "2024-03-18" {
		t.Errorf("unexpected display dates %q %q", week[0].DisplayDate, week[1].DisplayDate)
	}
}

func TestTimetableService_ActiveBetween_TooLong(t *testing.T) {
	svc, _, _ := setupTestTimetableService()

	_, err := svc.ActiveBetween(context.Background(), "alice", "2024-01-01", "2024-06-01")
	if !errors.Is(err, ErrDateRangeTooLong) {
		t.Errorf("want ErrDateRangeTooLong, got %v", err)
	}
}

func TestTimetableService_Upcoming(t *testing.T) {
	svc, repo, _ := setupTestTimetableService()
	seedWeek(repo)

	got, err := svc.Upcoming(context.Background(), "alice", 30*time.Minute)
	if err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	subjects := responseSubjects(got)
	if len(subjects) != 2 || subjects[0] != "Math" || subjects[1] != "Lab" {
		t.Errorf("want [Math Lab], got %v", subjects)
	}
}
