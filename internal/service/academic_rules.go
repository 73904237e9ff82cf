package service

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// ── Academic record errors ──

var (
	ErrSubjectNotFound       = errors.New("subject not found")
	ErrDuplicateSubject      = errors.New("a subject with the same name or code already exists")
	ErrMissingSubjectName    = errors.New("subject name is required")
	ErrInvalidMarks          = errors.New("marks must satisfy 0 <= pass, obtained <= total and total > 0")
	ErrInvalidHours          = errors.New("hours must not be negative")
	ErrInvalidPercent        = errors.New("percentage must be between 0 and 100")
	ErrAttendanceNotFound    = errors.New("attendance record not found")
	ErrInvalidAttendedHours  = errors.New("attended hours must be positive and fit within the session")
	ErrMarkNotFound          = errors.New("mark not found")
	ErrMissingAssessmentType = errors.New("assessment type is required")
)

const (
	defaultTotalMarks  = 100
	defaultPassPercent = 40

	maxCodeLength           = 50
	maxAssessmentTypeLength = 50

	defaultRecentMarks = 5
)

// ════════════════════════════════════════════════════════════
// Normalization
// ════════════════════════════════════════════════════════════

// NormalizeSubject trims and checks a catalog subject. The input is not modified.
func NormalizeSubject(candidate model.Subject) (model.Subject, error) {
	s := candidate
	s.Name = strings.TrimSpace(s.Name)
	s.Code = strings.TrimSpace(s.Code)
	s.Username = strings.TrimSpace(s.Username)

	if s.Name == "" {
		return model.Subject{}, ErrMissingSubjectName
	}
	if s.Username == "" {
		return model.Subject{}, ErrMissingUsername
	}
	if tooLong(maxTextLength, s.Name) || tooLong(maxCodeLength, s.Code) || tooLong(maxUsernameLength, s.Username) {
		return model.Subject{}, ErrFieldTooLong
	}
	if s.TotalMarks <= 0 || s.PassMarks < 0 || s.PassMarks > s.TotalMarks {
		return model.Subject{}, ErrInvalidMarks
	}
	if s.ScheduledHours < 0 {
		return model.Subject{}, ErrInvalidHours
	}
	if s.MinAttendancePercent < 0 || s.MinAttendancePercent > 100 {
		return model.Subject{}, ErrInvalidPercent
	}
	return s, nil
}

// NormalizeAttendance checks a record and derives AttendedHours from the
// session length when it is zero.
func NormalizeAttendance(candidate model.AttendanceRecord) (model.AttendanceRecord, error) {
	a := candidate
	a.Subject = strings.TrimSpace(a.Subject)
	a.Username = strings.TrimSpace(a.Username)
	a.AttendanceDate = strings.TrimSpace(a.AttendanceDate)

	if a.Subject == "" {
		return model.AttendanceRecord{}, ErrMissingSubject
	}
	if a.Username == "" {
		return model.AttendanceRecord{}, ErrMissingUsername
	}
	if tooLong(maxTextLength, a.Subject) || tooLong(maxUsernameLength, a.Username) {
		return model.AttendanceRecord{}, ErrFieldTooLong
	}
	if _, err := model.ParseDate(a.AttendanceDate); err != nil {
		return model.AttendanceRecord{}, ErrInvalidDate
	}
	if a.StartTime == nil || a.EndTime == nil {
		return model.AttendanceRecord{}, ErrMissingTime
	}
	if !a.EndTime.After(*a.StartTime) {
		return model.AttendanceRecord{}, ErrInvalidTimeRange
	}

	session := a.SessionHours()
	if a.AttendedHours == 0 {
		a.AttendedHours = session
	}
	if a.AttendedHours <= 0 || a.AttendedHours > session {
		return model.AttendanceRecord{}, ErrInvalidAttendedHours
	}
	a.AttendedHours = round2(a.AttendedHours)
	return a, nil
}

// NormalizeMark checks an assessment result. Totals must already be
// resolved against the subject.
func NormalizeMark(candidate model.Mark) (model.Mark, error) {
	m := candidate
	m.Username = strings.TrimSpace(m.Username)
	m.AssessmentType = strings.ToUpper(strings.TrimSpace(m.AssessmentType))
	m.AssessmentDate = strings.TrimSpace(m.AssessmentDate)

	if m.Username == "" {
		return model.Mark{}, ErrMissingUsername
	}
	if m.AssessmentType == "" {
		return model.Mark{}, ErrMissingAssessmentType
	}
	if tooLong(maxAssessmentTypeLength, m.AssessmentType) || tooLong(maxUsernameLength, m.Username) {
		return model.Mark{}, ErrFieldTooLong
	}
	if _, err := model.ParseDate(m.AssessmentDate); err != nil {
		return model.Mark{}, ErrInvalidDate
	}
	if m.TotalMarks <= 0 ||
		m.ObtainedMarks < 0 || m.ObtainedMarks > m.TotalMarks ||
		m.PassMarks < 0 || m.PassMarks > m.TotalMarks {
		return model.Mark{}, ErrInvalidMarks
	}
	return m, nil
}

// defaultPassMarks is the pass mark a subject gets when none is given.
func defaultPassMarks(total int) int {
	return total * defaultPassPercent / 100
}

// ════════════════════════════════════════════════════════════
// Attendance standing
// ════════════════════════════════════════════════════════════
//
// Scheduled hours and the minimum percentage come from the catalog subject
// of the same name. A subject outside the catalog has no scheduled hours:
// its percentage is 0 and it is never eligible.

// SubjectAttendanceOf computes the standing of one subject from its records.
// catalog may be nil.
func SubjectAttendanceOf(name string, records []model.AttendanceRecord, catalog *model.Subject) dto.SubjectAttendance {
	out := dto.SubjectAttendance{Subject: name, Records: len(records)}

	attended := 0.0
	for i := range records {
		attended += records[i].AttendedHours
	}
	out.AttendedHours = round2(attended)

	if catalog == nil {
		return out
	}
	out.InCatalog = true
	out.Subject = catalog.Name
	out.ScheduledHours = catalog.ScheduledHours
	out.MinAttendancePercent = catalog.MinAttendancePercent
	if catalog.ScheduledHours <= 0 {
		return out
	}

	required := catalog.MinAttendancePercent / 100 * catalog.ScheduledHours
	out.AttendancePercent = round2(attended / catalog.ScheduledHours * 100)
	out.RequiredHours = round2(required)
	out.MoreHoursNeeded = round2(math.Max(0, required-attended))
	out.Eligible = attended >= required
	return out
}

// SummarizeAttendance groups records by subject, case-insensitively, and
// adds every catalog subject without records. Subjects are sorted by name.
// The overall percentage covers only subjects with scheduled hours.
func SummarizeAttendance(records []model.AttendanceRecord, catalog []model.Subject) dto.AttendanceSummaryResponse {
	type group struct {
		name    string
		records []model.AttendanceRecord
		catalog *model.Subject
	}
	groups := make(map[string]*group)
	var keys []string
	lookup := func(name string) *group {
		key := strings.ToLower(strings.TrimSpace(name))
		g, ok := groups[key]
		if !ok {
			g = &group{name: name}
			groups[key] = g
			keys = append(keys, key)
		}
		return g
	}

	for i := range catalog {
		lookup(catalog[i].Name).catalog = &catalog[i]
	}
	for _, r := range records {
		g := lookup(r.Subject)
		g.records = append(g.records, r)
	}
	sort.Strings(keys)

	summary := dto.AttendanceSummaryResponse{
		TotalRecords: len(records),
		Subjects:     make([]dto.SubjectAttendance, 0, len(keys)),
	}
	scheduledAttended := 0.0
	for _, key := range keys {
		g := groups[key]
		standing := SubjectAttendanceOf(g.name, g.records, g.catalog)
		summary.Subjects = append(summary.Subjects, standing)
		summary.TotalAttendedHours += standing.AttendedHours
		if standing.ScheduledHours > 0 {
			summary.TotalScheduledHours += standing.ScheduledHours
			scheduledAttended += standing.AttendedHours
		}
	}
	summary.TotalAttendedHours = round2(summary.TotalAttendedHours)
	if summary.TotalScheduledHours > 0 {
		summary.OverallPercent = round2(scheduledAttended / summary.TotalScheduledHours * 100)
	}
	return summary
}

// ════════════════════════════════════════════════════════════
// Marks progress
// ════════════════════════════════════════════════════════════

// Grade maps an average percentage to a letter grade.
func Grade(percent float64) string {
	switch {
	case percent >= 90:
		return "A+"
	case percent >= 80:
		return "A"
	case percent >= 70:
		return "B+"
	case percent >= 60:
		return "B"
	case percent >= 50:
		return "C+"
	case percent >= 40:
		return "C"
	default:
		return "F"
	}
}

// SummarizeMarks computes overall and per-subject progress. marks must be
// newest first; the first recent of them are returned as Recent.
func SummarizeMarks(marks []model.Mark, catalog []model.Subject, recent int) dto.ProgressResponse {
	names := make(map[string]string, len(catalog))
	for _, s := range catalog {
		names[s.SubjectID] = s.Name
	}

	type tally struct {
		passed, failed int
		percentSum     float64
	}
	bySubject := make(map[string]*tally)
	var order []string

	progress := dto.ProgressResponse{
		TotalAssessments: len(marks),
		Subjects:         make([]dto.SubjectProgress, 0),
		Recent:           make([]dto.MarkResponse, 0),
	}
	percentSum := 0.0
	for i := range marks {
		m := &marks[i]
		t, ok := bySubject[m.SubjectID]
		if !ok {
			t = &tally{}
			bySubject[m.SubjectID] = t
			order = append(order, m.SubjectID)
		}
		if m.Passed() {
			t.passed++
			progress.Passed++
		} else {
			t.failed++
			progress.Failed++
		}
		t.percentSum += m.Percentage()
		percentSum += m.Percentage()

		if i < recent {
			progress.Recent = append(progress.Recent, ToMarkResponse(m, names[m.SubjectID]))
		}
	}

	if n := len(marks); n > 0 {
		progress.AveragePercent = round2(percentSum / float64(n))
		progress.PassPercent = round2(float64(progress.Passed) * 100 / float64(n))
		progress.FailPercent = round2(float64(progress.Failed) * 100 / float64(n))
		progress.Grade = Grade(progress.AveragePercent)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return strings.ToLower(names[order[i]]) < strings.ToLower(names[order[j]])
	})
	for _, id := range order {
		t := bySubject[id]
		count := t.passed + t.failed
		avg := round2(t.percentSum / float64(count))
		progress.Subjects = append(progress.Subjects, dto.SubjectProgress{
			SubjectID:      id,
			SubjectName:    names[id],
			Assessments:    count,
			Passed:         t.passed,
			Failed:         t.failed,
			AveragePercent: avg,
			Grade:          Grade(avg),
		})
	}
	return progress
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
