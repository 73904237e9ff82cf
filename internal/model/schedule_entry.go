package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by special schedules.
const DateLayout = "2006-01-02"

// Notification preferences.
const (
	NotifyNone  = "NONE"
	NotifyEmail = "EMAIL"
	NotifyPush  = "PUSH"
	NotifyBoth  = "BOTH"
)

// ScheduleEntry is one class in a student's timetable (table schedule_entries).
//
// A regular entry recurs every week on Day. A special entry happens once on
// SpecialDate, and its Day is derived from that date.
type ScheduleEntry struct {
	ScheduleEntryID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Subject                string     `gorm:"type:varchar(200);not null"                     json:"subject"`
	Title                  string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Location               string     `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Lecturer               string     `gorm:"type:varchar(200)"                              json:"lecturer,omitempty"`
	Description            string     `gorm:"type:text"                                      json:"description,omitempty"`
	IsSpecialSchedule      bool       `gorm:"not null;default:false"                         json:"is_special_schedule"`
	Day                    *string    `gorm:"type:varchar(9);not null"                       json:"day,omitempty"`
	SpecialDate            *string    `gorm:"type:varchar(10)"                               json:"special_date,omitempty"` // YYYY-MM-DD
	StartTime              *TimeOfDay `gorm:"type:time;not null"                             json:"start_time,omitempty"`
	EndTime                *TimeOfDay `gorm:"type:time;not null"                             json:"end_time,omitempty"`
	IsWeekly               bool       `gorm:"not null"                                       json:"is_weekly"`
	NotificationPreference string     `gorm:"type:varchar(5);not null;default:'NONE'"        json:"notification_preference"`
	Username               string     `gorm:"type:varchar(100);not null;index"               json:"username"`
	DeviceToken            string     `gorm:"type:varchar(255)"                              json:"device_token,omitempty"`
	BaseModel

	// DisplayDate is stamped on regular entries expanded over a date range.
	DisplayDate string `gorm:"-" json:"display_date,omitempty"`
}

// TableName returns the table name.
func (ScheduleEntry) TableName() string { return "schedule_entries" }

// Weekdays lists the canonical upper-case weekday names, Monday first.
var Weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// WeekdayName returns the upper-case English name of d.
func WeekdayName(d time.Weekday) string {
	return strings.ToUpper(d.String())
}

// ParseWeekday maps a weekday name in any case to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if WeekdayName(d) == name {
			return d, true
		}
	}
	return 0, false
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateWeekday returns the weekday name of a YYYY-MM-DD date.
func DateWeekday(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return WeekdayName(t.Weekday()), nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t TimeOfDay) *TimeOfDay { return &t }

// DayValue returns Day or "".
func (e *ScheduleEntry) DayValue() string {
	if e.Day == nil {
		return ""
	}
	return *e.Day
}

// SpecialDateValue returns SpecialDate or "".
func (e *ScheduleEntry) SpecialDateValue() string {
	if e.SpecialDate == nil {
		return ""
	}
	return *e.SpecialDate
}

// EffectiveWeekday returns the weekday the entry occupies.
// A special entry whose day has not been derived yet falls back to its date.
func (e *ScheduleEntry) EffectiveWeekday() string {
	if day := e.DayValue(); day != "" {
		return strings.ToUpper(day)
	}
	if e.IsSpecialSchedule {
		if day, err := DateWeekday(e.SpecialDateValue()); err == nil {
			return day
		}
	}
	return ""
}

// FormattedTimeRange returns "HH:MM - HH:MM", or "" when a bound is missing.
func (e *ScheduleEntry) FormattedTimeRange() string {
	if e.StartTime == nil || e.EndTime == nil {
		return ""
	}
	return e.StartTime.HHMM() + " - " + e.EndTime.HHMM()
}

// IsActiveOnDate reports whether the entry is scheduled on date (YYYY-MM-DD).
// A malformed date never matches.
func (e *ScheduleEntry) IsActiveOnDate(date string) bool {
	if date == "" {
		return false
	}
	if e.IsSpecialSchedule {
		return date == e.SpecialDateValue()
	}
	day, err := DateWeekday(date)
	if err != nil {
		return false
	}
	return strings.EqualFold(day, e.DayValue())
}

// EffectiveDate is the long display form of the date the entry is shown on,
// e.g. "Monday, March 11, 2024"; it falls back to the day name.
func (e *ScheduleEntry) EffectiveDate() string {
	date := e.DisplayDate
	if e.IsSpecialSchedule && e.SpecialDate != nil {
		date = *e.SpecialDate
	}
	if date == "" {
		return e.DayValue()
	}
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}

// IsNotificationEnabled reports whether reminders were requested.
func (e *ScheduleEntry) IsNotificationEnabled() bool {
	return e.NotificationPreference != "" && e.NotificationPreference != NotifyNone
}

// WantsEmail reports whether reminders go out by email.
func (e *ScheduleEntry) WantsEmail() bool {
	return e.NotificationPreference == NotifyEmail || e.NotificationPreference == NotifyBoth
}

// WantsPush reports whether reminders go out as push notifications.
func (e *ScheduleEntry) WantsPush() bool {
	return e.NotificationPreference == NotifyPush || e.NotificationPreference == NotifyBoth
}
