package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ── PostgreSQL TIME column type ──

// TimeOfDay is a wall-clock time without a date, as seconds since midnight.
// It implements the GORM Scanner/Valuer interfaces for PostgreSQL TIME.
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf returns the wall-clock part of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second returns the second component.
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }

// After reports whether t is strictly later than u.
func (t TimeOfDay) After(u TimeOfDay) bool { return t > u }

// Sub returns the duration t-u.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration { return time.Duration(t-u) * time.Second }

// On returns the instant at t on the given day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// HHMM formats the time as "HH:MM".
func (t TimeOfDay) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// String formats "HH:MM", adding seconds only when they are non-zero.
func (t TimeOfDay) String() string {
	if t.Second() == 0 {
		return t.HHMM()
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Scan parses the PostgreSQL TIME representation.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	case []byte:
		return t.scanText(string(v))
	case string:
		return t.scanText(v)
	default:
		return fmt.Errorf("TimeOfDay.Scan: unsupported type %T", src)
	}
}

func (t *TimeOfDay) scanText(s string) error {
	// drop fractional seconds, e.g. "09:00:00.000000"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return fmt.Errorf("TimeOfDay.Scan: %w", err)
	}
	*t = parsed
	return nil
}

// Value serializes to "HH:MM:SS".
func (t TimeOfDay) Value() (driver.Value, error) {
	if t < 0 || t >= secondsPerDay {
		return nil, fmt.Errorf("TimeOfDay.Value: out of range %d", int(t))
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second()), nil
}

// MarshalJSON encodes the time as a string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
