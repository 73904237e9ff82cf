package dto

// ── Schedule entry requests ──
//
// Required fields are not enforced by binding tags: the service reports
// each missing field with its own error code.

// CreateScheduleEntryRequest creates a schedule entry.
type CreateScheduleEntryRequest struct {
	Subject                string `json:"subject" binding:"max=200"`
	Title                  string `json:"title" binding:"max=200"`
	Location               string `json:"location" binding:"max=200"`
	Lecturer               string `json:"lecturer" binding:"max=200"`
	Description            string `json:"description"`
	IsSpecialSchedule      bool   `json:"is_special_schedule"`
	Day                    string `json:"day"`          // regular only, e.g. MONDAY
	SpecialDate            string `json:"special_date"` // special only, YYYY-MM-DD
	StartTime              string `json:"start_time"`   // HH:MM
	EndTime                string `json:"end_time"`     // HH:MM
	IsWeekly               *bool  `json:"is_weekly"`
	NotificationPreference string `json:"notification_preference"`
	Username               string `json:"username" binding:"max=100"` // defaults to the caller
	DeviceToken            string `json:"device_token" binding:"max=255"`
}

// UpdateScheduleEntryRequest is a partial update; nil fields keep their value.
type UpdateScheduleEntryRequest struct {
	Subject                *string `json:"subject" binding:"omitempty,max=200"`
	Title                  *string `json:"title" binding:"omitempty,max=200"`
	Location               *string `json:"location" binding:"omitempty,max=200"`
	Lecturer               *string `json:"lecturer" binding:"omitempty,max=200"`
	Description            *string `json:"description"`
	IsSpecialSchedule      *bool   `json:"is_special_schedule"`
	Day                    *string `json:"day"`
	SpecialDate            *string `json:"special_date"`
	StartTime              *string `json:"start_time"`
	EndTime                *string `json:"end_time"`
	IsWeekly               *bool   `json:"is_weekly"`
	NotificationPreference *string `json:"notification_preference"`
	Username               *string `json:"username" binding:"omitempty,max=100"`
	DeviceToken            *string `json:"device_token" binding:"omitempty,max=255"`
}

// ScheduleEntryListQuery filters the list endpoint.
type ScheduleEntryListQuery struct {
	Subject  string `form:"subject"`
	Location string `form:"location"`
	Lecturer string `form:"lecturer"`
	Type     string `form:"type" binding:"omitempty,oneof=regular special"`
}

// DateRangeQuery selects an inclusive date range.
type DateRangeQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

// ── Schedule entry responses ──

// ScheduleEntryResponse is a schedule entry with its display derivations.
type ScheduleEntryResponse struct {
	ID                     string `json:"id"`
	Subject                string `json:"subject"`
	Title                  string `json:"title"`
	Location               string `json:"location,omitempty"`
	Lecturer               string `json:"lecturer,omitempty"`
	Description            string `json:"description,omitempty"`
	IsSpecialSchedule      bool   `json:"is_special_schedule"`
	Day                    string `json:"day"`
	SpecialDate            string `json:"special_date,omitempty"`
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time"`
	IsWeekly               bool   `json:"is_weekly"`
	NotificationPreference string `json:"notification_preference"`
	Username               string `json:"username"`
	DisplayDate            string `json:"display_date,omitempty"`
	FormattedTimeRange     string `json:"formatted_time_range"`
	EffectiveDate          string `json:"effective_date"`
	CreatedAt              string `json:"created_at,omitempty"`
	UpdatedAt              string `json:"updated_at,omitempty"`
}

// HasClassResponse answers whether anything is scheduled on a date.
type HasClassResponse struct {
	Date     string `json:"date"`
	HasClass bool   `json:"has_class"`
}

// ImportScheduleResponse summarizes an ICS import.
type ImportScheduleResponse struct {
	ImportedCount int                     `json:"imported_count"`
	SkippedCount  int                     `json:"skipped_count"`
	Imported      []ScheduleEntryResponse `json:"imported"`
	Skipped       []SkippedEvent          `json:"skipped"`
}

// SkippedEvent is a calendar event that was not imported.
type SkippedEvent struct {
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}
