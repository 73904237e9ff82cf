package dto

// ── Attendance ──

// CreateAttendanceRequest records one attended session. A zero
// AttendedHours means the whole session was attended.
type CreateAttendanceRequest struct {
	Subject        string  `json:"subject" binding:"required,max=200"`
	AttendanceDate string  `json:"attendance_date" binding:"required"` // YYYY-MM-DD
	StartTime      string  `json:"start_time" binding:"required"`      // HH:MM
	EndTime        string  `json:"end_time" binding:"required"`        // HH:MM
	AttendedHours  float64 `json:"attended_hours" binding:"gte=0"`
}

// UpdateAttendanceRequest is a partial update; nil fields keep their value.
// Changing the times without AttendedHours re-derives the hours.
type UpdateAttendanceRequest struct {
	Subject        *string  `json:"subject" binding:"omitempty,max=200"`
	AttendanceDate *string  `json:"attendance_date"`
	StartTime      *string  `json:"start_time"`
	EndTime        *string  `json:"end_time"`
	AttendedHours  *float64 `json:"attended_hours" binding:"omitempty,gte=0"`
}

// AttendanceListQuery filters the list endpoint.
type AttendanceListQuery struct {
	Subject string `form:"subject"`
	From    string `form:"from"` // YYYY-MM-DD
	To      string `form:"to"`   // YYYY-MM-DD
}

// AttendanceResponse is a stored attendance record.
type AttendanceResponse struct {
	ID             string  `json:"id"`
	Subject        string  `json:"subject"`
	AttendanceDate string  `json:"attendance_date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	AttendedHours  float64 `json:"attended_hours"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// SubjectAttendance is the attendance standing of one subject. The
// scheduled hours and minimum percentage come from the subject catalog;
// InCatalog is false when the subject has no catalog entry.
type SubjectAttendance struct {
	Subject              string  `json:"subject"`
	InCatalog            bool    `json:"in_catalog"`
	Records              int     `json:"records"`
	AttendedHours        float64 `json:"attended_hours"`
	ScheduledHours       float64 `json:"scheduled_hours"`
	AttendancePercent    float64 `json:"attendance_percent"`
	MinAttendancePercent float64 `json:"min_attendance_percent"`
	RequiredHours        float64 `json:"required_hours"`
	MoreHoursNeeded      float64 `json:"more_hours_needed"`
	Eligible             bool    `json:"eligible"`
}

// AttendanceSummaryResponse totals attendance over every subject.
type AttendanceSummaryResponse struct {
	TotalRecords        int                 `json:"total_records"`
	TotalAttendedHours  float64             `json:"total_attended_hours"`
	TotalScheduledHours float64             `json:"total_scheduled_hours"`
	OverallPercent      float64             `json:"overall_attendance_percent"`
	Subjects            []SubjectAttendance `json:"subjects"`
}
