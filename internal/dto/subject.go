package dto

// ── Subject catalog ──

// CreateSubjectRequest adds a subject to the caller's catalog.
type CreateSubjectRequest struct {
	Name                 string   `json:"name" binding:"required,max=200"`
	Code                 string   `json:"code" binding:"max=50"`
	Description          string   `json:"description"`
	TotalMarks           int      `json:"total_marks" binding:"gte=0"` // 0 means the default of 100
	PassMarks            *int     `json:"pass_marks" binding:"omitempty,gte=0"`
	ScheduledHours       float64  `json:"scheduled_hours" binding:"gte=0"`
	MinAttendancePercent *float64 `json:"min_attendance_percent" binding:"omitempty,gte=0,lte=100"`
}

// UpdateSubjectRequest is a partial update; nil fields keep their value.
type UpdateSubjectRequest struct {
	Name                 *string  `json:"name" binding:"omitempty,max=200"`
	Code                 *string  `json:"code" binding:"omitempty,max=50"`
	Description          *string  `json:"description"`
	TotalMarks           *int     `json:"total_marks" binding:"omitempty,gt=0"`
	PassMarks            *int     `json:"pass_marks" binding:"omitempty,gte=0"`
	ScheduledHours       *float64 `json:"scheduled_hours" binding:"omitempty,gte=0"`
	MinAttendancePercent *float64 `json:"min_attendance_percent" binding:"omitempty,gte=0,lte=100"`
}

// SubjectResponse is a catalog subject.
type SubjectResponse struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Code                 string  `json:"code,omitempty"`
	Description          string  `json:"description,omitempty"`
	TotalMarks           int     `json:"total_marks"`
	PassMarks            int     `json:"pass_marks"`
	ScheduledHours       float64 `json:"scheduled_hours"`
	MinAttendancePercent float64 `json:"min_attendance_percent"`
	CreatedAt            string  `json:"created_at,omitempty"`
	UpdatedAt            string  `json:"updated_at,omitempty"`
}
