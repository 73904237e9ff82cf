package model

// Subject is one course in a student's catalog. Name matches the subject of
// schedule entries and attendance records case-insensitively.
type Subject struct {
	SubjectID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username             string  `gorm:"type:varchar(100);not null;index"               json:"username"`
	Name                 string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Code                 string  `gorm:"type:varchar(50)"                               json:"code,omitempty"`
	Description          string  `gorm:"type:text"                                      json:"description,omitempty"`
	TotalMarks           int     `gorm:"not null"                                       json:"total_marks"`
	PassMarks            int     `gorm:"not null"                                       json:"pass_marks"`
	ScheduledHours       float64 `gorm:"type:double precision;not null"                 json:"scheduled_hours"`
	MinAttendancePercent float64 `gorm:"type:double precision;not null"                 json:"min_attendance_percent"`
	BaseModel
}

// TableName returns the table name.
func (Subject) TableName() string { return "subjects" }
