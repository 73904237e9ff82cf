package model

// AttendanceRecord is one attended session of a subject.
type AttendanceRecord struct {
	AttendanceID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username       string     `gorm:"type:varchar(100);not null;index"               json:"username"`
	Subject        string     `gorm:"type:varchar(200);not null"                     json:"subject"`
	AttendanceDate string     `gorm:"type:varchar(10);not null"                      json:"attendance_date"` // YYYY-MM-DD
	StartTime      *TimeOfDay `gorm:"type:time;not null"                             json:"start_time"`
	EndTime        *TimeOfDay `gorm:"type:time;not null"                             json:"end_time"`
	AttendedHours  float64    `gorm:"type:double precision;not null"                 json:"attended_hours"`
	BaseModel
}

// TableName returns the table name.
func (AttendanceRecord) TableName() string { return "attendance_records" }

// SessionHours is the length of the session in hours, or 0 when a bound is missing.
func (a *AttendanceRecord) SessionHours() float64 {
	if a.StartTime == nil || a.EndTime == nil {
		return 0
	}
	return a.EndTime.Sub(*a.StartTime).Hours()
}
