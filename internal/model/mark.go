package model

// Assessment types. Any other non-blank type is stored as given, upper-cased.
const (
	AssessmentQuiz       = "QUIZ"
	AssessmentAssignment = "ASSIGNMENT"
	AssessmentExam       = "EXAM"
)

// Mark is the result of one assessment in a catalog subject.
type Mark struct {
	MarkID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username       string `gorm:"type:varchar(100);not null;index"               json:"username"`
	SubjectID      string `gorm:"type:uuid;not null"                             json:"subject_id"`
	ObtainedMarks  int    `gorm:"not null"                                       json:"obtained_marks"`
	TotalMarks     int    `gorm:"not null"                                       json:"total_marks"`
	PassMarks      int    `gorm:"not null"                                       json:"pass_marks"`
	AssessmentType string `gorm:"type:varchar(50);not null"                      json:"assessment_type"`
	AssessmentDate string `gorm:"type:varchar(10);not null"                      json:"assessment_date"` // YYYY-MM-DD
	Remarks        string `gorm:"type:text"                                      json:"remarks,omitempty"`
	BaseModel
}

// TableName returns the table name.
func (Mark) TableName() string { return "marks" }

// Percentage is ObtainedMarks as a share of TotalMarks, 0 when TotalMarks is not positive.
func (m *Mark) Percentage() float64 {
	if m.TotalMarks <= 0 {
		return 0
	}
	return float64(m.ObtainedMarks) * 100 / float64(m.TotalMarks)
}

// Passed reports whether the obtained marks reach the pass mark.
func (m *Mark) Passed() bool { return m.ObtainedMarks >= m.PassMarks }
