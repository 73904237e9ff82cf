package dto

// ── Marks ──

// CreateMarkRequest records an assessment result. Zero TotalMarks and a nil
// PassMarks take the subject's values.
type CreateMarkRequest struct {
	SubjectID      string `json:"subject_id" binding:"required"`
	ObtainedMarks  int    `json:"obtained_marks" binding:"gte=0"`
	TotalMarks     int    `json:"total_marks" binding:"gte=0"`
	PassMarks      *int   `json:"pass_marks" binding:"omitempty,gte=0"`
	AssessmentType string `json:"assessment_type" binding:"required,max=50"`
	AssessmentDate string `json:"assessment_date" binding:"required"` // YYYY-MM-DD
	Remarks        string `json:"remarks"`
}

// UpdateMarkRequest is a partial update; nil fields keep their value.
type UpdateMarkRequest struct {
	SubjectID      *string `json:"subject_id"`
	ObtainedMarks  *int    `json:"obtained_marks" binding:"omitempty,gte=0"`
	TotalMarks     *int    `json:"total_marks" binding:"omitempty,gt=0"`
	PassMarks      *int    `json:"pass_marks" binding:"omitempty,gte=0"`
	AssessmentType *string `json:"assessment_type" binding:"omitempty,max=50"`
	AssessmentDate *string `json:"assessment_date"`
	Remarks        *string `json:"remarks"`
}

// MarkListQuery filters the list endpoint.
type MarkListQuery struct {
	SubjectID      string `form:"subject_id"`
	AssessmentType string `form:"type"`
}

// MarkResponse is a stored mark with its derived standing.
type MarkResponse struct {
	ID              string  `json:"id"`
	SubjectID       string  `json:"subject_id"`
	SubjectName     string  `json:"subject_name,omitempty"`
	ObtainedMarks   int     `json:"obtained_marks"`
	TotalMarks      int     `json:"total_marks"`
	PassMarks       int     `json:"pass_marks"`
	Percentage      float64 `json:"percentage"`
	Passed          bool    `json:"passed"`
	MoreMarksNeeded int     `json:"more_marks_needed"`
	AssessmentType  string  `json:"assessment_type"`
	AssessmentDate  string  `json:"assessment_date"`
	Remarks         string  `json:"remarks,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// SubjectProgress is the marks standing of one subject.
type SubjectProgress struct {
	SubjectID      string  `json:"subject_id"`
	SubjectName    string  `json:"subject_name"`
	Assessments    int     `json:"assessments"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	AveragePercent float64 `json:"average_percentage"`
	Grade          string  `json:"grade"`
}

// ProgressResponse is the caller's overall academic progress.
type ProgressResponse struct {
	TotalAssessments int               `json:"total_assessments"`
	Passed           int               `json:"passed"`
	Failed           int               `json:"failed"`
	PassPercent      float64           `json:"pass_percentage"`
	FailPercent      float64           `json:"fail_percentage"`
	AveragePercent   float64           `json:"average_percentage"`
	Grade            string            `json:"grade"`
	Subjects         []SubjectProgress `json:"subjects"`
	Recent           []MarkResponse    `json:"recent"`
}
