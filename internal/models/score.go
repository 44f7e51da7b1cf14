package models

import "time"

// StudentScore is the term mark of a student for an offering on the canonical scale.
// Once IsFinal is set the row no longer accepts writes.
type StudentScore struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	OfferingID   string    `db:"offering_id" json:"offering_id"`
	TermID       string    `db:"term_id" json:"term_id"`
	Score        float64   `db:"score" json:"score"`
	Observations *string   `db:"observations" json:"observations,omitempty"`
	GradedBy     string    `db:"graded_by" json:"graded_by"`
	GradedAt     time.Time `db:"graded_at" json:"graded_at"`
	IsFinal      bool      `db:"is_final" json:"is_final"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentScoreWithSubject adds the subject of the offering for report cards.
type StudentScoreWithSubject struct {
	StudentScore
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// StudentScoreFilter scopes listing queries.
type StudentScoreFilter struct {
	StudentID  string
	OfferingID string
	TermID     string
	IsFinal    *bool
}

// ManualScore is an ad-hoc mark such as participation, out of MaxScore.
type ManualScore struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	OfferingID  string    `db:"offering_id" json:"offering_id"`
	TermID      string    `db:"term_id" json:"term_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Score       float64   `db:"score" json:"score"`
	MaxScore    float64   `db:"max_score" json:"max_score"`
	GradedBy    string    `db:"graded_by" json:"graded_by"`
	GradedAt    time.Time `db:"graded_at" json:"graded_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TaskType classifies assessments.
type TaskType string

const (
	TaskTypeHomework TaskType = "homework"
	TaskTypeExam     TaskType = "exam"
	TaskTypeQuiz     TaskType = "quiz"
	TaskTypeProject  TaskType = "project"
	TaskTypeActivity TaskType = "activity"
)

// Task is an assessment of an offering within a term.
type Task struct {
	ID          string     `db:"id" json:"id"`
	OfferingID  string     `db:"offering_id" json:"offering_id"`
	TermID      string     `db:"term_id" json:"term_id"`
	Title       string     `db:"title" json:"title"`
	Type        TaskType   `db:"type" json:"type"`
	MaxScore    float64    `db:"max_score" json:"max_score"`
	Weight      float64    `db:"weight" json:"weight"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	IsPublished bool       `db:"is_published" json:"is_published"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// SubmissionStatus tracks a task submission.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusLate      SubmissionStatus = "late"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusReturned  SubmissionStatus = "returned"
)

// TaskSubmission is a student's answer to a task. Only graded rows carry a score.
type TaskSubmission struct {
	ID          string           `db:"id" json:"id"`
	TaskID      string           `db:"task_id" json:"task_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Score       *float64         `db:"score" json:"score,omitempty"`
	Feedback    *string          `db:"feedback" json:"feedback,omitempty"`
	Status      SubmissionStatus `db:"status" json:"status"`
	GradedBy    *string          `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt    *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// GradedTaskScore joins a graded submission with its task scale and weight.
type GradedTaskScore struct {
	TaskID   string  `db:"task_id" json:"task_id"`
	Title    string  `db:"title" json:"title"`
	Score    float64 `db:"score" json:"score"`
	MaxScore float64 `db:"max_score" json:"max_score"`
	Weight   float64 `db:"weight" json:"weight"`
}

// ReportCardItem is one offering line of a report card.
type ReportCardItem struct {
	OfferingID string  `json:"offering_id"`
	SubjectID  string  `json:"subject_id"`
	Score      float64 `json:"score"`
	Letter     string  `json:"letter"`
	Passed     bool    `json:"passed"`
	IsFinal    bool    `json:"is_final"`
}

// ReportCard aggregates a student's term marks. Average is nil when there are none.
type ReportCard struct {
	StudentID     string           `json:"student_id"`
	TermID        string           `json:"term_id"`
	Items         []ReportCardItem `json:"items"`
	Average       *float64         `json:"average"`
	TotalSubjects int              `json:"total_subjects"`
	Passed        int              `json:"passed"`
	Failed        int              `json:"failed"`
}

// GradeComponent is one weighted input of a computed term grade.
type GradeComponent struct {
	Source     string  `json:"source"`
	SourceID   string  `json:"source_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
}

// OfferingTermGrade is the computed term grade for one offering.
type OfferingTermGrade struct {
	StudentID  string           `json:"student_id"`
	OfferingID string           `json:"offering_id"`
	TermID     string           `json:"term_id"`
	Components []GradeComponent `json:"components"`
	Grade      *float64         `json:"grade"`
	Letter     string           `json:"letter,omitempty"`
	Passed     *bool            `json:"passed,omitempty"`
}

// PeriodGradeTerm is a term score weighted by the term's share of the period.
type PeriodGradeTerm struct {
	TermID  string  `db:"term_id" json:"term_id"`
	Number  int     `db:"number" json:"number"`
	Score   float64 `db:"score" json:"score"`
	Weight  float64 `db:"weight" json:"weight"`
	IsFinal bool    `db:"is_final" json:"is_final"`
}

// PeriodGrade is the period final for one offering computed from term scores.
type PeriodGrade struct {
	StudentID  string            `json:"student_id"`
	OfferingID string            `json:"offering_id"`
	Terms      []PeriodGradeTerm `json:"terms"`
	Grade      *float64          `json:"grade"`
	Passed     *bool             `json:"passed,omitempty"`
}

// Valid reports whether the task type is supported.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeHomework, TaskTypeExam, TaskTypeQuiz, TaskTypeProject, TaskTypeActivity:
		return true
	default:
		return false
	}
}

// Valid reports whether the submission status is supported.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusSubmitted, SubmissionStatusLate, SubmissionStatusGraded, SubmissionStatusReturned:
		return true
	default:
		return false
	}
}
