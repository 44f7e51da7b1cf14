package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Only active counts toward capacity.
const (
	EnrollmentStatusActive      EnrollmentStatus = "active"
	EnrollmentStatusInactive    EnrollmentStatus = "inactive"
	EnrollmentStatusTransferred EnrollmentStatus = "transferred"
	EnrollmentStatusGraduated   EnrollmentStatus = "graduated"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "withdrawn"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusInactive, EnrollmentStatusTransferred,
		EnrollmentStatusGraduated, EnrollmentStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Enrollment places a student in a section for an academic period.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	SectionID        string           `db:"section_id" json:"section_id"`
	AcademicPeriodID string           `db:"academic_period_id" json:"academic_period_id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt       time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Notes            *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID        string
	SectionID        string
	AcademicPeriodID string
	Status           EnrollmentStatus
	Page             int
	PageSize         int
}
