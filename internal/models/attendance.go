package models

import (
	"time"

	"github.com/noah-isme/sma-academic-core/internal/academic"
)

// BulkOperationMode controls how bulk writes behave on errors.
type BulkOperationMode string

const (
	BulkModeAtomic         BulkOperationMode = "atomic"
	BulkModePartialOnError BulkOperationMode = "partialOnError"
)

// Attendance is one student's status for a section, and optionally an offering, on a date.
type Attendance struct {
	ID               string                    `db:"id" json:"id"`
	StudentID        string                    `db:"student_id" json:"student_id"`
	SectionID        string                    `db:"section_id" json:"section_id"`
	OfferingID       *string                   `db:"offering_id" json:"offering_id,omitempty"`
	AcademicPeriodID string                    `db:"academic_period_id" json:"academic_period_id"`
	Date             time.Time                 `db:"date" json:"date"`
	Status           academic.AttendanceStatus `db:"status" json:"status"`
	Notes            *string                   `db:"notes" json:"notes,omitempty"`
	RecordedBy       string                    `db:"recorded_by" json:"recorded_by"`
	CreatedAt        time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time                 `db:"updated_at" json:"updated_at"`
}

// AttendanceScope selects the records an aggregate runs over.
type AttendanceScope struct {
	StudentID        string
	SectionID        string
	AcademicPeriodID string
	OfferingID       *string
	DateFrom         *time.Time
	DateTo           *time.Time
}

// StudentStatusCounts is a per-student tally read from storage.
type StudentStatusCounts struct {
	StudentID string `db:"student_id"`
	academic.StatusCounts
}

// StudentAttendanceStats is the aggregate for one student.
type StudentAttendanceStats struct {
	StudentID string `json:"student_id"`
	academic.AttendanceSummary
}

// SectionAttendanceSummary rolls up a section report.
type SectionAttendanceSummary struct {
	TotalStudents    int     `json:"total_students"`
	AtRiskCount      int     `json:"at_risk_count"`
	PassingCount     int     `json:"passing_count"`
	ThresholdPercent float64 `json:"threshold_percent"`
}

// SectionAttendanceReport lists every actively enrolled student of a section.
type SectionAttendanceReport struct {
	SectionID        string                   `json:"section_id"`
	AcademicPeriodID string                   `json:"academic_period_id"`
	OfferingID       *string                  `json:"offering_id,omitempty"`
	Students         []StudentAttendanceStats `json:"students"`
	Summary          SectionAttendanceSummary `json:"summary"`
}

// AttendanceHistoryDay tallies a section's records on one date.
type AttendanceHistoryDay struct {
	Date time.Time `db:"date" json:"date"`
	academic.StatusCounts
	Records int `db:"total" json:"total"`
}

// AttendanceBulkConflict captures failed rows of a bulk write.
type AttendanceBulkConflict struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}
