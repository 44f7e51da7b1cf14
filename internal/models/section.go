package models

import "time"

// Section is a group of students in one academic period.
// A nil capacity means unbounded.
type Section struct {
	ID               string    `db:"id" json:"id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	GradeLevel       string    `db:"grade_level" json:"grade_level"`
	Name             string    `db:"name" json:"name"`
	Capacity         *int      `db:"capacity" json:"capacity"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SectionOccupancy pairs a section with its active enrollment count.
type SectionOccupancy struct {
	Section
	ActiveCount    int  `db:"active_count" json:"active_count"`
	RemainingSeats *int `db:"-" json:"remaining_seats"`
}

// SectionFilter describes list filters.
type SectionFilter struct {
	AcademicPeriodID string
	GradeLevel       string
	Active           *bool
	Page             int
	PageSize         int
}
