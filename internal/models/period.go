package models

import "time"

// AcademicPeriod is a school year. Offerings, sections and enrollments belong to one.
type AcademicPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Term is a grading window inside an academic period.
type Term struct {
	ID               string    `db:"id" json:"id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	Name             string    `db:"name" json:"name"`
	Number           int       `db:"number" json:"number"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	Weight           float64   `db:"weight" json:"weight"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
