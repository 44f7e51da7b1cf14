package models

import "time"

// Offering binds a subject, a teacher and a section for one academic period.
// Only Active changes after creation.
type Offering struct {
	ID               string    `db:"id" json:"id"`
	SectionID        string    `db:"section_id" json:"section_id"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OfferingFilter describes list filters for offerings.
type OfferingFilter struct {
	SectionID        string
	TeacherID        string
	SubjectID        string
	AcademicPeriodID string
	Active           *bool
	Page             int
	PageSize         int
}

// TimeSlot is a weekly booking of an offering. Section, teacher and period
// are copied from the offering so storage can enforce non-overlap per scope.
type TimeSlot struct {
	ID               string    `db:"id" json:"id"`
	OfferingID       string    `db:"offering_id" json:"offering_id"`
	SectionID        string    `db:"section_id" json:"section_id"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	DayOfWeek        string    `db:"day_of_week" json:"day_of_week"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	Classroom        *string   `db:"classroom" json:"classroom,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlotFilter describes query params for listing slots.
type TimeSlotFilter struct {
	AcademicPeriodID string
	SectionID        string
	TeacherID        string
	OfferingID       string
	DayOfWeek        string
	Active           *bool
	Page             int
	PageSize         int
}

// TimetableDay groups a weekday's slots in start order.
type TimetableDay struct {
	DayOfWeek string     `json:"day_of_week"`
	Slots     []TimeSlot `json:"slots"`
	// CurrentSlotID is set on today's timetable when a slot is in progress.
	CurrentSlotID string `json:"current_slot_id,omitempty"`
}

// ScheduleConflict describes an existing slot that blocks a write.
type ScheduleConflict struct {
	TimeSlotID string `json:"time_slot_id"`
	OfferingID string `json:"offering_id"`
	SectionID  string `json:"section_id"`
	TeacherID  string `json:"teacher_id"`
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Scope      string `json:"scope"`
	// Item is the 1-based position of the rejected candidate in a bulk request.
	Item int `json:"item,omitempty"`
}

// ScheduleConflictError is returned when a slot collides with an existing one.
type ScheduleConflictError struct {
	Scope    string             `json:"scope"`
	Message  string             `json:"message"`
	Conflict ScheduleConflict   `json:"conflict"`
	Errors   []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
