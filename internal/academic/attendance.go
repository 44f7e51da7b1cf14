package academic

import (
	"fmt"
	"strings"
)

// AttendanceStatus is the outcome recorded for one student on one date.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// DefaultAttendanceThreshold is the minimum percentage that meets the requirement.
const DefaultAttendanceThreshold = 75.0

// ParseAttendanceStatus rejects anything outside the four known statuses.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	status := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return status, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown attendance status %q", raw)}
}

// AttendancePolicy holds the requirement threshold and the empty-scope outcome.
type AttendancePolicy struct {
	ThresholdPercent float64
	// VacuousPass decides the result for a scope with no records.
	VacuousPass bool
}

// DefaultAttendancePolicy passes at 75% and treats an empty scope as fully attended.
func DefaultAttendancePolicy() AttendancePolicy {
	return AttendancePolicy{ThresholdPercent: DefaultAttendanceThreshold, VacuousPass: true}
}

// StatusCounts tallies records per status.
type StatusCounts struct {
	Present int `db:"present" json:"present"`
	Absent  int `db:"absent" json:"absent"`
	Late    int `db:"late" json:"late"`
	Excused int `db:"excused" json:"excused"`
}

// Total returns the number of records.
func (c StatusCounts) Total() int {
	return c.Present + c.Absent + c.Late + c.Excused
}

// Add increments the counter for status.
func (c *StatusCounts) Add(status AttendanceStatus) error {
	switch status {
	case StatusPresent:
		c.Present++
	case StatusAbsent:
		c.Absent++
	case StatusLate:
		c.Late++
	case StatusExcused:
		c.Excused++
	default:
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown attendance status %q", status)}
	}
	return nil
}

// AttendanceSummary is the attendance rate for one scope.
type AttendanceSummary struct {
	Total            int     `json:"total"`
	Present          int     `json:"present"`
	Absent           int     `json:"absent"`
	Late             int     `json:"late"`
	Excused          int     `json:"excused"`
	Attended         int     `json:"attended"`
	Percentage       float64 `json:"percentage"`
	MeetsRequirement bool    `json:"meets_requirement"`
}

// Aggregate tallies statuses and summarises them.
func (p AttendancePolicy) Aggregate(statuses []AttendanceStatus) (AttendanceSummary, error) {
	var counts StatusCounts
	for _, status := range statuses {
		if err := counts.Add(status); err != nil {
			return AttendanceSummary{}, err
		}
	}
	return p.Summarize(counts), nil
}

// Summarize applies the percentage formula to pre-tallied counts.
// Late and excused count as attended.
func (p AttendancePolicy) Summarize(counts StatusCounts) AttendanceSummary {
	summary := AttendanceSummary{
		Total:    counts.Total(),
		Present:  counts.Present,
		Absent:   counts.Absent,
		Late:     counts.Late,
		Excused:  counts.Excused,
		Attended: counts.Present + counts.Late + counts.Excused,
	}
	if summary.Total == 0 {
		if p.VacuousPass {
			summary.Percentage = 100
			summary.MeetsRequirement = true
		}
		return summary
	}
	summary.Percentage = Round2(float64(summary.Attended) / float64(summary.Total) * 100)
	summary.MeetsRequirement = summary.Percentage >= p.ThresholdPercent
	return summary
}

// AtRiskCount counts summaries that miss the requirement.
func AtRiskCount(summaries []AttendanceSummary) int {
	count := 0
	for _, s := range summaries {
		if !s.MeetsRequirement {
			count++
		}
	}
	return count
}
