package academic

import "fmt"

// ScopeKind names the resource a timetable must keep free of overlaps.
type ScopeKind string

const (
	ScopeSection ScopeKind = "SECTION"
	ScopeTeacher ScopeKind = "TEACHER"
)

// Scope identifies a section or a teacher within one academic period.
type Scope struct {
	Kind             ScopeKind
	ID               string
	AcademicPeriodID string
}

// SectionScope builds the section scope for a period.
func SectionScope(sectionID, periodID string) Scope {
	return Scope{Kind: ScopeSection, ID: sectionID, AcademicPeriodID: periodID}
}

// TeacherScope builds the teacher scope for a period.
func TeacherScope(teacherID, periodID string) Scope {
	return Scope{Kind: ScopeTeacher, ID: teacherID, AcademicPeriodID: periodID}
}

// LockKey is a stable key used to serialise writers of the same scope.
func (s Scope) LockKey() string {
	return fmt.Sprintf("timetable:%s:%s:%s", s.Kind, s.AcademicPeriodID, s.ID)
}

// Slot is an existing booking within a scope.
type Slot struct {
	ID       string
	Interval Interval
	Active   bool
}

// FindConflict returns the first active slot that overlaps the candidate.
// The slot whose id equals excludeID is skipped so edits never collide with themselves.
func FindConflict(candidate Interval, existing []Slot, excludeID string) (Slot, bool) {
	for _, slot := range existing {
		if !slot.Active {
			continue
		}
		if excludeID != "" && slot.ID == excludeID {
			continue
		}
		if candidate.Overlaps(slot.Interval) {
			return slot, true
		}
	}
	return Slot{}, false
}

// HasConflict reports whether the candidate overlaps any active slot.
func HasConflict(candidate Interval, existing []Slot, excludeID string) bool {
	_, found := FindConflict(candidate, existing, excludeID)
	return found
}
