package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflictSkipsExcludedSlot(t *testing.T) {
	existing := []Slot{{ID: "slot-1", Interval: mustInterval(t, "monday", "08:00", "09:00"), Active: true}}

	assert.False(t, HasConflict(existing[0].Interval, existing, "slot-1"))
	assert.True(t, HasConflict(existing[0].Interval, existing, ""))
}

func TestFindConflictIgnoresInactiveSlots(t *testing.T) {
	existing := []Slot{{ID: "slot-1", Interval: mustInterval(t, "monday", "08:00", "09:00"), Active: false}}
	assert.False(t, HasConflict(mustInterval(t, "monday", "08:30", "09:30"), existing, ""))
}

func TestFindConflictReturnsFirstOverlap(t *testing.T) {
	existing := []Slot{
		{ID: "slot-1", Interval: mustInterval(t, "monday", "07:00", "08:00"), Active: true},
		{ID: "slot-2", Interval: mustInterval(t, "monday", "08:30", "09:30"), Active: true},
		{ID: "slot-3", Interval: mustInterval(t, "monday", "09:00", "10:00"), Active: true},
	}
	slot, found := FindConflict(mustInterval(t, "monday", "08:00", "09:15"), existing, "")
	require.True(t, found)
	assert.Equal(t, "slot-2", slot.ID)
}

func TestTeacherDoubleBookingScenario(t *testing.T) {
	// Section A books the teacher 08:00-08:45; section B competes for the same teacher.
	teacherSlots := []Slot{{ID: "a-1", Interval: mustInterval(t, "monday", "08:00", "08:45"), Active: true}}

	overlapping := mustInterval(t, "monday", "08:30", "09:15")
	slot, found := FindConflict(overlapping, teacherSlots, "")
	require.True(t, found)
	assert.Equal(t, "a-1", slot.ID)

	adjacent := mustInterval(t, "monday", "08:45", "09:30")
	assert.False(t, HasConflict(adjacent, teacherSlots, ""))
}

func TestScopeLockKeyIsDistinctPerKind(t *testing.T) {
	section := SectionScope("x", "period-1")
	teacher := TeacherScope("x", "period-1")
	assert.NotEqual(t, section.LockKey(), teacher.LockKey())
	assert.Equal(t, section.LockKey(), SectionScope("x", "period-1").LockKey())
}
