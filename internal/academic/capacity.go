package academic

// CanAdmit reports whether one more active enrollment fits.
// A nil capacity means the section is unbounded.
func CanAdmit(capacity *int, activeCount int) bool {
	if capacity == nil {
		return true
	}
	return activeCount < *capacity
}

// RemainingSeats returns the free seats or nil for an unbounded section.
func RemainingSeats(capacity *int, activeCount int) *int {
	if capacity == nil {
		return nil
	}
	remaining := *capacity - activeCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
