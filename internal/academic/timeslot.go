package academic

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Weekday is a teaching day. Sunday is not a school day.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays lists teaching days in timetable order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday accepts a case-insensitive day name.
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(strings.ToLower(strings.TrimSpace(raw)))
	if day.Index() < 0 {
		return "", &ValidationError{Field: "day_of_week", Message: fmt.Sprintf("unknown day %q", raw)}
	}
	return day, nil
}

// WeekdayOf maps a calendar date to its teaching day. Sundays report false.
func WeekdayOf(t time.Time) (Weekday, bool) {
	if t.Weekday() == time.Sunday {
		return "", false
	}
	return Weekdays[int(t.Weekday())-1], true
}

// Index returns the timetable position of the day or -1 when unknown.
func (d Weekday) Index() int {
	for i, candidate := range Weekdays {
		if candidate == d {
			return i
		}
	}
	return -1
}

func (d Weekday) String() string {
	return string(d)
}

// Clock is a wall-clock time stored as seconds after midnight.
type Clock int

const clockLayout = "15:04:05"

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)

// NormalizeClock turns HH:MM or HH:MM:SS into HH:MM:SS.
func NormalizeClock(raw string) (string, error) {
	c, err := ParseClock(raw)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ParseClock parses HH:MM or HH:MM:SS. Fractional seconds are rejected.
func ParseClock(raw string) (Clock, error) {
	value := strings.TrimSpace(raw)
	if !clockPattern.MatchString(value) {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q", raw)}
	}
	if strings.Count(value, ":") == 1 {
		value += ":00"
	}
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q", raw)}
	}
	return Clock(parsed.Hour()*3600 + parsed.Minute()*60 + parsed.Second()), nil
}

func (c Clock) String() string {
	secs := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Interval is a half-open [Start, End) range on a teaching day.
type Interval struct {
	Day   Weekday
	Start Clock
	End   Clock
}

// NewInterval validates raw input and builds an Interval.
func NewInterval(day, start, end string) (Interval, error) {
	weekday, err := ParseWeekday(day)
	if err != nil {
		return Interval{}, err
	}
	startClock, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	endClock, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	interval := Interval{Day: weekday, Start: startClock, End: endClock}
	if err := interval.Validate(); err != nil {
		return Interval{}, err
	}
	return interval, nil
}

// Validate enforces start < end.
func (i Interval) Validate() error {
	if i.Day.Index() < 0 {
		return &ValidationError{Field: "day_of_week", Message: fmt.Sprintf("unknown day %q", i.Day)}
	}
	if i.Start >= i.End {
		return &ValidationError{Field: "end_time", Message: "end time must be after start time"}
	}
	return nil
}

// Overlaps reports whether both intervals share a day and a common instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	if i.Day != other.Day {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether the clock falls inside the interval.
func (i Interval) Contains(c Clock) bool {
	return i.Start <= c && c < i.End
}
