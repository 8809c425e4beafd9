package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// BusinessHours bounds the bookable grid for one day. Close is exclusive.
type BusinessHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

var (
	weekdayHours  = BusinessHours{Open: At(9, 0), Close: At(17, 0)}
	saturdayHours = BusinessHours{Open: At(10, 0), Close: At(16, 0)}
)

// WeekdayHours returns the Monday to Friday hours.
func WeekdayHours() BusinessHours { return weekdayHours }

// HoursFor returns the business hours for the date's weekday and whether the
// office is open at all. Sunday is closed.
func HoursFor(date time.Time) (BusinessHours, bool) {
	switch date.Weekday() {
	case time.Sunday:
		return BusinessHours{}, false
	case time.Saturday:
		return saturdayHours, true
	default:
		return weekdayHours, true
	}
}

// Grid returns every half-hour start from Open up to, but excluding, Close.
func (h BusinessHours) Grid() []TimeOfDay {
	if h.Close <= h.Open {
		return []TimeOfDay{}
	}
	grid := make([]TimeOfDay, 0, int(h.Close-h.Open)/SlotMinutes)
	for t := h.Open; t < h.Close; t = t.Add(SlotMinutes) {
		grid = append(grid, t)
	}
	return grid
}

// ParseDate parses a YYYY-MM-DD calendar date as a naive date in UTC.
func ParseDate(raw string) (time.Time, error) {
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: invalid date %q: %w", raw, err)
	}
	return date, nil
}

// DateOf strips the time of day from t, keeping the calendar date as seen in
// t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBeforeDate reports whether date falls on an earlier calendar day than ref.
func IsBeforeDate(date, ref time.Time) bool {
	return DateOf(date).Before(DateOf(ref))
}
