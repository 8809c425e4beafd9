package schedule

import "time"

// Interval is a reserved [Start, End) span on a single date.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether t lies inside the half-open interval.
func (iv Interval) Contains(t TimeOfDay) bool {
	return iv.Start <= t && t < iv.End
}

// FreeSlots returns the grid points of hours not covered by any reserved
// interval, in chronological order.
func FreeSlots(hours BusinessHours, reserved []Interval) []TimeOfDay {
	grid := hours.Grid()
	free := make([]TimeOfDay, 0, len(grid))
	for _, t := range grid {
		if !isReserved(t, reserved) {
			free = append(free, t)
		}
	}
	return free
}

// FreeSlotsOn resolves the date's business hours before computing free slots.
// A closed day yields an empty slice.
func FreeSlotsOn(date time.Time, reserved []Interval) []TimeOfDay {
	hours, open := HoursFor(date)
	if !open {
		return []TimeOfDay{}
	}
	return FreeSlots(hours, reserved)
}

func isReserved(t TimeOfDay, reserved []Interval) bool {
	for _, iv := range reserved {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}
