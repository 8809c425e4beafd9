// Package schedule models a business day as a half-hour grid and computes
// which start times remain bookable.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
)

// SlotMinutes is the width of one grid cell.
const SlotMinutes = 30

// ErrInvalidTimeOfDay is returned for anything that is not a valid HH:MM clock value.
var ErrInvalidTimeOfDay = errors.New("schedule: invalid time of day")

// TimeOfDay is a local wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// At builds a TimeOfDay from an hour and minute.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// SplitClock checks the HH:MM shape and returns both components. It does not
// range-check them, so "25:61" splits fine.
func SplitClock(raw string) (hour, minute int, ok bool) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, 0, false
	}
	if !isDigits(raw[:2]) || !isDigits(raw[3:]) {
		return 0, 0, false
	}
	hour, errH := strconv.Atoi(raw[:2])
	minute, errM := strconv.Atoi(raw[3:])
	if errH != nil || errM != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// ParseTimeOfDay parses a strict 24-hour HH:MM value.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	hour, minute, ok := SplitClock(raw)
	if !ok || hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return At(hour, minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// OnGrid reports whether t falls on a half-hour boundary.
func (t TimeOfDay) OnGrid() bool {
	return t.Minute()%SlotMinutes == 0
}

// String renders the zero-padded HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
