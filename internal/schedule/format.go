package schedule

import "fmt"

// FormatTime renders a clock value the way the assistant speaks it:
// "9:00 a.m.", "1:30 p.m.", "12:00 a.m." for midnight.
func FormatTime(t TimeOfDay) string {
	hour, minute := t.Hour(), t.Minute()
	switch {
	case hour > 12:
		return fmt.Sprintf("%d:%02d p.m.", hour-12, minute)
	case hour == 12:
		return fmt.Sprintf("12:%02d p.m.", minute)
	case hour == 0:
		return fmt.Sprintf("12:%02d a.m.", minute)
	default:
		return fmt.Sprintf("%d:%02d a.m.", hour, minute)
	}
}
