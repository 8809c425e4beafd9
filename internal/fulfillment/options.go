package fulfillment

import (
	"fmt"
	"time"

	"github.com/wolfman30/appointment-scheduler/internal/appointments"
	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

const (
	dateOptionCount  = 5
	dateOptionLayout = "Monday, January 02, 2006"
)

func typeOptions(catalog appointments.Catalog) []lex.Button {
	options := make([]lex.Button, 0, len(catalog))
	for _, t := range catalog {
		options = append(options, lex.Button{
			Text:  fmt.Sprintf("%s (%d min)", t.Name, t.DurationMinutes),
			Value: t.Name,
		})
	}
	return options
}

// dateOptions lists the next open days after today.
func dateOptions(today time.Time) []lex.Button {
	options := make([]lex.Button, 0, dateOptionCount)
	day := schedule.DateOf(today)
	for len(options) < dateOptionCount {
		day = day.AddDate(0, 0, 1)
		if _, open := schedule.HoursFor(day); !open {
			continue
		}
		options = append(options, lex.Button{
			Text:  fmt.Sprintf("%d-%d (%s)", int(day.Month()), day.Day(), day.Weekday().String()[:3]),
			Value: day.Format(dateOptionLayout),
		})
	}
	return options
}

func timeOptions(slots []schedule.TimeOfDay) []lex.Button {
	n := min(len(slots), lex.MaxButtons)
	options := make([]lex.Button, 0, n)
	for _, t := range slots[:n] {
		label := schedule.FormatTime(t)
		options = append(options, lex.Button{Text: label, Value: label})
	}
	return options
}

var yesNoOptions = []lex.Button{{Text: "yes", Value: "yes"}, {Text: "no", Value: "no"}}

// AvailableTimeString offers up to three of at least two slots.
func AvailableTimeString(slots []schedule.TimeOfDay) string {
	prefix := "We have availabilities at "
	if len(slots) > 3 {
		prefix = "We have plenty of availability, including "
	}
	switch len(slots) {
	case 0:
		return ""
	case 1:
		return prefix + schedule.FormatTime(slots[0])
	case 2:
		return fmt.Sprintf("%s%s and %s", prefix, schedule.FormatTime(slots[0]), schedule.FormatTime(slots[1]))
	default:
		return fmt.Sprintf("%s%s, %s and %s", prefix,
			schedule.FormatTime(slots[0]), schedule.FormatTime(slots[1]), schedule.FormatTime(slots[2]))
	}
}
