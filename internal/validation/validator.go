// Package validation checks user supplied slot values against the catalog
// and the office's business rules.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/appointment-scheduler/internal/appointments"
	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

const (
	msgUnknownTime   = "I did not recognize that, what time would you like to book your appointment?"
	msgHalfHour      = "We schedule appointments every half hour, what time works best for you?"
	msgUnknownDate   = "I did not recognize that date, what day would you like to book your appointment?"
	msgPastDate      = "Your appointment date is in the past!  Can you try a different date?"
	msgClosedWeekday = "Our office is not open on the weekends, can you provide a work day?"
)

// Result is the outcome of Validate. ViolatedSlot and Message are set only
// when Valid is false.
type Result struct {
	Valid        bool
	ViolatedSlot lex.SlotName
	Message      string
}

func ok() Result { return Result{Valid: true} }

func fail(slot lex.SlotName, message string) Result {
	return Result{ViolatedSlot: slot, Message: message}
}

// Validate runs the checks in order and reports the first violation. Empty
// date or time values are skipped; the appointment type is always checked.
// today is compared by calendar date only.
func Validate(catalog appointments.Catalog, typeName, date, clock string, today time.Time) Result {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if _, found := catalog.Lookup(typeName); !found {
		return fail(lex.SlotAppointmentType, unknownTypeMessage(catalog))
	}

	if clock != "" {
		if r := validateTime(clock, hoursForTime(date)); !r.Valid {
			return r
		}
	}

	if date != "" {
		parsed, err := schedule.ParseDate(date)
		if err != nil {
			return fail(lex.SlotDate, msgUnknownDate)
		}
		if schedule.IsBeforeDate(parsed, today) {
			return fail(lex.SlotDate, msgPastDate)
		}
		if _, open := schedule.HoursFor(parsed); !open {
			return fail(lex.SlotDate, msgClosedWeekday)
		}
	}

	return ok()
}

func validateTime(clock string, hours schedule.BusinessHours) Result {
	hour, minute, shaped := schedule.SplitClock(clock)
	if !shaped {
		return fail(lex.SlotTime, msgUnknownTime)
	}
	if hour < hours.Open.Hour() || hour > hours.Close.Hour() {
		return fail(lex.SlotTime, BusinessHoursMessage(hours))
	}
	if minute != 0 && minute != schedule.SlotMinutes {
		return fail(lex.SlotTime, msgHalfHour)
	}
	return ok()
}

// hoursForTime picks the hours a time is checked against. Weekday hours apply
// when the date is missing, malformed or on a closed day; the date check
// reports those cases itself.
func hoursForTime(date string) schedule.BusinessHours {
	parsed, err := schedule.ParseDate(date)
	if err != nil {
		return schedule.WeekdayHours()
	}
	hours, open := schedule.HoursFor(parsed)
	if !open {
		return schedule.WeekdayHours()
	}
	return hours
}

// BusinessHoursMessage tells the user when the office is open.
func BusinessHoursMessage(hours schedule.BusinessHours) string {
	return fmt.Sprintf("Our business hours are %s to %s What time works best for you?",
		schedule.FormatTime(hours.Open), schedule.FormatTime(hours.Close))
}

func unknownTypeMessage(catalog appointments.Catalog) string {
	return "I did not recognize that, can I book you a " + JoinAlternatives(catalog.Names(), "or") + "?"
}

// JoinAlternatives renders "a", "a or b", "a, b or c".
func JoinAlternatives(items []string, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " " + conjunction + " " + items[len(items)-1]
	}
}
