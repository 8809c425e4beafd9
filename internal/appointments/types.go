// Package appointments is the persistence side of booking: the appointment
// type catalog, reservations per date, and appointment inserts.
package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

// ErrInvalidRecord indicates a stored row could not be mapped to the domain.
var ErrInvalidRecord = errors.New("appointments: invalid record")

// AppointmentType is a bookable service with a fixed duration.
type AppointmentType struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
}

// NewAppointment is what the dialog collects before booking.
type NewAppointment struct {
	AppointmentType string
	Date            time.Time
	Start           schedule.TimeOfDay
	End             schedule.TimeOfDay
}

// Appointment is a persisted booking.
type Appointment struct {
	NewAppointment
	ID       string
	BookedAt time.Time
}

// CatalogReader lists every appointment type.
type CatalogReader interface {
	ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error)
}

// ReservationReader returns the reserved intervals on one date.
type ReservationReader interface {
	ReservedIntervals(ctx context.Context, date time.Time) ([]schedule.Interval, error)
}

// AppointmentWriter persists a booking and returns its new identifier.
type AppointmentWriter interface {
	InsertAppointment(ctx context.Context, appt NewAppointment) (*Appointment, error)
}

// Store is the full persistence adapter consumed by the fulfillment hook.
type Store interface {
	CatalogReader
	ReservationReader
	AppointmentWriter
}

// EventPublisher announces bookings to downstream consumers.
type EventPublisher interface {
	PublishBooked(ctx context.Context, appt Appointment) error
}

// Catalog is the loaded set of appointment types.
type Catalog []AppointmentType

// Lookup finds a type by name, ignoring case and surrounding space.
func (c Catalog) Lookup(name string) (AppointmentType, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return AppointmentType{}, false
	}
	for _, t := range c {
		if strings.ToLower(t.Name) == key {
			return t, true
		}
	}
	return AppointmentType{}, false
}

// Names returns the type names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, t := range c {
		names = append(names, t.Name)
	}
	return names
}

func parseInterval(start, end string) (schedule.Interval, error) {
	s, err := schedule.ParseTimeOfDay(strings.TrimSpace(start))
	if err != nil {
		return schedule.Interval{}, errors.Join(ErrInvalidRecord, err)
	}
	e, err := schedule.ParseTimeOfDay(strings.TrimSpace(end))
	if err != nil {
		return schedule.Interval{}, errors.Join(ErrInvalidRecord, err)
	}
	if e <= s {
		return schedule.Interval{}, errors.Join(ErrInvalidRecord, errors.New("appointments: interval ends before it starts"))
	}
	return schedule.Interval{Start: s, End: e}, nil
}
