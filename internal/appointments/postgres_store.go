package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	listTypesSQL = `SELECT name, duration_minutes FROM appointment_types ORDER BY name`

	reservedSQL = `SELECT to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
FROM appointments
WHERE appointment_date = $1::date
ORDER BY start_time`

	insertSQL = `INSERT INTO appointments (id, appointment_type, appointment_date, start_time, end_time, booked_at)
VALUES ($1, $2, $3::date, $4::time, $5::time, $6)`
)

// PostgresStore implements Store on the schema in migrations/.
type PostgresStore struct {
	db    pgxQuerier
	newID func() uuid.UUID
	now   func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a pgx pool (or anything with the same query surface).
func NewPostgresStore(db pgxQuerier) *PostgresStore {
	if db == nil {
		panic("appointments: postgres pool required")
	}
	return &PostgresStore{db: db, newID: uuid.New, now: time.Now}
}

func (s *PostgresStore) ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	rows, err := s.db.Query(ctx, listTypesSQL)
	if err != nil {
		return nil, fmt.Errorf("appointments: list appointment types: %w", err)
	}
	defer rows.Close()

	var out []AppointmentType
	for rows.Next() {
		var t AppointmentType
		if err := rows.Scan(&t.Name, &t.DurationMinutes); err != nil {
			return nil, fmt.Errorf("appointments: scan appointment type: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list appointment types: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ReservedIntervals(ctx context.Context, date time.Time) ([]schedule.Interval, error) {
	day := date.Format(schedule.DateLayout)
	rows, err := s.db.Query(ctx, reservedSQL, day)
	if err != nil {
		return nil, fmt.Errorf("appointments: load reservations for %s: %w", day, err)
	}
	defer rows.Close()

	var out []schedule.Interval
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("appointments: scan reservation: %w", err)
		}
		iv, err := parseInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("appointments: reservation on %s: %w", day, err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: load reservations for %s: %w", day, err)
	}
	return out, nil
}

func (s *PostgresStore) InsertAppointment(ctx context.Context, appt NewAppointment) (*Appointment, error) {
	id := s.newID()
	bookedAt := s.now().UTC()
	_, err := s.db.Exec(ctx, insertSQL,
		id,
		appt.AppointmentType,
		appt.Date.Format(schedule.DateLayout),
		appt.Start.String(),
		appt.End.String(),
		bookedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert appointment: %w", err)
	}
	return &Appointment{NewAppointment: appt, ID: id.String(), BookedAt: bookedAt}, nil
}
