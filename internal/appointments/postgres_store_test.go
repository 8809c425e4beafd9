package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

func newMockPostgres(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock)
}

func TestPostgresStore_ListAppointmentTypes(t *testing.T) {
	mock, store := newMockPostgres(t)
	mock.ExpectQuery("SELECT name, duration_minutes FROM appointment_types").
		WillReturnRows(pgxmock.NewRows([]string{"name", "duration_minutes"}).
			AddRow("Cleaning", 60).
			AddRow("Consultation", 30))

	got, err := store.ListAppointmentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []AppointmentType{
		{Name: "Cleaning", DurationMinutes: 60},
		{Name: "Consultation", DurationMinutes: 30},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReservedIntervals(t *testing.T) {
	mock, store := newMockPostgres(t)
	mock.ExpectQuery("FROM appointments").
		WithArgs("2026-10-19").
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time"}).
			AddRow("09:00", "10:00").
			AddRow("15:30", "16:30"))

	got, err := store.ReservedIntervals(context.Background(), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []schedule.Interval{
		{Start: schedule.At(9, 0), End: schedule.At(10, 0)},
		{Start: schedule.At(15, 30), End: schedule.At(16, 30)},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReservedIntervalsPropagatesError(t *testing.T) {
	mock, store := newMockPostgres(t)
	mock.ExpectQuery("FROM appointments").
		WithArgs("2026-10-19").
		WillReturnError(errors.New("connection reset"))

	_, err := store.ReservedIntervals(context.Background(), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_InsertAppointment(t *testing.T) {
	mock, store := newMockPostgres(t)
	fixedID := uuid.MustParse("7d7a3f0e-1d7c-4c36-9a61-4f7f1f5d2a11")
	store.newID = func() uuid.UUID { return fixedID }

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(fixedID, "Consultation", "2026-10-19", "10:00", "10:30", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := store.InsertAppointment(context.Background(), NewAppointment{
		AppointmentType: "Consultation",
		Date:            time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Start:           schedule.At(10, 0),
		End:             schedule.At(10, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, fixedID.String(), saved.ID)
	assert.False(t, saved.BookedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
