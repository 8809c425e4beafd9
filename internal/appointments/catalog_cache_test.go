package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

type countingStore struct {
	types   []AppointmentType
	listErr error
	lists   int
}

func (s *countingStore) ListAppointmentTypes(context.Context) ([]AppointmentType, error) {
	s.lists++
	return s.types, s.listErr
}

func (s *countingStore) ReservedIntervals(context.Context, time.Time) ([]schedule.Interval, error) {
	return []schedule.Interval{{Start: schedule.At(9, 0), End: schedule.At(10, 0)}}, nil
}

func (s *countingStore) InsertAppointment(_ context.Context, appt NewAppointment) (*Appointment, error) {
	return &Appointment{NewAppointment: appt, ID: "id-1"}, nil
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedCatalogStore_ReadThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := &countingStore{types: []AppointmentType{{Name: "Cleaning", DurationMinutes: 60}}}
	store := NewCachedCatalogStore(next, client, time.Minute, nil)
	ctx := context.Background()

	first, err := store.ListAppointmentTypes(ctx)
	require.NoError(t, err)
	second, err := store.ListAppointmentTypes(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.lists, "second read should be served from redis")
	assert.True(t, mr.Exists(catalogCacheKey))

	mr.FastForward(2 * time.Minute)
	_, err = store.ListAppointmentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.lists, "expired entry should fall through")
}

func TestCachedCatalogStore_ReplacesCorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := &countingStore{types: []AppointmentType{{Name: "Consultation", DurationMinutes: 30}}}
	store := NewCachedCatalogStore(next, client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, mr.Set(catalogCacheKey, "{not json"))
	got, err := store.ListAppointmentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.types, got)
	assert.Equal(t, 1, next.lists)

	cached, err := mr.Get(catalogCacheKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Consultation","durationMinutes":30}]`, cached)
}

func TestCachedCatalogStore_DoesNotCacheEmptyCatalog(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := &countingStore{}
	store := NewCachedCatalogStore(next, client, time.Minute, nil)
	ctx := context.Background()

	got, err := store.ListAppointmentTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists(catalogCacheKey))

	next.types = []AppointmentType{{Name: "Cleaning", DurationMinutes: 60}}
	got, err = store.ListAppointmentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.types, got)
	assert.Equal(t, 2, next.lists)
	assert.True(t, mr.Exists(catalogCacheKey))
}

func TestCachedCatalogStore_DegradesWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	next := &countingStore{types: []AppointmentType{{Name: "Cleaning", DurationMinutes: 60}}}
	store := NewCachedCatalogStore(next, client, time.Minute, nil)

	got, err := store.ListAppointmentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, next.types, got)
}

func TestCachedCatalogStore_PassesThroughOtherCalls(t *testing.T) {
	_, client := setupTestRedis(t)
	next := &countingStore{listErr: errors.New("scan failed")}
	store := NewCachedCatalogStore(next, client, time.Minute, nil)

	_, err := store.ListAppointmentTypes(context.Background())
	assert.EqualError(t, err, "scan failed")

	reserved, err := store.ReservedIntervals(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, reserved, 1)
}
