package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

const catalogCacheKey = "catalog:appointment_types"

// CachedCatalogStore serves ListAppointmentTypes from Redis and falls through
// to the wrapped Store on a miss. Reservations and inserts always go to the
// wrapped Store. Redis errors degrade to a direct read.
type CachedCatalogStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
	tracer trace.Tracer
}

// NewCachedCatalogStore wraps next with a Redis read-through for the catalog.
func NewCachedCatalogStore(next Store, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedCatalogStore {
	if next == nil {
		panic("appointments: wrapped store cannot be nil")
	}
	if redisClient == nil {
		panic("appointments: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedCatalogStore{
		Store:  next,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		tracer: otel.Tracer("scheduler.internal.appointments.catalog"),
	}
}

func (c *CachedCatalogStore) ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	ctx, span := c.tracer.Start(ctx, "appointments.list_types")
	defer span.End()

	data, err := c.redis.Get(ctx, catalogCacheKey).Bytes()
	switch {
	case err == nil:
		var cached []AppointmentType
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			span.SetAttributes(attribute.Bool("scheduler.cache_hit", true))
			return cached, nil
		}
		c.logger.Warn("appointments: discarding undecodable catalog cache entry")
	case !errors.Is(err, redis.Nil):
		span.RecordError(err)
		c.logger.Warn("appointments: catalog cache read failed", "error", err)
	}
	span.SetAttributes(attribute.Bool("scheduler.cache_hit", false))

	types, err := c.Store.ListAppointmentTypes(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(types) == 0 {
		return types, nil
	}
	if err := c.put(ctx, types); err != nil {
		c.logger.Warn("appointments: catalog cache write failed", "error", err)
	}
	return types, nil
}

func (c *CachedCatalogStore) put(ctx context.Context, types []AppointmentType) error {
	data, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, catalogCacheKey, data, c.ttl).Err()
}
