package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/appointment-scheduler/cmd/mainconfig"
	"github.com/wolfman30/appointment-scheduler/internal/appointments"
	appconfig "github.com/wolfman30/appointment-scheduler/internal/config"
	"github.com/wolfman30/appointment-scheduler/internal/fulfillment"
	"github.com/wolfman30/appointment-scheduler/internal/observability/metrics"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

// ErrUnknownStoreBackend is returned for a STORE_BACKEND other than dynamodb or postgres.
var ErrUnknownStoreBackend = errors.New("bootstrap: unknown store backend")

// Fulfillment is the assembled booking hook plus the resources it holds.
type Fulfillment struct {
	Dispatcher *fulfillment.Dispatcher
	Store      appointments.Store
	closers    []func()
}

// Close releases pools and clients opened by BuildFulfillment.
func (f *Fulfillment) Close() {
	if f == nil {
		return
	}
	for i := len(f.closers) - 1; i >= 0; i-- {
		f.closers[i]()
	}
}

// BuildFulfillment wires config, AWS, storage, cache and publisher into a
// dispatcher. m may be nil.
func BuildFulfillment(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.FulfillmentMetrics) (*Fulfillment, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}

	out := &Fulfillment{}
	redisClient := BuildCatalogCacheClient(ctx, cfg, logger)
	if redisClient != nil {
		out.closers = append(out.closers, func() { _ = redisClient.Close() })
	}

	store, closeStore, err := BuildStore(ctx, cfg, awsCfg, redisClient, logger)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.closers = append(out.closers, closeStore)
	out.Store = store

	opts := []fulfillment.Option{fulfillment.WithMetrics(m)}
	if publisher := BuildPublisher(cfg, awsCfg); publisher != nil {
		opts = append(opts, fulfillment.WithPublisher(publisher))
	}
	orchestrator := fulfillment.NewOrchestrator(store, logger, opts...)
	out.Dispatcher = fulfillment.NewDispatcher(cfg.IntentName, orchestrator, logger)

	logger.Info("fulfillment hook ready",
		"store_backend", cfg.StoreBackend,
		"intent_name", cfg.IntentName,
		"catalog_cache", redisClient != nil,
		"booking_events", strings.TrimSpace(cfg.BookingEventsQueueURL) != "",
	)
	return out, nil
}

// BuildStore selects the appointment store for cfg.StoreBackend and wraps it
// with the Redis catalog cache when redisClient is set. Only the dynamodb
// backend builds an AWS client. The returned func
// closes any pool the store opened.
func BuildStore(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, redisClient *redis.Client, logger *logging.Logger) (appointments.Store, func(), error) {
	var (
		store   appointments.Store
		closeFn = func() {}
	)
	switch cfg.StoreBackend {
	case appconfig.StoreBackendDynamo, "":
		store = appointments.NewDynamoStore(mainconfig.NewDynamoDBClient(awsCfg, cfg), appointments.DynamoTables{
			AppointmentTypes: cfg.AppointmentTypesTable,
			Appointments:     cfg.AppointmentsTable,
			DateIndex:        cfg.AppointmentsDateIndex,
		}, logger)
	case appconfig.StoreBackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, errors.New("bootstrap: DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		store = appointments.NewPostgresStore(pool)
		closeFn = pool.Close
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStoreBackend, cfg.StoreBackend)
	}

	if redisClient != nil {
		store = appointments.NewCachedCatalogStore(store, redisClient, cfg.CatalogCacheTTL, logger)
	}
	return store, closeFn, nil
}

// BuildPublisher returns the SQS booking event publisher, or nil when no
// queue is configured.
func BuildPublisher(cfg *appconfig.Config, awsCfg aws.Config) appointments.EventPublisher {
	if cfg == nil || strings.TrimSpace(cfg.BookingEventsQueueURL) == "" {
		return nil
	}
	return appointments.NewSQSPublisher(mainconfig.NewSQSClient(awsCfg, cfg), cfg.BookingEventsQueueURL)
}
