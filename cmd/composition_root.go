package cmd

import (
	"fmt"
	"log/slog"

	httpadapter "ordertrack/internal/adapters/in/http"
	"ordertrack/internal/adapters/out/ordersapi"
	"ordertrack/internal/adapters/out/postgres"
	"ordertrack/internal/adapters/out/postgres/snapshotcache"
	"ordertrack/internal/adapters/out/redisfeed"
	"ordertrack/internal/adapters/out/wsfeed"
	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/jobs"
	"ordertrack/internal/pkg/metrics"
	"ordertrack/internal/realtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires every adapter and use case of the order tracking
// service. Construction registers the Prometheus counters exactly once.
type CompositionRoot struct {
	gormDB     *gorm.DB
	logger     *slog.Logger
	repository ports.OrderRepository
	feed       ports.ChangeFeed
	cache      *snapshotcache.Cache
	aggregator services.Aggregator

	staleRegressions prometheus.Counter
	pushReconnects   prometheus.Counter
	pullCycles       prometheus.Counter
}

// NewCompositionRoot builds the object graph from configuration.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (CompositionRoot, error) {
	unknownStatuses := metrics.NewUnknownStatusTokensTotal()
	staleRegressions := metrics.NewStaleRegressionsTotal()
	pushReconnects := metrics.NewPushReconnectsTotal()
	pullCycles := metrics.NewPullCyclesTotal()
	degradedAggregations := metrics.NewDegradedAggregationsTotal()
	repositoryRetries := metrics.NewRepositoryRetriesTotal()
	prometheus.MustRegister(
		unknownStatuses,
		staleRegressions,
		pushReconnects,
		pullCycles,
		degradedAggregations,
		repositoryRetries,
	)

	client, err := ordersapi.NewClient(config.OrdersAPIBaseURL, ordersapi.DefaultRequestTimeout, logger)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("failed to create orders API client: %w", err)
	}
	repository := ordersapi.NewRetryingRepository(
		client.WithUnknownStatusCounter(unknownStatuses),
		logger,
		repositoryRetries,
		ordersapi.DefaultRetryConfig(),
	)

	feed, err := newChangeFeed(config, logger)
	if err != nil {
		return CompositionRoot{}, err
	}

	cache, err := snapshotcache.NewCache(postgres.NewGormUnitOfWorkFactory(gormDB))
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	return CompositionRoot{
		gormDB:           gormDB,
		logger:           logger,
		repository:       repository,
		feed:             feed,
		cache:            cache,
		aggregator:       services.NewAggregator(logger, degradedAggregations),
		staleRegressions: staleRegressions,
		pushReconnects:   pushReconnects,
		pullCycles:       pullCycles,
	}, nil
}

// newChangeFeed selects the push transport from configuration. An empty kind
// disables push entirely; trackers then run pull-only and report Degraded.
func newChangeFeed(config Config, logger *slog.Logger) (ports.ChangeFeed, error) {
	switch config.ChangeFeedKind {
	case "websocket":
		feed, err := wsfeed.NewFeed(config.ChangeFeedWSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create websocket change feed: %w", err)
		}
		return feed, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisHost,
			Password: config.RedisPassword,
		})
		feed, err := redisfeed.NewFeed(client, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis change feed: %w", err)
		}
		return feed, nil
	case "":
		logger.Warn("no change feed configured, trackers will run pull-only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown change feed kind %q", config.ChangeFeedKind)
	}
}

func (c *CompositionRoot) CreateAddItemCommandHandler() commands.AddItemCommandHandler {
	return commands.NewAddItemCommandHandler(c.repository, c.aggregator, commands.SystemClock{})
}

func (c *CompositionRoot) CreateEditItemQuantityCommandHandler() commands.EditItemQuantityCommandHandler {
	return commands.NewEditItemQuantityCommandHandler(c.repository, c.aggregator, commands.SystemClock{})
}

func (c *CompositionRoot) CreateRemoveItemCommandHandler() commands.RemoveItemCommandHandler {
	return commands.NewRemoveItemCommandHandler(c.repository, c.aggregator, commands.SystemClock{})
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.repository, c.aggregator, commands.SystemClock{})
}

func (c *CompositionRoot) CreateGetOrderViewQueryHandler() (queries.GetOrderViewQueryHandler, error) {
	return queries.NewGetOrderViewQueryHandler(c.repository, c.cache, c.aggregator, queries.SystemClock{})
}

func (c *CompositionRoot) CreateListActiveOrdersQueryHandler() queries.ListActiveOrdersQueryHandler {
	return queries.NewListActiveOrdersQueryHandler(c.gormDB)
}

// CreateTrackerFactory returns the factory the stream endpoint uses to spin
// up one realtime tracker per connection. Every tracker shares the snapshot
// cache tier; the in-memory tier is per tracker.
func (c *CompositionRoot) CreateTrackerFactory() httpadapter.TrackerFactory {
	return func(orderID kernel.UUID) (*realtime.Tracker, error) {
		memory := realtime.NewMemorySource()
		source := realtime.NewChain(
			realtime.NewRepositorySource(c.repository),
			memory,
			realtime.NewCacheSource(c.cache),
		)

		return realtime.NewTracker(orderID, realtime.TrackerDeps{
			Source:     source,
			Feed:       c.feed,
			Aggregator: c.aggregator,
			Memory:     memory,
			Cache:      c.cache,
			Logger:     c.logger,
		},
			realtime.WithStaleCounter(c.staleRegressions),
			realtime.WithReconnectCounter(c.pushReconnects),
			realtime.WithPullCounter(c.pullCycles),
		)
	}
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.repository, c.cache, c.logger)
}

// CreateServer assembles the HTTP server over all use cases.
func (c *CompositionRoot) CreateServer() (*httpadapter.Server, error) {
	viewHandler, err := c.CreateGetOrderViewQueryHandler()
	if err != nil {
		return nil, err
	}

	return httpadapter.NewServer(
		c.CreateAddItemCommandHandler(),
		c.CreateEditItemQuantityCommandHandler(),
		c.CreateRemoveItemCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		viewHandler,
		c.CreateListActiveOrdersQueryHandler(),
		c.aggregator,
		c.CreateTrackerFactory(),
	), nil
}
