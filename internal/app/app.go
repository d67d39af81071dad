package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Penlika/CoffeeShopApp/internal/auth"
	"github.com/Penlika/CoffeeShopApp/internal/config"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/feed"
	handler "github.com/Penlika/CoffeeShopApp/internal/handler/http"
	"github.com/Penlika/CoffeeShopApp/internal/provider"
	mockprovider "github.com/Penlika/CoffeeShopApp/internal/provider/mock"
	"github.com/Penlika/CoffeeShopApp/internal/provider/paypal"
	"github.com/Penlika/CoffeeShopApp/internal/repository/postgres"
	redisrepo "github.com/Penlika/CoffeeShopApp/internal/repository/redis"
	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	"github.com/Penlika/CoffeeShopApp/pkg/health"
	"github.com/Penlika/CoffeeShopApp/pkg/httpclient"
	pkgkafka "github.com/Penlika/CoffeeShopApp/pkg/kafka"
	"github.com/Penlika/CoffeeShopApp/pkg/tracing"
)

const serviceName = "coffeeshop"

// App wires together all dependencies and runs the coffee shop service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	relay          *pkgkafka.Consumer
	httpServer     *http.Server
	stopRouter     context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryMS > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))

	prometheus.MustRegister(
		database.NewPgxPoolCollector(pool, serviceName),
		database.NewRedisPoolCollector(rdb, serviceName),
	)

	// Initialize Kafka producer. The service runs degraded when brokers
	// are down; events are then only logged as failed.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := producer.Ping(ctx); err != nil {
		logger.Warn("kafka producer ping failed, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	paymentProvider, err := newPaymentProvider(cfg, logger)
	if err != nil {
		_ = producer.Close()
		_ = rdb.Close()
		pool.Close()
		return nil, err
	}
	logger.Info("payment provider selected", slog.String("provider", paymentProvider.Name()))

	// Build the dependency graph.
	items := postgres.NewItemRepository(pool)
	carts := redisrepo.NewCartRepository(rdb, cfg.CartTTL())
	events := event.NewProducer(producer, logger)

	svcs := handler.Services{
		Catalog:   service.NewCatalogService(items, logger),
		Ratings:   service.NewRatingService(items, postgres.NewCommentRepository(pool), events, logger),
		Cart:      service.NewCartService(carts, items, events, logger),
		Favorites: service.NewFavoriteService(postgres.NewFavoriteRepository(pool), items, logger),
		Cards:     service.NewCardService(postgres.NewCardRepository(pool), logger),
		Checkout: service.NewCheckoutService(carts, postgres.NewOrderRepository(pool), paymentProvider, events,
			service.CheckoutConfig{
				Currency:  cfg.PaymentCurrency,
				ReturnURL: cfg.PayPalReturnURL,
				CancelURL: cfg.PayPalCancelURL,
			}, logger),
	}

	// Live feeds: the relay turns domain events into Redis pub/sub updates
	// that the SSE streams of every instance listen on.
	hub := feed.NewHub(rdb, logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	relay := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     feed.RelayGroup,
		GroupTopics: feed.RelayTopics(),
		MinBytes:    1,
		MaxBytes:    10e6,
	}, pkgkafka.IdempotentHandler(
		pkgkafka.NewRedisIdempotencyStore(rdb, "idem:"+feed.RelayGroup, 24*time.Hour),
		feed.NewRelay(hub, logger).Handle,
		logger,
	), dlq, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterOptional("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	routerCtx, stopRouter := context.WithCancel(context.Background())
	verifier := auth.NewVerifier(cfg.JWTSecret)
	router := handler.NewRouter(routerCtx, svcs, hub, verifier.Validate, healthHandler, handler.RouterConfig{
		PprofCIDRs:     cfg.PprofAllowedCIDR,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		dlq:            dlq,
		relay:          relay,
		httpServer:     httpServer,
		stopRouter:     stopRouter,
		tracerShutdown: tracerShutdown,
	}, nil
}

func newPaymentProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch cfg.PaymentProvider {
	case config.ProviderMock:
		return mockprovider.NewProvider(), nil
	case config.ProviderPayPal:
		client := httpclient.New(httpclient.Config{
			Timeout:         10 * time.Second,
			MaxRetries:      2,
			RetryWaitMin:    200 * time.Millisecond,
			RetryWaitMax:    2 * time.Second,
			MaxConnsPerHost: 20,
		})
		cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("paypal"), logger)
		return paypal.New(paypal.Config{
			BaseURL:      cfg.PayPalBaseURL,
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
		}, cb, logger), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
}

// Run starts the HTTP server and the feed relay, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := a.relay.Start(ctx); err != nil {
			errCh <- fmt.Errorf("feed relay consumer: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// relay consumer, Kafka writers, Redis, PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Open SSE streams end when their request context is canceled.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		_ = a.httpServer.Close()
		errs = append(errs, err)
	}
	a.stopRouter()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.relay.Close(); err != nil {
		a.logger.Error("feed relay close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
