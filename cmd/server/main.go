package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iho/fintrack/internal/adapter/budget"
	httpAdapter "github.com/iho/fintrack/internal/adapter/http"
	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/adapter/rates"
	"github.com/iho/fintrack/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fintrack/internal/adapter/repository/redis"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/auth"
	"github.com/iho/fintrack/internal/infrastructure/clock"
	"github.com/iho/fintrack/internal/infrastructure/config"
	"github.com/iho/fintrack/internal/infrastructure/idgen"
	"github.com/iho/fintrack/internal/infrastructure/logger"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/infrastructure/notification"
	"github.com/iho/fintrack/internal/infrastructure/postgres"
	"github.com/iho/fintrack/internal/infrastructure/redis"
	"github.com/iho/fintrack/internal/infrastructure/retry"
	"github.com/iho/fintrack/internal/infrastructure/scheduler"
	"github.com/iho/fintrack/internal/usecase"
)

// limiterIdle is how long an owner's rate limiter survives without requests.
const limiterIdle = 10 * time.Minute

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339Nano
	appLogger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "fintrack",
	})
	log.Logger = appLogger
	zerolog.SetGlobalLevel(appLogger.GetLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, logger, registry)
	if err != nil {
		return err
	}
	defer a.close()

	// Background workers stop with bgCtx, after the HTTP server has drained.
	bgCtx, cancelBackground := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	for _, job := range a.background {
		wg.Add(1)
		go func(job func(context.Context) error) {
			defer wg.Done()
			if err := job(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("background job stopped")
			}
		}(job)
	}
	defer func() {
		cancelBackground()
		wg.Wait()
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// app is the wired service: its HTTP handler, background jobs and resources to release.
type app struct {
	handler    http.Handler
	background []func(context.Context) error
	closers    []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage groups the repositories of one backend.
type storage struct {
	tx        usecase.TransactionManager
	entries   usecase.EntryRepository
	summaries usecase.SummaryRepository
	logs      usecase.FinalizationLogRepository
	ledgers   usecase.LedgerRepository
	ping      handler.PingFunc
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	m := metrics.New(reg)

	store, err := openStorage(ctx, cfg, logger, a)
	if err != nil {
		a.close()
		return nil, err
	}

	// Redis backs the rate cache and idempotency keys when enabled.
	var (
		redisClient      *goredis.Client
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
		redisPing        handler.PingFunc
	)
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		logger.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		redisPing = redis.Check(redisClient)
	}

	peg := rates.Peg{Pegged: cfg.PegCurrency, Anchor: cfg.PegAnchor, Units: cfg.PegRate}
	normalizer := usecase.NewCurrencyNormalizer(
		newRateProvider(cfg, peg, cache, logger, m),
		newRateRetrier(cfg, logger),
		cfg.BaseCurrency,
		cfg.RateTimeout,
	).WithMetrics(m)

	policy, err := budget.NewStaticPolicy(cfg.BudgetLimits)
	if err != nil {
		a.close()
		return nil, err
	}
	logger.Info().Int("budgets", policy.Len()).Msg("budget policy loaded")

	dispatcher := notification.NewDispatcher(notification.Config{
		Logger:  logger,
		Metrics: m,
		Buffer:  cfg.NotificationBuffer,
	})
	a.background = append(a.background, dispatcher.Start)

	systemClock := clock.System{}
	ledger := usecase.NewLedgerUseCase(usecase.LedgerConfig{
		TxManager:   store.tx,
		EntryRepo:   store.entries,
		SummaryRepo: store.summaries,
		LogRepo:     store.logs,
		LedgerRepo:  store.ledgers,
		IDGen:       idgen.NewULIDGenerator(),
		Normalizer:  normalizer,
		Retrier:     newConflictRetrier(cfg, logger),
		Clock:       systemClock,
		Notifier:    dispatcher,
		Budget:      policy,
		Metrics:     m,
		Logger:      logger,
		TxTimeout:   cfg.TxTimeout,
	})
	reconciler := usecase.NewReconciliationUseCase(store.entries, store.summaries, ledger, systemClock)

	if cfg.AutoFinalizeEnabled {
		worker := scheduler.NewWorker(scheduler.Config{
			Sweeper:  usecase.NewAutoFinalizer(store.ledgers, ledger, logger),
			Logger:   logger,
			Interval: cfg.AutoFinalizeInterval,
		})
		a.background = append(a.background, worker.Start)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	a.background = append(a.background, func(ctx context.Context) error {
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				limiter.CleanupLimiters(limiterIdle)
			}
		}
	})

	routerCfg := httpAdapter.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(ledger),
		LedgerHandler:    handler.NewLedgerHandler(ledger, reconciler, normalizer.BaseCurrency()),
		CurrencyHandler:  handler.NewCurrencyHandler(normalizer.BaseCurrency(), &peg),
		HealthHandler:    handler.NewHealthHandler(store.ping, redisPing),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      limiter,
		Metrics:          m,
		Logger:           logger,
	}
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		routerCfg.MetricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	if cfg.AuthEnabled {
		routerCfg.Verifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		logger.Warn().Msg("authentication disabled; trusting the " + middleware.OwnerHeader + " header")
	}

	a.handler = httpAdapter.NewRouter(routerCfg)
	return a, nil
}

// openStorage opens the configured backend and registers its cleanup on a.
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger, a *app) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			tx:        store,
			entries:   memory.NewEntryRepository(store),
			summaries: memory.NewSummaryRepository(store),
			logs:      memory.NewFinalizationLogRepository(store),
			ledgers:   memory.NewLedgerRepository(store),
			ping:      store.Ping,
		}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	logger.Info().Msg("connected to postgres")

	return &storage{
		tx:        postgresRepo.NewTxManager(pool),
		entries:   postgresRepo.NewEntryRepository(pool),
		summaries: postgresRepo.NewSummaryRepository(pool),
		logs:      postgresRepo.NewFinalizationLogRepository(pool),
		ledgers:   postgresRepo.NewLedgerRepository(pool),
		ping:      pool.Ping,
	}, nil
}

// newRateProvider chains peg → cache → network. Pairs on the peg never leave the process.
func newRateProvider(cfg *config.Config, peg rates.Peg, cache usecase.Cache, logger zerolog.Logger, m *metrics.Metrics) usecase.RateProvider {
	network := rates.NewHTTPProvider(rates.HTTPConfig{
		BaseURL: cfg.RateAPIURL,
		Timeout: cfg.RateTimeout,
		Logger:  logger,
		Metrics: m,
	})
	cached := rates.NewCachedProvider(network, cache, cfg.RateCacheTTL, logger, m)
	return rates.NewPeggedProvider(peg, cached, m)
}

func newRateRetrier(cfg *config.Config, logger zerolog.Logger) usecase.Retrier {
	return retry.New(retry.Config{
		Name:            "rate",
		MaxAttempts:     cfg.RateMaxRetries + 1,
		InitialInterval: cfg.RateRetryInterval,
		MaxElapsedTime:  cfg.RateTimeout,
		Retryable: func(err error) bool {
			return errors.Is(err, domain.ErrRateUnavailable)
		},
		Logger: logger,
	})
}

func newConflictRetrier(cfg *config.Config, logger zerolog.Logger) usecase.Retrier {
	return retry.New(retry.Config{
		Name:            "ledger",
		MaxAttempts:     cfg.ConflictMaxRetries,
		InitialInterval: cfg.ConflictRetryInterval,
		Retryable: func(err error) bool {
			return errors.Is(err, domain.ErrVersionConflict)
		},
		Logger: logger,
	})
}
