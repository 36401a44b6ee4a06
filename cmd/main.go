package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"tachi/internal/adapters/ai"
	"tachi/internal/adapters/config"
	"tachi/internal/adapters/errors/noop"
	"tachi/internal/adapters/errors/sentry"
	"tachi/internal/agents"
	"tachi/internal/api"
	"tachi/internal/api/health"
	"tachi/internal/crew"
	"tachi/internal/events"
	"tachi/internal/jobs"
	"tachi/internal/metrics"
	"tachi/internal/pipeline"
	"tachi/internal/tools"
	"tachi/internal/tools/catalog"
	"tachi/internal/tools/market"
	"tachi/internal/tools/sentiment"
	"tachi/internal/tools/shared"
	"tachi/internal/workers"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := initRedis(cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	registry, limiters, err := ai.BuildRegistry(ctx, cfg.AI, redisClient)
	if err != nil {
		log.Fatalf("Failed to set up AI providers: %v", err)
	}

	analysisCrew, err := agents.BuildCrew(registry, limiters, initTools(cfg, log), cfg.AI)
	if err != nil {
		log.Fatalf("Failed to build agent crew: %v", err)
	}

	executor := pipeline.NewExecutor(analysisCrew, pipeline.Options{
		TaskRetries:    cfg.Analysis.TaskRetries,
		TaskRetryDelay: cfg.Analysis.TaskRetryDelay,
		ParallelLimit:  cfg.Analysis.ParallelTaskLimit,
	})
	service := crew.NewService(executor)

	store, pgStore := initStore(cfg, log)
	defer func() { _ = store.Close() }()

	publisher := initPublisher(cfg, log)
	defer func() { _ = publisher.Close() }()

	metrics.Register()

	manager := jobs.NewManager(store, service.Runner(), publisher, cfg.Analysis)

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewJanitorWorker(store, cfg.Workers.JanitorInterval))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	healthHandler := health.New(log, pgDB(pgStore), redisClient, analysisCrew, cfg.App.Name, version)
	server := api.NewServer(api.ServerConfig{
		Port:        cfg.API.Port,
		ServiceName: cfg.App.Name,
		Version:     version,
	}, api.NewHandler(manager), healthHandler, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("System initialized successfully")
	waitForShutdown(ctx, cancel, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Job manager shutdown: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Errorf("Scheduler shutdown: %v", err)
	}
	_ = errorTracker.Flush(shutdownCtx)

	log.Info("Shutdown complete")
}

// initErrorTracker picks Sentry when configured, the no-op tracker otherwise.
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initRedis connects to Redis when an address is configured. Without it the
// rate limiters run in-process only.
func initRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info("Redis not configured, using in-process rate limiting")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client
}

// initTools wires the market data and news clients into the tool registry.
func initTools(cfg *config.Config, log *logger.Logger) *tools.Registry {
	deps := shared.Deps{
		Log:    log,
		Market: market.NewClient(cfg.Tools.MarketBaseURL, cfg.Tools.RequestTimeout, cfg.Tools.MarketReqPerMinute),
		News:   sentiment.NewNewsClient(cfg.Tools.NewsBaseURL, cfg.Tools.RequestTimeout),
	}

	registry := tools.NewRegistry()
	catalog.RegisterDefaults(registry, deps, catalog.Options{
		Retries:    cfg.Tools.Retries,
		RetryDelay: cfg.Tools.RetryDelay,
		Timeout:    cfg.Tools.RequestTimeout,
	})
	return registry
}

// initStore selects the job store backend. The postgres store is returned
// separately so the health handler can ping it.
func initStore(cfg *config.Config, log *logger.Logger) (jobs.Store, *jobs.PostgresStore) {
	if cfg.JobStore.Driver != "postgres" {
		log.Info("Using in-memory job store")
		return jobs.NewMemoryStore(), nil
	}

	store, err := jobs.NewPostgresStore(cfg.JobStore.DSN)
	if err != nil {
		log.Fatalf("Failed to connect job store: %v", err)
	}
	log.Info("Using postgres job store")
	return store, store
}

// initPublisher selects the job event sink.
func initPublisher(cfg *config.Config, log *logger.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("Kafka not configured, job events disabled")
		return events.NoopPublisher{}
	}

	log.Info("Kafka job events enabled", "topic", cfg.Kafka.Topic)
	return events.NewKafkaPublisher(cfg.Kafka)
}

func pgDB(store *jobs.PostgresStore) *sqlx.DB {
	if store == nil {
		return nil
	}
	return store.DB()
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received signal %s, shutting down...", sig)
		cancel()
	case <-ctx.Done():
	}
}
