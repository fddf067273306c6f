package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"indicatorEngine/config"
	"indicatorEngine/internal/adapters/binanceclient"
	"indicatorEngine/internal/adapters/cache"
	"indicatorEngine/internal/adapters/httpapi"
	"indicatorEngine/internal/adapters/logger"
	"indicatorEngine/internal/adapters/sqlite"
	"indicatorEngine/internal/app"
	"indicatorEngine/internal/engine"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/metrics"
	"indicatorEngine/internal/ports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel.String(), Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized", map[string]interface{}{"path": cfg.DBPath})

	// 4. Initialize Market Data Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := waitForProvider(ctx, binanceClient, appLogger, cfg.ReconnectDelay, cfg.MaxReconnectAttempts); err != nil {
		// stored history still serves requests
		appLogger.Warn(ctx, "Binance API unreachable, continuing with stored data", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Result Cache
	resultCache := newResultCache(ctx, cfg, appLogger)

	// 6. Initialize Metrics and Engine
	recorder := metrics.New()
	eng := engine.New(engine.WithObserver(recorder))

	// 7. Resolve the default indicator configuration
	defaultIndicators := indicatorconfig.FromPreset(cfg.DefaultPreset)
	if cfg.IndicatorConfigFile != "" {
		defaultIndicators, err = indicatorconfig.Load(cfg.IndicatorConfigFile)
		if err != nil {
			log.Fatalf("FATAL: Failed to load indicator configuration: %v", err)
		}
	}
	appLogger.Info(ctx, "Default indicators resolved", map[string]interface{}{"indicators": defaultIndicators.Keys()})

	// 8. Initialize Application Service
	service, err := app.NewIndicatorService(app.Config{
		Fetcher:         binanceClient,
		Repository:      repo,
		Cache:           resultCache,
		Logger:          appLogger,
		Metrics:         recorder,
		Engine:          eng,
		CacheTTL:        cfg.CacheTTL,
		Workers:         cfg.Workers,
		DefaultInterval: cfg.DefaultInterval,
		DefaultPeriod:   cfg.DefaultPeriod,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize indicator service: %v", err)
	}

	// 9. Serve HTTP until a shutdown signal arrives
	server, err := httpapi.NewServer(
		httpapi.NewHandler(service, appLogger, defaultIndicators),
		httpapi.ServerConfig{Addr: cfg.HTTPAddr, Logger: appLogger, Metrics: recorder.Handler()},
	)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			appLogger.Error(context.Background(), err, "HTTP server exited with error")
			os.Exit(1)
		}
	}
	if err := server.Stop(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server shutdown failed")
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

type pinger interface {
	Ping(ctx context.Context) error
}

// waitForProvider pings the market data API until it answers or the
// attempts run out.
func waitForProvider(ctx context.Context, p pinger, logger ports.Logger, delay time.Duration, attempts int) error {
	var err error
	for attempt := 0; attempt <= attempts; attempt++ {
		if err = p.Ping(ctx); err == nil {
			logger.Info(ctx, "Binance API reachable")
			return nil
		}
		logger.Warn(ctx, "Binance API ping failed", map[string]interface{}{"attempt": attempt + 1, "error": err.Error()})
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
	}
	return err
}

// newResultCache connects to Redis when an address is configured and falls
// back to an in-process cache otherwise.
func newResultCache(ctx context.Context, cfg *config.Config, logger ports.Logger) ports.ResultCache {
	if cfg.RedisAddr == "" {
		logger.Info(ctx, "Using in-memory result cache")
		return cache.NewMemoryCache(1000)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn(ctx, "Redis unavailable, using in-memory result cache", map[string]interface{}{"error": err.Error()})
		return cache.NewMemoryCache(1000)
	}
	logger.Info(ctx, "Redis result cache connected", map[string]interface{}{"addr": cfg.RedisAddr})
	return rc
}
