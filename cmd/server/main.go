package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/retailcore/internal/application/common"
	distributionapp "github.com/erp/retailcore/internal/application/distribution"
	inventoryapp "github.com/erp/retailcore/internal/application/inventory"
	ledgerapp "github.com/erp/retailcore/internal/application/ledger"
	transferapp "github.com/erp/retailcore/internal/application/transfer"
	"github.com/erp/retailcore/internal/infrastructure/cache"
	"github.com/erp/retailcore/internal/infrastructure/config"
	"github.com/erp/retailcore/internal/infrastructure/event"
	"github.com/erp/retailcore/internal/infrastructure/ids"
	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/erp/retailcore/internal/infrastructure/migration"
	"github.com/erp/retailcore/internal/infrastructure/persistence"
	"github.com/erp/retailcore/internal/infrastructure/telemetry"
	"github.com/erp/retailcore/internal/interfaces/http/handler"
	"github.com/erp/retailcore/internal/interfaces/http/middleware"
	"github.com/erp/retailcore/internal/interfaces/http/router"
	"github.com/erp/retailcore/migrations"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting retailcore",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("lock_backend", cfg.Lock.Backend),
	)

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		TracingEnabled:    cfg.Telemetry.Enabled,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log.Named("gorm"),
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:  cfg.Database.DBName,
	}, log); err != nil {
		return fmt.Errorf("database tracing: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := migrateSchema(db, cfg.Database.Driver, log); err != nil {
			return err
		}
	}

	backends, err := cache.NewBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Warn("failed to close cache backends", zap.Error(err))
		}
	}()

	exec := common.NewExecutor(cfg.Storage.Timeout, common.RetryPolicy{
		Attempts: cfg.Ledger.RetryAttempts,
		Initial:  cfg.Ledger.RetryInitial,
		Max:      cfg.Ledger.RetryMax,
	}, log)
	meter := providers.Meter("retailcore")
	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("business metrics: %w", err)
	}
	exec.SetBusinessMetrics(businessMetrics)

	serializer := event.NewDefaultSerializer()
	scope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(serializer))

	poolOwnerID, err := uuid.Parse(cfg.Ledger.InvestorPoolOwnerID)
	if err != nil {
		return fmt.Errorf("ledger.investor_pool_owner_id: %w", err)
	}

	inventoryService := inventoryapp.NewInventoryService(scope.Inventory(), exec)
	ledgerService := ledgerapp.NewLedgerService(scope.Ledger(), backends.Locker, exec)
	transferService := transferapp.NewTransferService(scope.Transfer(), backends.Locker, ids.NewGenerator(), exec, transferapp.Settings{
		PoolOwnerID: poolOwnerID,
		PoolRatio:   cfg.Distribution.PoolRatio,
	})
	distributionService := distributionapp.NewDistributionService(scope.Distribution(), backends.Locker, exec, cfg.Distribution.PoolRatio)

	pool, err := ledgerService.EnsureInvestorPool(ctx, poolOwnerID, cfg.Ledger.InvestorPoolName)
	if err != nil {
		return fmt.Errorf("open investor pool ledger: %w", err)
	}
	log.Info("investor pool ledger ready",
		zap.String("owner_id", pool.OwnerID.String()),
		zap.String("balance", pool.Balance.String()),
	)

	processor := startEventProcessing(ctx, cfg, db, serializer, backends, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
		go sweepRateLimiter(ctx, limiter, log)
	}

	checks := map[string]handler.Pinger{"database": db}
	if cfg.Lock.Backend == "redis" {
		checks["redis"] = backends
	}

	engine, err := router.New(router.Config{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Actor: middleware.ActorConfig{
			JWTEnabled: cfg.Auth.JWTEnabled,
			JWTSecret:  cfg.Auth.JWTSecret,
			JWTIssuer:  cfg.Auth.JWTIssuer,
		},
		RateLimiter:    limiter,
		Idempotency:    backends.Idempotency,
		IdempotencyTTL: cfg.Event.IdempotencyTTL,
	}, router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, version, checks),
		Inventory:    handler.NewInventoryHandler(inventoryService),
		Ledger:       handler.NewLedgerHandler(ledgerService),
		Transfer:     handler.NewTransferHandler(transferService),
		Distribution: handler.NewDistributionHandler(distributionService),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server forced to shut down", zap.Error(err))
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Warn("outbox processor did not stop cleanly", zap.Error(err))
		}
	}
	log.Info("server exited")
	return nil
}

// migrateSchema applies the embedded SQL migrations on postgres and
// AutoMigrate on sqlite
func migrateSchema(db *persistence.Database, driver string, log *zap.Logger) error {
	if driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("sqlite schema migrated")
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// the migrator is not closed: closing it would close the shared pool
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log.Named("migrate"))
	if err != nil {
		return err
	}
	return m.Up()
}

// startEventProcessing subscribes the audit handler and starts the outbox
// relay when enabled. It returns nil when the processor is disabled.
func startEventProcessing(ctx context.Context, cfg *config.Config, db *persistence.Database, serializer *event.Serializer, backends *cache.Backends, log *zap.Logger) *event.OutboxProcessor {
	if !cfg.Event.ProcessorEnabled {
		log.Info("outbox processor disabled")
		return nil
	}
	bus := event.NewInMemoryEventBus(log.Named("events"))
	audit := event.NewAuditLogHandler(log.Named("audit"))
	bus.Subscribe(event.NewIdempotentHandler(audit, backends.Idempotency, cfg.Event.IdempotencyTTL, log))

	processor := event.NewOutboxProcessor(event.NewGormOutboxRepository(db.DB), bus, serializer, event.ProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
	}, log.Named("outbox"))
	processor.Start(ctx)
	log.Info("outbox processor started",
		zap.Int("batch_size", cfg.Event.BatchSize),
		zap.Duration("poll_interval", cfg.Event.PollInterval),
	)
	return processor
}

func sweepRateLimiter(ctx context.Context, limiter *middleware.RateLimiter, log *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				log.Debug("rate limiter buckets dropped", zap.Int("dropped", n), zap.Int("tracked", limiter.Clients()))
			}
		}
	}
}
