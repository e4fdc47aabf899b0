package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/hawkinslabdev/rideway-sub002/config"
	"github.com/hawkinslabdev/rideway-sub002/internal/handlers"
	"github.com/hawkinslabdev/rideway-sub002/pkg/cryptox"
	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/health"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/maintenance"
	"github.com/hawkinslabdev/rideway-sub002/pkg/middleware"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/ratelimit"
	"github.com/hawkinslabdev/rideway-sub002/pkg/redis"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
	"github.com/hawkinslabdev/rideway-sub002/pkg/scheduler"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to bind config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx := context.Background()

	tracingShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  cfg.AppName,
		OTLPEnabled:  cfg.OTLPEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPProtocol: cfg.OTLPProtocol,
		OTLPInsecure: cfg.OTLPInsecure,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize tracing")
		os.Exit(1)
	}

	db, sqlxDB, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			// Redis only backs due-check throttling, so start without it.
			logger.WithError(err).Warn("redis unavailable, due-check throttling disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.ConfigEncryptionKey == "" {
		logger.Error("CONFIG_ENCRYPTION_KEY is required")
		os.Exit(1)
	}
	cipher, err := cryptox.NewCipher(cfg.ConfigEncryptionKey)
	if err != nil {
		logger.WithError(err).Error("failed to create config cipher")
		os.Exit(1)
	}

	motorcycleRepo := repositories.NewMotorcycleRepository(db, logger)
	taskRepo := repositories.NewTaskRepository(db, logger)
	recordRepo := repositories.NewRecordRepository(db, logger)
	integrationRepo := repositories.NewIntegrationRepository(db, logger)
	eventLogRepo := repositories.NewEventLogRepository(db, logger)

	httpClient := httpclient.NewClient(httpclient.Config{
		Timeout:         cfg.IntegrationTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}, logger)

	transports := map[models.IntegrationType]dispatch.Transport{
		models.IntegrationTypeWebhook:       dispatch.NewWebhookTransport(httpClient),
		models.IntegrationTypeHomeAssistant: dispatch.NewHomeAssistantTransport(httpClient),
		models.IntegrationTypeNtfy:          dispatch.NewNtfyTransport(httpClient),
	}

	dispatcher := dispatch.NewDispatcher(integrationRepo, eventLogRepo, cipher, transports, logger, cfg.IntegrationTimeout)

	debouncer := maintenance.NewDebouncer(cfg.NotificationCooldown, nil)
	service := maintenance.NewService(motorcycleRepo, taskRepo, recordRepo, dispatcher, debouncer, logger, nil)

	pruneStop := startDebouncerPrune(debouncer)
	defer close(pruneStop)

	var limits *ratelimit.Manager
	if redisClient != nil {
		limits = ratelimit.NewManager(redisClient, logger)
	}

	var dueScheduler *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		dueScheduler = scheduler.NewScheduler(taskRepo, service, limits, scheduler.Config{
			PollInterval: cfg.SchedulerPollInterval,
		}, logger)
		if err := dueScheduler.Start(ctx); err != nil {
			logger.WithError(err).Error("failed to start scheduler")
			os.Exit(1)
		}
	}

	e := newEcho(cfg, logger)

	checker := health.NewChecker(db, redisClient, version)
	checker.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	handlers.NewMotorcycleHandler(motorcycleRepo, service).RegisterRoutes(api)
	handlers.NewTaskHandler(taskRepo, motorcycleRepo, service).RegisterRoutes(api)
	handlers.NewRecordHandler(recordRepo, motorcycleRepo).RegisterRoutes(api)
	handlers.NewIntegrationHandler(integrationRepo, eventLogRepo, dispatcher, cipher).RegisterRoutes(api)
	handlers.NewEventHandler().RegisterRoutes(api)

	checker.SetReady(true)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if dueScheduler != nil {
		if err := dueScheduler.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Error("failed to stop scheduler cleanly")
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server cleanly")
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to flush traces")
	}
}

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (database.DB, *sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, nil, err
	}

	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return database.NewDatabaseInstance(sqlxDB, logger), sqlxDB, nil
}

func runMigrations(cfg config.Config, logger ectologger.Logger, sqlxDB *sqlx.DB) error {
	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return migrationService.Migrate(cfg.DatabaseName, driver)
}

// startDebouncerPrune keeps the debouncer's memory bounded for long-running
// processes. Close the returned channel to stop.
func startDebouncerPrune(debouncer *maintenance.Debouncer) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				debouncer.Prune()
			case <-stop:
				return
			}
		}
	}()
	return stop
}

func newEcho(cfg config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	if cfg.AuthEnabled {
		e.Use(middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID))
	}

	return e
}
