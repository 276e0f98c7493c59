package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pantry-api/internal/cache"
	"pantry-api/internal/config"
	"pantry-api/internal/database"
	"pantry-api/internal/detect"
	"pantry-api/internal/handler"
	"pantry-api/internal/metrics"
	"pantry-api/internal/repository"
	"pantry-api/internal/router"
	"pantry-api/internal/service"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info().
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting pantry api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Open(ctx, database.Config{
		URL:             cfg.Database.URL,
		Driver:          cfg.Database.Driver,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		AcquireTimeout:  cfg.Database.AcquireTimeout,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		SSL: database.SSLPolicy{
			Mode:             cfg.Database.SSLMode,
			DisabledHosts:    cfg.Database.SSLDisabledHosts,
			DisabledSuffixes: cfg.Database.SSLDisabledSuffixes,
		},
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	dialect := pool.Dialect().Name

	m := metrics.Global()
	if err := metrics.RegisterDB(pool.DB(), dialect); err != nil {
		log.Warn().Err(err).Msg("db stats collector not registered")
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	report, err := database.NewMigrator(pool, nil, log.Logger).EnsureSchema(migrateCtx)
	cancel()
	if err != nil {
		if cfg.Database.MigrateFailFast {
			pool.Close()
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		log.Error().Err(err).Msg("schema migration failed, continuing with existing schema")
	}
	m.SchemaChanges.WithLabelValues("create_table").Add(float64(len(report.CreatedTables)))
	m.SchemaChanges.WithLabelValues("add_column").Add(float64(len(report.AddedColumns)))

	detectCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
		detectCache = cache.NewMemoryCache(cfg.Cache.MaxEntries)
	}

	var detector service.Detector
	if cfg.Detect.Enabled() {
		detector = detect.New(detect.Config{
			BaseURL:     cfg.Detect.APIURL,
			APIKey:      cfg.Detect.APIKey,
			Workspace:   cfg.Detect.Workspace,
			Workflow:    cfg.Detect.Workflow,
			HTTPClient:  &http.Client{Timeout: cfg.Detect.Timeout},
			MaxRetries:  cfg.Detect.MaxRetries,
			BackoffBase: cfg.Detect.BackoffBase,
		})
	} else {
		log.Warn().Msg("ROBOFLOW_API_KEY not set, /api/detect will answer 503")
	}

	inventoryRepo := repository.NewSQLInventoryRepository(pool)
	conversationRepo := repository.NewSQLConversationRepository(pool)

	inventoryService := service.NewInventoryService(inventoryRepo)
	conversationService := service.NewConversationService(conversationRepo, m)
	detectionService := service.NewDetectionService(service.DetectionConfig{
		Detector:  detector,
		Cache:     detectCache,
		TTL:       cfg.Cache.TTL,
		MaxUpload: cfg.Detect.MaxUpload,
		Metrics:   m,
	})

	r := router.New(router.Config{
		Handler:             handler.New(pool, cfg.App.Name, cfg.App.Version),
		InventoryHandler:    handler.NewInventoryHandler(inventoryService, cfg.Server.MaxBodyBytes),
		ConversationHandler: handler.NewConversationHandler(conversationService, cfg.Server.MaxBodyBytes),
		DetectHandler:       handler.NewDetectHandler(detectionService),
		AdminHandler: handler.NewAdminHandler(pool, dialect, map[string]handler.Counter{
			"inventory":     inventoryRepo,
			"conversations": conversationRepo,
		}, detectCache),
		Logger:         log.Logger,
		Metrics:        m,
		AllowedOrigins: cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		AdminAPIKeys:   cfg.App.AdminAPIKeys,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", dialect).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := detectCache.Close(); err != nil {
		log.Error().Err(err).Msg("cache close")
	}
	if err := pool.Close(); err != nil {
		log.Error().Err(err).Msg("database close")
	}
	log.Info().Msg("stopped")
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if strings.EqualFold(cfg.Type, "redis") {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(pingCtx, cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		})
	}
	return cache.NewMemoryCache(cfg.MaxEntries), nil
}

func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))

	if strings.EqualFold(format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
