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

	"avfall_backend/internal/adapters"
	"avfall_backend/internal/adapters/storage"
	"avfall_backend/internal/addresses"
	addressrepo "avfall_backend/internal/addresses/repository"
	"avfall_backend/internal/auth"
	"avfall_backend/internal/email"
	"avfall_backend/internal/events"
	apphttp "avfall_backend/internal/http"
	"avfall_backend/internal/http/router"
	"avfall_backend/internal/importjobs"
	importsvc "avfall_backend/internal/importjobs/service"
	"avfall_backend/internal/maps"
	"avfall_backend/internal/notification"
	"avfall_backend/internal/scheduler"
	"avfall_backend/internal/searchlog"
	"avfall_backend/platform/config"
	"avfall_backend/platform/db"
	"avfall_backend/platform/logger"
	"avfall_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const geocodeCachePrefix = "geocode:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()

	geocodeCache, closeCache := initGeocodeCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	importScheduler, closeScheduler := initImportScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	archive := initWorkbookArchive(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.New(cfg), cfg.GetImportReportEmail(), log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, val)
	searchModule := searchlog.NewModule(pool, val)
	mapsModule := maps.NewModule(maps.NewService(cfg, geocodeCache, log))

	var downloads importsvc.Downloads
	if archive != nil {
		downloads = archive
	}
	importsModule := importjobs.NewModule(pool, downloads, val, log)

	addressStore := addressrepo.NewPostgres(pool, cfg.GetAddressTable())
	addressesModule, err := addresses.NewModule(addressStore, cfg, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize addresses module", "error", err)
		panic("failed to initialize addresses module: " + err.Error())
	}

	// Wire lookup integrations: addresses → maps, addresses → searchlog
	addressesModule.SetGeocoder(adapters.NewAddressGeocoder(mapsModule.Service()))
	addressesModule.SetSearchLogger(adapters.NewSearchLogWriter(searchModule.Service()))

	// Wire import integrations: addresses → importjobs, storage, scheduler
	addressesModule.SetRunRecorder(adapters.NewImportRunRecorder(importsModule.Service()))
	if archive != nil {
		addressesModule.SetArchive(archive)
	}
	if importScheduler != nil {
		addressesModule.SetQueue(adapters.NewImportQueue(importsModule.Service(), importScheduler))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		Roles:    authModule.Service(),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			addressesModule,
			mapsModule,
			importsModule,
			searchModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initGeocodeCache shares geocoding results across instances through Redis
// and falls back to a per-process cache.
func initGeocodeCache(cfg config.GeocoderConfig, log *logger.Logger) (maps.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; geocode cache is per process")
		return maps.NewMemoryCache(), nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; geocode cache is per process", "error", err)
		return maps.NewMemoryCache(), nil
	}

	client := redis.NewClient(opt)
	return maps.NewRedisCache(client, geocodeCachePrefix), func() {
		_ = client.Close()
	}
}

func initImportScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async imports disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize import scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initWorkbookArchive returns nil when object storage is not configured.
func initWorkbookArchive(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) *adapters.WorkbookArchive {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; workbook archiving disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, cfg.GetMinioBucketImports())
	log.Info("storage service initialized", "importsBucket", cfg.GetMinioBucketImports())

	return adapters.NewWorkbookArchive(storageSvc, cfg.GetMinioBucketImports())
}

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, bucket string) {
	if err := withRetry(ctx, log, "ensure imports bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
