package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"avfall_backend/internal/adapters"
	"avfall_backend/internal/adapters/storage"
	"avfall_backend/internal/addresses"
	addressrepo "avfall_backend/internal/addresses/repository"
	"avfall_backend/internal/email"
	"avfall_backend/internal/events"
	importrepo "avfall_backend/internal/importjobs/repository"
	importsvc "avfall_backend/internal/importjobs/service"
	"avfall_backend/internal/notification"
	"avfall_backend/internal/scheduler"
	"avfall_backend/platform/config"
	"avfall_backend/platform/db"
	"avfall_backend/platform/logger"
	"avfall_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting import worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	notificationModule := notification.New(email.New(cfg), cfg.GetImportReportEmail(), log)
	notificationModule.RegisterHandlers(eventBus)

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	archive := adapters.NewWorkbookArchive(storageSvc, cfg.GetMinioBucketImports())

	runRepo := importrepo.New(pool)
	runs := importsvc.New(runRepo, archive, log)

	addressesModule, err := addresses.NewModule(addressrepo.NewPostgres(pool, cfg.GetAddressTable()), cfg, eventBus, validator.New(), log)
	if err != nil {
		log.Error("failed to initialize addresses module", "error", err)
		panic("failed to initialize addresses module: " + err.Error())
	}
	addressesModule.SetRunRecorder(adapters.NewImportRunRecorder(runs))
	addressesModule.SetArchive(archive)

	sweeper := scheduler.NewImportRunSweeper(
		runRepo,
		log,
		getDurationEnv("IMPORT_RUN_SWEEP_INTERVAL", time.Hour),
		getDurationEnv("IMPORT_RUN_STALE_AFTER", 2*time.Hour),
		time.Duration(getPositiveIntEnv("IMPORT_RUN_RETENTION_DAYS", 90))*24*time.Hour,
	)
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, adapters.NewImportWorker(addressesModule.Importer()), log)
	if err != nil {
		log.Error("failed to initialize import worker", "error", err)
		panic("failed to initialize import worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
