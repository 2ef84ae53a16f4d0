package scheduler

import (
	"context"
	"fmt"

	"avfall_backend/platform/config"
	"avfall_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ImportHandler runs a queued import. Returning an error wrapping
// asynq.SkipRetry archives the task instead of retrying it.
type ImportHandler interface {
	HandleAddressImport(ctx context.Context, payload AddressImportPayload) error
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	imports ImportHandler
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, imports ImportHandler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		imports: imports,
		log:     log,
	}

	mux.HandleFunc(TaskAddressImport, w.handleAddressImport)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAddressImport(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAddressImportPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	w.log.WithContext(ctx).ImportEvent("worker_started", "import_id", payload.ImportID, "archive_key", payload.ArchiveKey)
	return w.imports.HandleAddressImport(ctx, payload)
}
