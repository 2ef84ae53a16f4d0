package adapters

import (
	"context"
	"fmt"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/importjobs/repository"
	importsvc "avfall_backend/internal/importjobs/service"
	"avfall_backend/internal/scheduler"
)

// ImportQueue records a queued run and hands it to the asynq worker.
// It implements addresses/service.Queue.
type ImportQueue struct {
	runs      *importsvc.Service
	scheduler scheduler.ImportScheduler
}

// NewImportQueue creates a new queue adapter. It returns nil when no
// scheduler is configured so the importer reports async imports as unavailable.
func NewImportQueue(runs *importsvc.Service, sched scheduler.ImportScheduler) *ImportQueue {
	if sched == nil {
		return nil
	}
	return &ImportQueue{runs: runs, scheduler: sched}
}

// EnqueueImport stores the run as queued before enqueueing, so the worker
// always finds a row to move to running. A failed enqueue closes the run.
func (q *ImportQueue) EnqueueImport(ctx context.Context, job addresssvc.QueuedImport) error {
	if q.runs != nil {
		err := q.runs.Queue(ctx, repository.CreateParams{
			ID:          job.ImportID,
			RequestedBy: job.RequestedBy,
			Source:      addresssvc.SourceWorker,
			SheetName:   job.SheetName,
			ArchiveKey:  job.ArchiveKey,
		})
		if err != nil {
			return fmt.Errorf("record queued import: %w", err)
		}
	}

	payload := scheduler.AddressImportPayload{
		ImportID:   job.ImportID.String(),
		ArchiveKey: job.ArchiveKey,
		FileName:   job.FileName,
		SheetName:  job.SheetName,
	}
	if job.RequestedBy != nil {
		payload.RequestedBy = job.RequestedBy.String()
	}

	if err := q.scheduler.EnqueueAddressImport(ctx, payload); err != nil {
		if q.runs != nil {
			_ = q.runs.Finish(context.WithoutCancel(ctx), job.ImportID, repository.FinishParams{
				Status: repository.StatusFailed,
				Error:  "enqueue failed: " + err.Error(),
			})
		}
		return err
	}
	return nil
}

// Compile-time check that ImportQueue implements addresses/service.Queue.
var _ addresssvc.Queue = (*ImportQueue)(nil)
