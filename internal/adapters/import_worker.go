package adapters

import (
	"context"
	"fmt"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/scheduler"
	"avfall_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ArchivedImporter runs imports of archived workbooks.
type ArchivedImporter interface {
	ImportArchived(ctx context.Context, job addresssvc.QueuedImport) (*transport.ImportResponse, error)
}

// ImportWorker runs queued address imports for the asynq worker.
// It implements scheduler.ImportHandler.
type ImportWorker struct {
	importer ArchivedImporter
}

// NewImportWorker creates a new worker adapter.
func NewImportWorker(importer ArchivedImporter) *ImportWorker {
	return &ImportWorker{importer: importer}
}

// HandleAddressImport runs one queued import. Validation failures mean the
// workbook itself is unusable and are not retried.
func (w *ImportWorker) HandleAddressImport(ctx context.Context, payload scheduler.AddressImportPayload) error {
	importID, err := uuid.Parse(payload.ImportID)
	if err != nil {
		return fmt.Errorf("%w: invalid import id %q", asynq.SkipRetry, payload.ImportID)
	}

	job := addresssvc.QueuedImport{
		ImportID:   importID,
		ArchiveKey: payload.ArchiveKey,
		FileName:   payload.FileName,
		SheetName:  payload.SheetName,
	}
	if payload.RequestedBy != "" {
		if requester, err := uuid.Parse(payload.RequestedBy); err == nil {
			job.RequestedBy = &requester
		}
	}

	_, err = w.importer.ImportArchived(ctx, job)
	if err != nil && apperr.Is(err, apperr.KindValidation) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

// Compile-time check that ImportWorker implements scheduler.ImportHandler.
var _ scheduler.ImportHandler = (*ImportWorker)(nil)
