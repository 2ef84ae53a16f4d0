package adapters

import (
	"context"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/importjobs/repository"
	importsvc "avfall_backend/internal/importjobs/service"

	"github.com/google/uuid"
)

// ImportRunRecorder writes the importer's audit trail to import_runs.
// It implements addresses/service.RunRecorder.
type ImportRunRecorder struct {
	svc *importsvc.Service
}

// NewImportRunRecorder creates a new run recorder adapter.
func NewImportRunRecorder(svc *importsvc.Service) *ImportRunRecorder {
	return &ImportRunRecorder{svc: svc}
}

func (r *ImportRunRecorder) StartRun(ctx context.Context, run addresssvc.RunStart) error {
	return r.svc.Start(ctx, repository.CreateParams{
		ID:           run.ID,
		RequestedBy:  run.RequestedBy,
		Source:       run.Source,
		SheetName:    run.SheetName,
		ArchiveKey:   run.ArchiveKey,
		ReceivedRows: run.ReceivedRows,
	})
}

func (r *ImportRunRecorder) FinishRun(ctx context.Context, id uuid.UUID, outcome addresssvc.RunOutcome) error {
	return r.svc.Finish(ctx, id, repository.FinishParams{
		Status:           string(outcome.Status),
		ParsedRows:       outcome.ParsedRows,
		RejectedRows:     outcome.RejectedRows,
		SkippedBlankRows: outcome.SkippedBlankRows,
		Upserted:         outcome.Upserted,
		Batches:          outcome.Batches,
		StrippedColumns:  outcome.StrippedColumns,
		Error:            outcome.Error,
	})
}

// Compile-time check that ImportRunRecorder implements addresses/service.RunRecorder.
var _ addresssvc.RunRecorder = (*ImportRunRecorder)(nil)
