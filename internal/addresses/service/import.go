// Package service provides the address import and lookup business logic.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"avfall_backend/internal/addresses/mapping"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/events"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"

	"github.com/google/uuid"
)

// Import sources recorded on import runs.
const (
	SourceJSON   = "json"
	SourceUpload = "upload"
	SourceWorker = "worker"
	SourceCLI    = "cli"
)

const (
	errNoRows      = "No rows in request body"
	errNoValidRows = "0 valid rows after normalization (check headers/values)."

	sampleSize        = 3
	maxRejectionsSent = 20
)

// RunStart describes an import run that is about to write.
type RunStart struct {
	ID           uuid.UUID
	RequestedBy  *uuid.UUID
	Source       string
	SheetName    string
	ArchiveKey   string
	ReceivedRows int
}

// RunOutcome is the terminal state of an import run.
type RunOutcome struct {
	Status           events.ImportStatus
	ParsedRows       int
	RejectedRows     int
	SkippedBlankRows int
	Upserted         int
	Batches          int
	StrippedColumns  []string
	Error            string
}

// RunRecorder keeps an audit trail of committed imports.
type RunRecorder interface {
	StartRun(ctx context.Context, run RunStart) error
	FinishRun(ctx context.Context, id uuid.UUID, outcome RunOutcome) error
}

// ImportRequest is one batch of raw rows to import.
type ImportRequest struct {
	// ImportID is set when the run was created ahead of time (queued uploads).
	ImportID    uuid.UUID
	Rows        []map[string]any
	DryRun      bool
	Source      string
	SheetName   string
	ArchiveKey  string
	RequestedBy *uuid.UUID
}

// Importer maps raw rows and upserts the valid ones.
type Importer struct {
	mapper   *mapping.Mapper
	upserter *Upserter
	runs     RunRecorder
	eventBus events.Bus
	archive  Archive
	queue    Queue
	log      *logger.Logger
}

// NewImporter creates an importer. runs may be nil when no audit table exists.
func NewImporter(mapper *mapping.Mapper, upserter *Upserter, runs RunRecorder, eventBus events.Bus, log *logger.Logger) *Importer {
	return &Importer{
		mapper:   mapper,
		upserter: upserter,
		runs:     runs,
		eventBus: eventBus,
		log:      log,
	}
}

// Import runs the mapper and, unless req.DryRun is set, the upserter.
func (s *Importer) Import(ctx context.Context, req ImportRequest) (*transport.ImportResponse, error) {
	if len(req.Rows) == 0 {
		return nil, apperr.Validation(errNoRows)
	}

	log := s.log.WithContext(ctx)
	mapped := s.mapper.Map(req.Rows)
	log.ImportEvent("mapped",
		slog.String("source", req.Source),
		slog.Int("received", len(req.Rows)),
		slog.Int("valid", len(mapped.Records)),
		slog.Int("rejected", len(mapped.Rejected)),
		slog.Int("blank", mapped.SkippedBlank),
	)

	resp := &transport.ImportResponse{
		OK:               true,
		DryRun:           req.DryRun,
		ReceivedRows:     len(req.Rows),
		ParsedRows:       len(mapped.Records),
		RejectedRows:     len(mapped.Rejected),
		SkippedBlankRows: mapped.SkippedBlank,
		Rejections:       firstRejections(mapped.Rejected),
		SheetName:        req.SheetName,
		ArchiveKey:       req.ArchiveKey,
	}

	if len(mapped.Records) == 0 {
		return nil, apperr.Validation(errNoValidRows).WithDetails(resp.Rejections)
	}

	if req.DryRun {
		resp.Sample = mapped.Sample(sampleSize)
		return resp, nil
	}

	importID := req.ImportID
	if importID == uuid.Nil {
		importID = uuid.New()
	}
	resp.ImportID = &importID

	started := time.Now()
	s.startRun(ctx, RunStart{
		ID:           importID,
		RequestedBy:  req.RequestedBy,
		Source:       req.Source,
		SheetName:    req.SheetName,
		ArchiveKey:   req.ArchiveKey,
		ReceivedRows: len(req.Rows),
	})

	result, upsertErr := s.upserter.Upsert(ctx, mapped.Records)
	resp.Upserted = result.Upserted
	resp.Batches = result.Batches
	resp.StrippedColumns = result.StrippedColumnNames()

	outcome := RunOutcome{
		Status:           events.ImportSucceeded,
		ParsedRows:       resp.ParsedRows,
		RejectedRows:     resp.RejectedRows,
		SkippedBlankRows: resp.SkippedBlankRows,
		Upserted:         resp.Upserted,
		Batches:          resp.Batches,
		StrippedColumns:  resp.StrippedColumns,
	}
	if upsertErr != nil {
		outcome.Status = events.ImportFailed
		outcome.Error = upsertErr.Error()
	}
	s.finishRun(ctx, importID, outcome)
	s.publishCompleted(ctx, importID, req, outcome, time.Since(started))

	log.ImportEvent("finished",
		slog.String("import_id", importID.String()),
		slog.String("status", string(outcome.Status)),
		slog.Int("upserted", resp.Upserted),
		slog.Int("batches", resp.Batches),
	)

	if upsertErr != nil {
		return nil, withPartialResult(upsertErr, resp)
	}
	return resp, nil
}

func (s *Importer) startRun(ctx context.Context, run RunStart) {
	if s.runs == nil {
		return
	}
	if err := s.runs.StartRun(ctx, run); err != nil {
		s.log.WithContext(ctx).DatabaseError("import_runs.start", err)
	}
}

// finishRun outlives a cancelled request so the run never stays "running".
func (s *Importer) finishRun(ctx context.Context, id uuid.UUID, outcome RunOutcome) {
	if s.runs == nil {
		return
	}
	if err := s.runs.FinishRun(context.WithoutCancel(ctx), id, outcome); err != nil {
		s.log.WithContext(ctx).DatabaseError("import_runs.finish", err)
	}
}

func (s *Importer) publishCompleted(ctx context.Context, id uuid.UUID, req ImportRequest, outcome RunOutcome, took time.Duration) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.ImportCompleted{
		BaseEvent:        events.NewBaseEvent(),
		ImportID:         id,
		RequestedBy:      req.RequestedBy,
		Source:           req.Source,
		SheetName:        req.SheetName,
		Status:           outcome.Status,
		ReceivedRows:     len(req.Rows),
		ParsedRows:       outcome.ParsedRows,
		RejectedRows:     outcome.RejectedRows,
		SkippedBlankRows: outcome.SkippedBlankRows,
		Upserted:         outcome.Upserted,
		Batches:          outcome.Batches,
		StrippedColumns:  outcome.StrippedColumns,
		Error:            outcome.Error,
		Duration:         took,
	})
}

func firstRejections(rejected []mapping.Rejection) []mapping.Rejection {
	if len(rejected) > maxRejectionsSent {
		return rejected[:maxRejectionsSent]
	}
	return rejected
}

// withPartialResult keeps the store message as the error text and attaches
// what was committed before the failing batch.
func withPartialResult(err error, resp *transport.ImportResponse) error {
	partial := map[string]any{
		"importId": resp.ImportID,
		"upserted": resp.Upserted,
		"batches":  resp.Batches,
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return apperr.Wrap(appErr.Kind, appErr.Message, err).WithDetails(partial)
	}
	return apperr.Wrap(apperr.KindInternal, err.Error(), err).WithDetails(partial)
}
