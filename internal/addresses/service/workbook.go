package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"avfall_backend/internal/addresses/spreadsheet"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/events"
	"avfall_backend/platform/apperr"

	"github.com/google/uuid"
)

// Archive keeps uploaded workbooks so a run can be replayed or deferred.
type Archive interface {
	Put(ctx context.Context, fileName string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// QueuedImport is an archived workbook waiting for the worker.
type QueuedImport struct {
	ImportID    uuid.UUID  `json:"importId"`
	ArchiveKey  string     `json:"archiveKey"`
	FileName    string     `json:"fileName"`
	SheetName   string     `json:"sheetName"`
	RequestedBy *uuid.UUID `json:"requestedBy,omitempty"`
}

// Queue hands archived workbooks to the worker.
type Queue interface {
	EnqueueImport(ctx context.Context, job QueuedImport) error
}

// WorkbookRequest is an uploaded spreadsheet.
type WorkbookRequest struct {
	FileName    string
	Data        []byte
	DryRun      bool
	Source      string
	RequestedBy *uuid.UUID
}

// SetRunRecorder enables the import audit trail.
func (s *Importer) SetRunRecorder(runs RunRecorder) {
	s.runs = runs
}

// SetArchive enables archiving of committed uploads.
func (s *Importer) SetArchive(archive Archive) {
	s.archive = archive
}

// SetQueue enables deferred imports.
func (s *Importer) SetQueue(queue Queue) {
	s.queue = queue
}

// CanQueue reports whether deferred imports are available.
func (s *Importer) CanQueue() bool {
	return s.archive != nil && s.queue != nil
}

// ImportWorkbook reads the data sheet and imports its rows. Committed uploads
// are archived first when an archive is configured; an archive failure is
// logged and does not block the import.
func (s *Importer) ImportWorkbook(ctx context.Context, req WorkbookRequest) (*transport.ImportResponse, error) {
	sheet, err := spreadsheet.Read(bytes.NewReader(req.Data))
	if err != nil {
		return nil, err
	}

	var archiveKey string
	if !req.DryRun && s.archive != nil {
		archiveKey, err = s.archive.Put(ctx, req.FileName, req.Data)
		if err != nil {
			s.log.WithContext(ctx).Warn("workbook archive failed", slog.String("file", req.FileName), slog.String("error", err.Error()))
			archiveKey = ""
		}
	}

	return s.Import(ctx, ImportRequest{
		Rows:        sheet.Rows,
		DryRun:      req.DryRun,
		Source:      req.Source,
		SheetName:   sheet.Name,
		ArchiveKey:  archiveKey,
		RequestedBy: req.RequestedBy,
	})
}

// QueueWorkbook validates and archives a workbook, then defers the import
// to the worker.
func (s *Importer) QueueWorkbook(ctx context.Context, req WorkbookRequest) (*transport.ImportQueuedResponse, error) {
	if !s.CanQueue() {
		return nil, apperr.Configuration("Async import requires object storage and a queue")
	}

	// Reject unreadable files now rather than in the worker.
	sheet, err := spreadsheet.Read(bytes.NewReader(req.Data))
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, apperr.Validation(errNoRows)
	}

	key, err := s.archive.Put(ctx, req.FileName, req.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not archive workbook", err).WithOp("addresses.QueueWorkbook")
	}

	job := QueuedImport{
		ImportID:    uuid.New(),
		ArchiveKey:  key,
		FileName:    req.FileName,
		SheetName:   sheet.Name,
		RequestedBy: req.RequestedBy,
	}
	if err := s.queue.EnqueueImport(ctx, job); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not queue import", err).WithOp("addresses.QueueWorkbook")
	}

	s.log.WithContext(ctx).ImportEvent("queued",
		slog.String("import_id", job.ImportID.String()),
		slog.String("archive_key", key),
		slog.Int("rows", len(sheet.Rows)),
	)

	return &transport.ImportQueuedResponse{
		OK:         true,
		ImportID:   job.ImportID,
		Status:     "queued",
		SheetName:  sheet.Name,
		ArchiveKey: key,
	}, nil
}

// ImportArchived runs a queued import. A queued run that fails before any
// write is still closed as failed.
func (s *Importer) ImportArchived(ctx context.Context, job QueuedImport) (*transport.ImportResponse, error) {
	if s.archive == nil {
		return nil, apperr.Configuration("Archived imports require object storage")
	}

	sheet, err := s.loadArchived(ctx, job.ArchiveKey)
	if err != nil {
		s.failQueued(ctx, job, err)
		return nil, err
	}

	resp, err := s.Import(ctx, ImportRequest{
		ImportID:    job.ImportID,
		Rows:        sheet.Rows,
		Source:      SourceWorker,
		SheetName:   sheet.Name,
		ArchiveKey:  job.ArchiveKey,
		RequestedBy: job.RequestedBy,
	})
	if err != nil && apperr.Is(err, apperr.KindValidation) {
		s.failQueued(ctx, job, err)
	}
	return resp, err
}

func (s *Importer) loadArchived(ctx context.Context, key string) (spreadsheet.Sheet, error) {
	data, err := s.archive.Get(ctx, key)
	if err != nil {
		return spreadsheet.Sheet{}, fmt.Errorf("load archived workbook %s: %w", key, err)
	}
	return spreadsheet.Read(bytes.NewReader(data))
}

func (s *Importer) failQueued(ctx context.Context, job QueuedImport, err error) {
	outcome := RunOutcome{Status: events.ImportFailed, Error: err.Error()}
	s.finishRun(ctx, job.ImportID, outcome)
	s.publishCompleted(ctx, job.ImportID, ImportRequest{
		Source:      SourceWorker,
		SheetName:   job.SheetName,
		RequestedBy: job.RequestedBy,
	}, outcome, 0)
}
