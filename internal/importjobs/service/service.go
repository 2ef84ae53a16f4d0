// Package service keeps the import run audit trail and exposes it to admins.
package service

import (
	"context"
	"errors"
	"log/slog"

	"avfall_backend/internal/importjobs/repository"
	"avfall_backend/internal/importjobs/transport"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultLimit = 50

// Store is the import_runs persistence the service needs.
type Store interface {
	Create(ctx context.Context, p repository.CreateParams) error
	Finish(ctx context.Context, id uuid.UUID, p repository.FinishParams) error
	Get(ctx context.Context, id uuid.UUID) (repository.Run, error)
	List(ctx context.Context, p repository.ListParams) ([]repository.Run, error)
}

// Downloads signs links to archived workbooks.
type Downloads interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

type Service struct {
	repo      Store
	downloads Downloads
	log       *logger.Logger
}

// New creates the service. downloads may be nil when no object storage is configured.
func New(repo Store, downloads Downloads, log *logger.Logger) *Service {
	return &Service{repo: repo, downloads: downloads, log: log}
}

// Queue records a run that the worker will pick up later.
func (s *Service) Queue(ctx context.Context, p repository.CreateParams) error {
	p.Status = repository.StatusQueued
	return s.repo.Create(ctx, p)
}

// Start marks a run as running, creating it when it was not queued.
func (s *Service) Start(ctx context.Context, p repository.CreateParams) error {
	p.Status = repository.StatusRunning
	return s.repo.Create(ctx, p)
}

// Finish closes a run.
func (s *Service) Finish(ctx context.Context, id uuid.UUID, p repository.FinishParams) error {
	return s.repo.Finish(ctx, id, p)
}

// List returns recent runs, newest first.
func (s *Service) List(ctx context.Context, req transport.ListRequest) (*transport.ListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	runs, err := s.repo.List(ctx, repository.ListParams{Status: req.Status, Limit: limit})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not list imports", err).WithOp("importjobs.List")
	}

	items := make([]transport.Run, 0, len(runs))
	for _, run := range runs {
		items = append(items, toTransport(run))
	}
	return &transport.ListResponse{OK: true, Items: items}, nil
}

// Get returns one run with a download link to its workbook when one was archived.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.RunResponse, error) {
	run, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("import not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not load import", err).WithOp("importjobs.Get")
	}

	item := toTransport(run)
	if item.ArchiveKey != "" && s.downloads != nil {
		url, err := s.downloads.DownloadURL(ctx, item.ArchiveKey)
		if err != nil {
			s.log.WithContext(ctx).Warn("presign archived workbook failed",
				slog.String("import_id", id.String()),
				slog.String("error", err.Error()),
			)
		} else {
			item.DownloadURL = url
		}
	}
	return &transport.RunResponse{OK: true, Item: item}, nil
}

func toTransport(run repository.Run) transport.Run {
	stripped := run.StrippedColumns
	if stripped == nil {
		stripped = []string{}
	}
	return transport.Run{
		ID:               run.ID,
		RequestedBy:      run.RequestedBy,
		Source:           run.Source,
		SheetName:        deref(run.SheetName),
		ArchiveKey:       deref(run.ArchiveKey),
		Status:           run.Status,
		ReceivedRows:     run.ReceivedRows,
		ParsedRows:       run.ParsedRows,
		RejectedRows:     run.RejectedRows,
		SkippedBlankRows: run.SkippedBlankRows,
		Upserted:         run.Upserted,
		Batches:          run.Batches,
		StrippedColumns:  stripped,
		Error:            deref(run.Error),
		CreatedAt:        run.CreatedAt,
		FinishedAt:       run.FinishedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
