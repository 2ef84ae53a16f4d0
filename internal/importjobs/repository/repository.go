package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")

// Run statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const runColumns = `
	id, requested_by, source, sheet_name, archive_key, status, received_rows,
	parsed_rows, rejected_rows, skipped_blank_rows, upserted, batches,
	stripped_columns, error, created_at, finished_at
`

const createQuery = `
	INSERT INTO import_runs (id, requested_by, source, sheet_name, archive_key, status, received_rows)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		status        = EXCLUDED.status,
		source        = EXCLUDED.source,
		sheet_name    = COALESCE(EXCLUDED.sheet_name, import_runs.sheet_name),
		archive_key   = COALESCE(EXCLUDED.archive_key, import_runs.archive_key),
		received_rows = GREATEST(EXCLUDED.received_rows, import_runs.received_rows),
		requested_by  = COALESCE(import_runs.requested_by, EXCLUDED.requested_by),
		error         = NULL,
		finished_at   = NULL
`

const finishQuery = `
	UPDATE import_runs SET
		status             = $2,
		parsed_rows        = $3,
		rejected_rows      = $4,
		skipped_blank_rows = $5,
		upserted           = $6,
		batches            = $7,
		stripped_columns   = $8,
		error              = $9,
		finished_at        = now()
	WHERE id = $1
`

const failStaleQuery = `
	UPDATE import_runs SET status = 'failed', error = $2, finished_at = now()
	WHERE status IN ('queued', 'running') AND created_at < $1
`

const deleteFinishedQuery = `
	DELETE FROM import_runs
	WHERE status IN ('succeeded', 'failed') AND finished_at < $1
`

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func New(db Querier) *Repository {
	return &Repository{db: db}
}

// Run is one row of import_runs.
type Run struct {
	ID               uuid.UUID
	RequestedBy      *uuid.UUID
	Source           string
	SheetName        *string
	ArchiveKey       *string
	Status           string
	ReceivedRows     int
	ParsedRows       int
	RejectedRows     int
	SkippedBlankRows int
	Upserted         int
	Batches          int
	StrippedColumns  []string
	Error            *string
	CreatedAt        time.Time
	FinishedAt       *time.Time
}

// CreateParams opens a run.
type CreateParams struct {
	ID           uuid.UUID
	RequestedBy  *uuid.UUID
	Source       string
	SheetName    string
	ArchiveKey   string
	Status       string
	ReceivedRows int
}

// FinishParams closes a run.
type FinishParams struct {
	Status           string
	ParsedRows       int
	RejectedRows     int
	SkippedBlankRows int
	Upserted         int
	Batches          int
	StrippedColumns  []string
	Error            string
}

// ListParams filters List.
type ListParams struct {
	Status string
	Limit  int
}

// Create inserts a run, or moves an existing (queued) run to p.Status.
func (r *Repository) Create(ctx context.Context, p CreateParams) error {
	_, err := r.db.Exec(ctx, createQuery,
		p.ID,
		p.RequestedBy,
		p.Source,
		nullable(p.SheetName),
		nullable(p.ArchiveKey),
		p.Status,
		p.ReceivedRows,
	)
	return err
}

// Finish records the outcome of a run. Unknown ids return ErrNotFound.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, p FinishParams) error {
	stripped := p.StrippedColumns
	if stripped == nil {
		stripped = []string{}
	}
	tag, err := r.db.Exec(ctx, finishQuery,
		id,
		p.Status,
		p.ParsedRows,
		p.RejectedRows,
		p.SkippedBlankRows,
		p.Upserted,
		p.Batches,
		stripped,
		nullable(p.Error),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// List returns the newest runs first.
func (r *Repository) List(ctx context.Context, p ListParams) ([]Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+runColumns+`
		FROM import_runs
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, p.Status, p.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, p.Limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FailStaleRuns closes queued or running runs created before the cutoff.
func (r *Repository) FailStaleRuns(ctx context.Context, startedBefore time.Time, reason string) (int64, error) {
	tag, err := r.db.Exec(ctx, failStaleQuery, startedBefore, reason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteFinishedRunsBefore removes finished runs older than the cutoff.
func (r *Repository) DeleteFinishedRunsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteFinishedQuery, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.RequestedBy,
		&run.Source,
		&run.SheetName,
		&run.ArchiveKey,
		&run.Status,
		&run.ReceivedRows,
		&run.ParsedRows,
		&run.RejectedRows,
		&run.SkippedBlankRows,
		&run.Upserted,
		&run.Batches,
		&run.StrippedColumns,
		&run.Error,
		&run.CreatedAt,
		&run.FinishedAt,
	)
	return run, err
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
