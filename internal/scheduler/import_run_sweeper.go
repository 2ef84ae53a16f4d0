package scheduler

import (
	"context"
	"time"

	"avfall_backend/platform/logger"
)

const (
	defaultSweepInterval     = time.Hour
	defaultStaleRunTimeout   = 2 * time.Hour
	defaultFinishedRetention = 90 * 24 * time.Hour
)

// RunStore is the import_runs maintenance the sweeper needs.
type RunStore interface {
	FailStaleRuns(ctx context.Context, startedBefore time.Time, reason string) (int64, error)
	DeleteFinishedRunsBefore(ctx context.Context, before time.Time) (int64, error)
}

// ImportRunSweeper periodically closes runs whose worker died and removes
// old finished runs.
type ImportRunSweeper struct {
	runs      RunStore
	log       *logger.Logger
	interval  time.Duration
	staleRun  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewImportRunSweeper(runs RunStore, log *logger.Logger, interval, staleRun, retention time.Duration) *ImportRunSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if staleRun <= 0 {
		staleRun = defaultStaleRunTimeout
	}
	if retention <= 0 {
		retention = defaultFinishedRetention
	}

	return &ImportRunSweeper{
		runs:      runs,
		log:       log,
		interval:  interval,
		staleRun:  staleRun,
		retention: retention,
		now:       time.Now,
	}
}

func (s *ImportRunSweeper) Run(ctx context.Context) {
	if s == nil || s.runs == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ImportRunSweeper) sweep(ctx context.Context) {
	now := s.now()

	failed, err := s.runs.FailStaleRuns(ctx, now.Add(-s.staleRun), "import interrupted before it finished")
	if err != nil {
		s.log.Warn("import run sweep failed", "error", err)
		return
	}
	if failed > 0 {
		s.log.Info("import run sweep closed stale runs", "failed", failed)
	}

	deleted, err := s.runs.DeleteFinishedRunsBefore(ctx, now.Add(-s.retention))
	if err != nil {
		s.log.Warn("import run cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("import run cleanup deleted finished runs", "deleted", deleted)
	}
}
