package service

import (
	"context"
	"time"

	"avfall_backend/internal/searchlog/repository"
	"avfall_backend/internal/searchlog/transport"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/sanitize"
)

const (
	defaultDays  = 30
	defaultLimit = 10

	// maxFieldLength caps free text typed by users before it is stored.
	maxFieldLength = 200
)

// Store is the search_logs persistence the service needs.
type Store interface {
	Insert(ctx context.Context, e repository.Entry) error
	Totals(ctx context.Context, since time.Time) (total, empty int64, err error)
	Top(ctx context.Context, column string, since time.Time, limit int) ([]repository.Bucket, error)
}

type Service struct {
	repo Store
	now  func() time.Time
}

func New(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record stores one lookup. Free text is cleaned and capped first.
func (s *Service) Record(ctx context.Context, e repository.Entry) error {
	e.Postcode = sanitize.Text(e.Postcode, maxFieldLength)
	e.Place = sanitize.Text(e.Place, maxFieldLength)
	e.Address = sanitize.Text(e.Address, maxFieldLength)
	return s.repo.Insert(ctx, e)
}

// Stats summarizes lookups over the last req.Days days.
func (s *Service) Stats(ctx context.Context, req transport.StatsRequest) (*transport.StatsResponse, error) {
	days := req.Days
	if days <= 0 {
		days = defaultDays
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	total, empty, err := s.repo.Totals(ctx, since)
	if err != nil {
		return nil, statsError(err)
	}
	fractions, err := s.repo.Top(ctx, repository.ByFraction, since, limit)
	if err != nil {
		return nil, statsError(err)
	}
	prefixes, err := s.repo.Top(ctx, repository.ByPrefix, since, limit)
	if err != nil {
		return nil, statsError(err)
	}

	return &transport.StatsResponse{
		OK:          true,
		Since:       since,
		Total:       total,
		ZeroResults: empty,
		Fractions:   buckets(fractions),
		Prefixes:    buckets(prefixes),
	}, nil
}

func statsError(err error) error {
	return apperr.Wrap(apperr.KindInternal, "search stats failed", err).WithOp("searchlog.Stats")
}

func buckets(in []repository.Bucket) []transport.Bucket {
	out := make([]transport.Bucket, len(in))
	for i, b := range in {
		out[i] = transport.Bucket{Key: b.Key, Count: b.Count}
	}
	return out
}
