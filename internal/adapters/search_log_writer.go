package adapters

import (
	"context"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/searchlog/repository"
	searchlogsvc "avfall_backend/internal/searchlog/service"
)

// SearchLogWriter records address lookups in the searchlog domain.
// It implements addresses/service.SearchLogger.
type SearchLogWriter struct {
	svc *searchlogsvc.Service
}

// NewSearchLogWriter creates a new search log adapter.
func NewSearchLogWriter(svc *searchlogsvc.Service) *SearchLogWriter {
	return &SearchLogWriter{svc: svc}
}

// Record maps a lookup to a search_logs row.
func (w *SearchLogWriter) Record(ctx context.Context, entry addresssvc.SearchLogEntry) error {
	row := repository.Entry{
		UserID:       entry.UserID,
		Postcode:     entry.Postcode,
		Place:        entry.Place,
		Address:      entry.Address,
		Fraction:     entry.Fraction,
		Prefix3:      entry.Prefix3,
		Codes:        entry.Codes,
		ResultsCount: entry.ResultsCount,
	}
	if entry.Location != nil {
		lat, lon := entry.Location.Lat, entry.Location.Lon
		row.Lat = &lat
		row.Lon = &lon
	}
	return w.svc.Record(ctx, row)
}

// Compile-time check that SearchLogWriter implements addresses/service.SearchLogger.
var _ addresssvc.SearchLogger = (*SearchLogWriter)(nil)
