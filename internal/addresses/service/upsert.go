package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 1000

// Store persists and reads address records.
type Store interface {
	UpsertBatch(ctx context.Context, records []domain.AddressRecord, columns []domain.Column) (int, error)
	FindCollections(ctx context.Context, filter domain.LookupFilter) ([]domain.AddressRecord, error)
}

// UpsertResult accumulates the per-batch counts of one upsert run.
type UpsertResult struct {
	Batches         int
	Upserted        int
	StrippedColumns []domain.Column
}

// StrippedColumnNames returns the stripped columns as strings.
func (r UpsertResult) StrippedColumnNames() []string {
	if len(r.StrippedColumns) == 0 {
		return nil
	}
	names := make([]string, len(r.StrippedColumns))
	for i, col := range r.StrippedColumns {
		names[i] = string(col)
	}
	return names
}

// Upserter writes records to a Store in sequential, contiguous batches.
type Upserter struct {
	store     Store
	batchSize int
	log       *logger.Logger
}

// NewUpserter creates an upserter. A non-positive batch size falls back to
// DefaultBatchSize.
func NewUpserter(store Store, batchSize int, log *logger.Logger) *Upserter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Upserter{store: store, batchSize: batchSize, log: log}
}

// BatchSize returns the configured batch size.
func (u *Upserter) BatchSize() int {
	return u.batchSize
}

// Upsert writes records in input order. Batches already written stay
// written when a later batch fails; the partial result is returned with the
// error.
func (u *Upserter) Upsert(ctx context.Context, records []domain.AddressRecord) (UpsertResult, error) {
	var result UpsertResult
	columns := append([]domain.Column(nil), domain.WriteColumns...)

	for start := 0; start < len(records); start += u.batchSize {
		end := min(start+u.batchSize, len(records))
		batch := collapseByKey(records[start:end])
		batchNo := result.Batches + 1

		count, err := u.store.UpsertBatch(ctx, batch, columns)
		if err != nil {
			col, ok := strippable(err, columns)
			if !ok {
				return result, batchError(batchNo, err)
			}

			u.log.Warn("address upsert missing optional column, retrying without it",
				slog.Int("batch", batchNo),
				slog.String("column", string(col)),
			)
			columns = without(columns, col)
			result.StrippedColumns = append(result.StrippedColumns, col)

			count, err = u.store.UpsertBatch(ctx, batch, columns)
			if err != nil {
				return result, batchError(batchNo, err)
			}
		}

		result.Batches++
		result.Upserted += count
	}

	return result, nil
}

// collapseByKey drops earlier records that share a key with a later one in
// the same batch. A single statement cannot update the same row twice.
func collapseByKey(batch []domain.AddressRecord) []domain.AddressRecord {
	last := make(map[string]int, len(batch))
	for i, record := range batch {
		last[record.Key] = i
	}
	if len(last) == len(batch) {
		return batch
	}

	out := make([]domain.AddressRecord, 0, len(last))
	for i, record := range batch {
		if last[record.Key] == i {
			out = append(out, record)
		}
	}
	return out
}

// strippable reports the column to drop when err is a missing optional column
// that is still part of the write set.
func strippable(err error, columns []domain.Column) (domain.Column, bool) {
	var missing *domain.MissingColumnError
	if !errors.As(err, &missing) || !missing.Column.IsOptional() {
		return "", false
	}
	for _, col := range columns {
		if col == missing.Column {
			return col, true
		}
	}
	return "", false
}

func without(columns []domain.Column, drop domain.Column) []domain.Column {
	out := make([]domain.Column, 0, len(columns))
	for _, col := range columns {
		if col != drop {
			out = append(out, col)
		}
	}
	return out
}

// batchError keeps the store's message as the client-facing text.
func batchError(batchNo int, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp(fmt.Sprintf("addresses.Upsert batch %d", batchNo))
}
