package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUndefinedColumn = "42703"

// DBTX is the subset of pgxpool.Pool the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Postgres stores address records through pgx.
type Postgres struct {
	db      DBTX
	table   string
	columns tableColumns
}

// NewPostgres creates a store writing to table. The name must already be
// validated as a plain identifier.
func NewPostgres(db DBTX, table string) *Postgres {
	return &Postgres{db: db, table: table}
}

// UpsertBatch writes records in one statement and returns the affected row count.
func (p *Postgres) UpsertBatch(ctx context.Context, records []domain.AddressRecord, columns []domain.Column) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateBatch(records, columns); err != nil {
		return 0, err
	}

	query := buildUpsert(p.table, columns, len(records), dollar, "now()")
	tag, err := p.db.Exec(ctx, query, upsertArgs(records, columns)...)
	if err != nil {
		return 0, translatePgError(err)
	}
	return int(tag.RowsAffected()), nil
}

// FindCollections returns the rows matching filter.
func (p *Postgres) FindCollections(ctx context.Context, filter domain.LookupFilter) ([]domain.AddressRecord, error) {
	if len(filter.Codes) == 0 {
		return nil, nil
	}

	hasPrefix, err := p.columns.has(ctx, domain.ColumnPostcodePrefix3, p.loadColumns)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
	}

	query, args := buildFind(p.table, filter, dollar, hasPrefix)
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
	}
	defer rows.Close()

	records := make([]domain.AddressRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
	}
	return records, nil
}

const columnsQuery = `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

func (p *Postgres) loadColumns(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, columnsQuery, p.table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// translatePgError maps an undefined-column error to MissingColumnError and
// passes every other error through unchanged.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUndefinedColumn {
		return err
	}
	name, ok := quotedName(pgErr.Message)
	if !ok {
		return err
	}
	col, known := domain.ParseColumn(name)
	if !known {
		return fmt.Errorf("unknown column %q: %w", name, err)
	}
	return &domain.MissingColumnError{Column: col, Err: err}
}

// quotedName extracts the first double-quoted identifier from a server
// message such as `column "route" of relation "addresses" does not exist`.
func quotedName(message string) (string, bool) {
	start := strings.IndexByte(message, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(message[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return message[start+1 : start+1+end], true
}
