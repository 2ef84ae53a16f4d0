package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/platform/apperr"
)

var sqliteNoColumn = regexp.MustCompile(`has no column named (\w+)`)

// SQLite stores address records in a local database/sql handle opened with
// the modernc driver. The CLI and the store tests use it.
type SQLite struct {
	db      *sql.DB
	table   string
	columns tableColumns
}

// NewSQLite creates a store writing to table.
func NewSQLite(db *sql.DB, table string) *SQLite {
	return &SQLite{db: db, table: table}
}

// UpsertBatch writes records in one statement and returns the affected row count.
func (s *SQLite) UpsertBatch(ctx context.Context, records []domain.AddressRecord, columns []domain.Column) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateBatch(records, columns); err != nil {
		return 0, err
	}

	query := buildUpsert(s.table, columns, len(records), question, "CURRENT_TIMESTAMP")
	res, err := s.db.ExecContext(ctx, query, upsertArgs(records, columns)...)
	if err != nil {
		return 0, translateSQLiteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// FindCollections returns the rows matching filter.
func (s *SQLite) FindCollections(ctx context.Context, filter domain.LookupFilter) ([]domain.AddressRecord, error) {
	if len(filter.Codes) == 0 {
		return nil, nil
	}

	hasPrefix, err := s.columns.has(ctx, domain.ColumnPostcodePrefix3, s.loadColumns)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
	}

	query, args := buildFind(s.table, filter, question, hasPrefix)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err.Error(), err).WithOp("addresses.FindCollections")
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) loadColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, s.table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func translateSQLiteError(err error) error {
	match := sqliteNoColumn.FindStringSubmatch(err.Error())
	if match == nil {
		return err
	}
	col, known := domain.ParseColumn(match[1])
	if !known {
		return fmt.Errorf("unknown column %q: %w", match[1], err)
	}
	return &domain.MissingColumnError{Column: col, Err: err}
}
