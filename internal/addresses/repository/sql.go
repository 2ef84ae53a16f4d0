// Package repository persists address records in Postgres or SQLite.
// Both stores share the statement builders in this file and differ only in
// placeholder syntax and error translation.
package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"avfall_backend/internal/addresses/domain"
)

// MaxParams is the bind-variable budget of one statement. It is the SQLite
// limit, which is lower than Postgres'.
const MaxParams = 32766

type placeholderFunc func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }
func question(int) string { return "?" }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// buildUpsert renders a multi-row upsert keyed on dedup_key.
func buildUpsert(table string, columns []domain.Column, rows int, ph placeholderFunc, now string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(string(col)))
	}
	b.WriteString(") VALUES ")

	param := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ph(param))
			param++
		}
		b.WriteByte(')')
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(quoteIdent(string(domain.ColumnDedupKey)))
	b.WriteString(") DO UPDATE SET ")
	first := true
	for _, col := range columns {
		if col == domain.ColumnDedupKey {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		name := quoteIdent(string(col))
		b.WriteString(name)
		b.WriteString(" = excluded.")
		b.WriteString(name)
	}
	b.WriteString(", updated_at = ")
	b.WriteString(now)
	return b.String()
}

func upsertArgs(records []domain.AddressRecord, columns []domain.Column) []any {
	args := make([]any, 0, len(records)*len(columns))
	for _, record := range records {
		for _, col := range columns {
			args = append(args, record.Value(col))
		}
	}
	return args
}

// readColumns is the projection of FindCollections, in scan order. Only
// required columns are read, so a table without the optional ones still
// answers lookups.
var readColumns = []domain.Column{
	domain.ColumnDedupKey,
	domain.ColumnPostcode,
	domain.ColumnPlace,
	domain.ColumnStreet,
	domain.ColumnHouseNumber,
	domain.ColumnFractionCode,
	domain.ColumnWeekday,
}

// buildFind renders the lookup query and its arguments. Without a
// postcode_prefix3 column a prefix lookup compares the first three
// characters of postcode instead.
func buildFind(table string, filter domain.LookupFilter, ph placeholderFunc, hasPrefixColumn bool) (string, []any) {
	cols := make([]string, len(readColumns))
	for i, col := range readColumns {
		cols[i] = quoteIdent(string(col))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" WHERE ")

	args := make([]any, 0, len(filter.Codes)+2)
	switch {
	case filter.Scope == domain.ScopePrefix && hasPrefixColumn:
		b.WriteString(quoteIdent(string(domain.ColumnPostcodePrefix3)))
		args = append(args, filter.Prefix3)
	case filter.Scope == domain.ScopePrefix:
		b.WriteString("substr(")
		b.WriteString(quoteIdent(string(domain.ColumnPostcode)))
		b.WriteString(", 1, 3)")
		args = append(args, filter.Prefix3)
	default:
		b.WriteString(quoteIdent(string(domain.ColumnPostcode)))
		args = append(args, filter.Postcode)
	}
	b.WriteString(" = ")
	b.WriteString(ph(len(args)))

	b.WriteString(" AND ")
	b.WriteString(quoteIdent(string(domain.ColumnFractionCode)))
	b.WriteString(" IN (")
	for i, code := range filter.Codes {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, code)
		b.WriteString(ph(len(args)))
	}
	b.WriteString(")")

	b.WriteString(" ORDER BY place, street, house_number, weekday LIMIT ")
	args = append(args, filter.EffectiveLimit())
	b.WriteString(ph(len(args)))

	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.AddressRecord, error) {
	var r domain.AddressRecord
	var house *string
	err := row.Scan(&r.Key, &r.Postcode, &r.Place, &r.Street, &house, &r.FractionCode, &r.Weekday)
	if err != nil {
		return domain.AddressRecord{}, err
	}
	r.HouseNumber = deref(house)
	return r, nil
}

// tableColumns caches the column names of the address table. A failed or
// empty read is retried on the next call.
type tableColumns struct {
	mu    sync.Mutex
	names map[string]bool
}

func (t *tableColumns) has(ctx context.Context, col domain.Column, load func(ctx context.Context) ([]string, error)) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.names == nil {
		names, err := load(ctx)
		if err != nil {
			return false, err
		}
		if len(names) == 0 {
			return false, nil
		}
		t.names = make(map[string]bool, len(names))
		for _, name := range names {
			t.names[strings.ToLower(name)] = true
		}
	}
	return t.names[string(col)], nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func validateBatch(records []domain.AddressRecord, columns []domain.Column) error {
	if len(records)*len(columns) > MaxParams {
		return fmt.Errorf("batch of %d rows exceeds %d bind parameters", len(records), MaxParams)
	}
	return nil
}
