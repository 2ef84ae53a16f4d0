package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/service"
	"avfall_backend/platform/db"
	"avfall_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "addresses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunSQLiteMigrations(ctx, conn))
	return conn
}

func record(street string, house string, fraction string, weekday int) domain.AddressRecord {
	r := domain.AddressRecord{
		Postcode:        "0372",
		PostcodePrefix3: "037",
		Place:           "Oslo",
		Street:          street,
		HouseNumber:     house,
		FractionCode:    fraction,
		Weekday:         weekday,
	}
	r.Key = r.ComputeKey()
	return r
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM addresses`).Scan(&n))
	return n
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	store := NewSQLite(conn, "addresses")

	first := record("Kirkegata", "5", "119901", 3)
	first.ContainerType = "140L"

	n, err := store.UpsertBatch(ctx, []domain.AddressRecord{first}, domain.WriteColumns)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second := first
	second.Street = "KIRKEGATA"
	second.ContainerType = "240L"
	second.Key = second.ComputeKey()
	require.Equal(t, first.Key, second.Key)

	n, err = store.UpsertBatch(ctx, []domain.AddressRecord{second}, domain.WriteColumns)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, countRows(t, conn))

	rows, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:    domain.ScopeExact,
		Postcode: "0372",
		Codes:    []string{"119901"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "KIRKEGATA", rows[0].Street)

	var containerType string
	require.NoError(t, conn.QueryRow(`SELECT container_type FROM addresses WHERE dedup_key = ?`, first.Key).Scan(&containerType))
	assert.Equal(t, "240L", containerType)
}

func TestSQLiteFindCollectionsFiltersByScopeAndCodes(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	store := NewSQLite(conn, "addresses")

	other := record("Storgata", "1", "119901", 1)
	other.Postcode = "0381"
	other.PostcodePrefix3 = "038"
	other.Key = other.ComputeKey()

	batch := []domain.AddressRecord{
		record("Kirkegata", "5", "119901", 3),
		record("Kirkegata", "7", "119911", 1),
		record("Kirkegata", "9", "111101", 2),
		other,
	}
	batch[1].Postcode = "0379"
	batch[1].Key = batch[1].ComputeKey()

	n, err := store.UpsertBatch(ctx, batch, domain.WriteColumns)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	prefix, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:   domain.ScopePrefix,
		Prefix3: "037",
		Codes:   []string{"119901", "119911"},
	})
	require.NoError(t, err)
	require.Len(t, prefix, 2)
	for _, row := range prefix {
		assert.Contains(t, []string{"119901", "119911"}, row.FractionCode)
		assert.Equal(t, "037", row.Postcode[:3])
	}
	assert.Equal(t, []int{1, 3}, domain.DistinctWeekdays(prefix))

	exact, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:    domain.ScopeExact,
		Postcode: "0372",
		Codes:    []string{"119901", "119911"},
	})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "5", exact[0].HouseNumber)

	limited, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:   domain.ScopePrefix,
		Prefix3: "037",
		Codes:   []string{"119901", "119911", "111101"},
		Limit:   1,
	})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteReportsMissingOptionalColumn(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	_, err := conn.Exec(`CREATE TABLE legacy_addresses (
		dedup_key TEXT NOT NULL UNIQUE,
		postcode TEXT NOT NULL,
		postcode_prefix3 TEXT,
		place TEXT NOT NULL,
		street TEXT NOT NULL,
		house_number TEXT,
		fraction_code TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		updated_at TEXT
	)`)
	require.NoError(t, err)

	store := NewSQLite(conn, "legacy_addresses")
	_, err = store.UpsertBatch(ctx, []domain.AddressRecord{record("Kirkegata", "5", "119901", 3)}, domain.WriteColumns)

	var missing *domain.MissingColumnError
	require.True(t, errors.As(err, &missing), "expected MissingColumnError, got %v", err)
	assert.True(t, missing.Column.IsOptional())
}

func TestSQLiteLookupOnTableWithoutOptionalColumns(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	_, err := conn.Exec(`CREATE TABLE bare_addresses (
		dedup_key TEXT NOT NULL UNIQUE,
		postcode TEXT NOT NULL,
		place TEXT NOT NULL,
		street TEXT NOT NULL,
		house_number TEXT,
		fraction_code TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		updated_at TEXT
	)`)
	require.NoError(t, err)

	store := NewSQLite(conn, "bare_addresses")
	columns := []domain.Column{
		domain.ColumnDedupKey, domain.ColumnPostcode, domain.ColumnPlace, domain.ColumnStreet,
		domain.ColumnHouseNumber, domain.ColumnFractionCode, domain.ColumnWeekday,
	}
	first := record("Kirkegata", "5", "119901", 3)
	first.Route = "R12"
	other := record("Storgata", "1", "119901", 1)
	other.Postcode = "0381"
	other.Key = other.ComputeKey()
	_, err = store.UpsertBatch(ctx, []domain.AddressRecord{first, other}, columns)
	require.NoError(t, err)

	exact, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:    domain.ScopeExact,
		Postcode: "0372",
		Codes:    []string{"119901"},
	})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "Kirkegata", exact[0].Street)
	assert.Empty(t, exact[0].Route)

	prefix, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:   domain.ScopePrefix,
		Prefix3: "037",
		Codes:   []string{"119901"},
	})
	require.NoError(t, err)
	require.Len(t, prefix, 1)
	assert.Equal(t, "0372", prefix[0].Postcode)
}

func TestSQLiteImportThenLookupWithoutRouteColumn(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	_, err := conn.Exec(`CREATE TABLE routeless_addresses (
		dedup_key TEXT NOT NULL UNIQUE,
		postcode TEXT NOT NULL,
		postcode_prefix3 TEXT,
		place TEXT NOT NULL,
		street TEXT NOT NULL,
		house_number TEXT,
		fraction_code TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		sequence TEXT,
		customer TEXT,
		customer_name TEXT,
		technical_location TEXT,
		weekly_interval TEXT,
		container_count TEXT,
		container_type TEXT,
		updated_at TEXT
	)`)
	require.NoError(t, err)

	store := NewSQLite(conn, "routeless_addresses")
	rec := record("Kirkegata", "5", "119901", 3)
	rec.Route = "R12"

	result, err := service.NewUpserter(store, 1000, logger.Discard()).Upsert(ctx, []domain.AddressRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, []string{"route"}, result.StrippedColumnNames())
	assert.Equal(t, 1, result.Upserted)

	rows, err := store.FindCollections(ctx, domain.LookupFilter{
		Scope:   domain.ScopePrefix,
		Prefix3: "037",
		Codes:   []string{"119901"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Weekday)
}
