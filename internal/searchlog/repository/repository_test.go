package repository

import (
	"strings"
	"testing"
)

func TestTopSQLOnlyGroupsByKnownColumns(t *testing.T) {
	if got := topSQL(ByPrefix); !strings.Contains(got, "COALESCE(postcode_prefix3, '')") {
		t.Fatalf("expected prefix grouping, got %q", got)
	}
	if got := topSQL("user_id; DROP TABLE search_logs"); !strings.Contains(got, "COALESCE(fraction, '')") {
		t.Fatalf("expected unknown columns to fall back to fraction, got %q", got)
	}
}

func TestInsertQueryColumnsMatchArguments(t *testing.T) {
	query := strings.ToLower(insertQuery)
	for _, column := range []string{"user_id", "postcode_prefix3", "fraction_codes", "results_count", "lat", "lon"} {
		if !strings.Contains(query, column) {
			t.Fatalf("expected column %q in insert", column)
		}
	}
	if !strings.Contains(query, "$10") || strings.Contains(query, "$11") {
		t.Fatal("expected exactly ten placeholders")
	}
}
