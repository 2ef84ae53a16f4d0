package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

type stubQuerier struct {
	tag   pgconn.CommandTag
	err   error
	calls []execCall
}

func (s *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, execCall{sql: sql, args: args})
	return s.tag, s.err
}

func (s *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *stubQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestCreateStoresEmptyOptionalFieldsAsNull(t *testing.T) {
	db := &stubQuerier{tag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := New(db)

	err := repo.Create(context.Background(), CreateParams{ID: uuid.New(), Source: "json", Status: StatusRunning, ReceivedRows: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := db.calls[0].args
	if args[3].(*string) != nil || args[4].(*string) != nil {
		t.Fatalf("expected sheet name and archive key to be NULL, got %v %v", args[3], args[4])
	}
	if !strings.Contains(db.calls[0].sql, "ON CONFLICT (id) DO UPDATE") {
		t.Fatal("expected create to upsert queued runs")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	db := &stubQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := New(db)

	err := repo.Finish(context.Background(), uuid.New(), FinishParams{Status: StatusSucceeded})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if stripped, ok := db.calls[0].args[7].([]string); !ok || stripped == nil {
		t.Fatalf("expected an empty stripped column list, got %#v", db.calls[0].args[7])
	}
}

func TestSweepQueriesReportAffectedRows(t *testing.T) {
	db := &stubQuerier{tag: pgconn.NewCommandTag("UPDATE 3")}
	repo := New(db)

	n, err := repo.FailStaleRuns(context.Background(), time.Now(), "interrupted")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 failed runs, got %d (%v)", n, err)
	}
	if !strings.Contains(db.calls[0].sql, "'queued', 'running'") {
		t.Fatal("expected only open runs to be failed")
	}

	db.tag = pgconn.NewCommandTag("DELETE 2")
	n, err = repo.DeleteFinishedRunsBefore(context.Background(), time.Now())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted runs, got %d (%v)", n, err)
	}
}
