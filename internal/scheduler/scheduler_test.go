package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"avfall_backend/platform/logger"

	"github.com/hibiken/asynq"
)

func TestAddressImportPayloadRoundTrip(t *testing.T) {
	in := AddressImportPayload{
		ImportID:   "7f1c0b8e-2d7e-4c1e-9a55-3f0a1b2c3d4e",
		ArchiveKey: "imports/2024/05/01/uke18_ab12cd34.xlsx",
		FileName:   "uke18.xlsx",
		SheetName:  "data",
	}

	task, err := NewAddressImportTask(in)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskAddressImport {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	out, err := ParseAddressImportPayload(task)
	if err != nil || out != in {
		t.Fatalf("unexpected payload %+v (%v)", out, err)
	}
}

type recordingImports struct {
	payloads []AddressImportPayload
}

func (r *recordingImports) HandleAddressImport(_ context.Context, payload AddressImportPayload) error {
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestHandleAddressImport(t *testing.T) {
	imports := &recordingImports{}
	w := &Worker{imports: imports, log: logger.Discard()}

	task, _ := NewAddressImportTask(AddressImportPayload{ImportID: "abc", ArchiveKey: "imports/a.xlsx"})
	if err := w.handleAddressImport(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(imports.payloads) != 1 || imports.payloads[0].ArchiveKey != "imports/a.xlsx" {
		t.Fatalf("unexpected payloads %+v", imports.payloads)
	}

	err := w.handleAddressImport(context.Background(), asynq.NewTask(TaskAddressImport, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected a malformed payload to skip retries, got %v", err)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected options %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS for rediss with tlsInsecure")
	}

	plain, err := redisClientOpt("redis://localhost:6379/0", false)
	if err != nil || plain.TLSConfig != nil {
		t.Fatalf("expected no TLS, got %+v (%v)", plain, err)
	}
}

type sweepStore struct {
	staleBefore  time.Time
	deleteBefore time.Time
}

func (s *sweepStore) FailStaleRuns(_ context.Context, before time.Time, _ string) (int64, error) {
	s.staleBefore = before
	return 1, nil
}

func (s *sweepStore) DeleteFinishedRunsBefore(_ context.Context, before time.Time) (int64, error) {
	s.deleteBefore = before
	return 0, nil
}

func TestImportRunSweeperWindows(t *testing.T) {
	store := &sweepStore{}
	s := NewImportRunSweeper(store, logger.Discard(), 0, 0, 0)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.sweep(context.Background())

	if !store.staleBefore.Equal(now.Add(-defaultStaleRunTimeout)) {
		t.Fatalf("unexpected stale cutoff %v", store.staleBefore)
	}
	if !store.deleteBefore.Equal(now.Add(-defaultFinishedRetention)) {
		t.Fatalf("unexpected retention cutoff %v", store.deleteBefore)
	}
}
