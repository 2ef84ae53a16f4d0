package service

import (
	"context"
	"errors"
	"testing"

	"avfall_backend/internal/importjobs/repository"
	"avfall_backend/internal/importjobs/transport"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	runs    map[uuid.UUID]repository.Run
	created []repository.CreateParams
	listed  repository.ListParams
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{runs: make(map[uuid.UUID]repository.Run)}
}

func (f *fakeStore) Create(_ context.Context, p repository.CreateParams) error {
	f.created = append(f.created, p)
	return f.err
}

func (f *fakeStore) Finish(_ context.Context, id uuid.UUID, p repository.FinishParams) error {
	run, ok := f.runs[id]
	if !ok {
		return repository.ErrNotFound
	}
	run.Status = p.Status
	f.runs[id] = run
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (repository.Run, error) {
	if f.err != nil {
		return repository.Run{}, f.err
	}
	run, ok := f.runs[id]
	if !ok {
		return repository.Run{}, repository.ErrNotFound
	}
	return run, nil
}

func (f *fakeStore) List(_ context.Context, p repository.ListParams) ([]repository.Run, error) {
	f.listed = p
	if f.err != nil {
		return nil, f.err
	}
	runs := make([]repository.Run, 0, len(f.runs))
	for _, run := range f.runs {
		runs = append(runs, run)
	}
	return runs, nil
}

type fakeDownloads struct {
	err error
}

func (d fakeDownloads) DownloadURL(_ context.Context, key string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return "https://storage.local/" + key + "?sig=1", nil
}

func strPtr(s string) *string { return &s }

func TestQueueAndStartSetStatus(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil, logger.Discard())
	id := uuid.New()

	if err := svc.Queue(context.Background(), repository.CreateParams{ID: id, Source: "worker"}); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := svc.Start(context.Background(), repository.CreateParams{ID: id, Source: "worker"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if store.created[0].Status != repository.StatusQueued || store.created[1].Status != repository.StatusRunning {
		t.Fatalf("unexpected statuses %+v", store.created)
	}
}

func TestListDefaultsLimit(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.runs[id] = repository.Run{ID: id, Status: repository.StatusSucceeded, SheetName: strPtr("data")}
	svc := New(store, nil, logger.Discard())

	resp, err := svc.List(context.Background(), transport.ListRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listed.Limit != defaultLimit {
		t.Fatalf("expected default limit %d, got %d", defaultLimit, store.listed.Limit)
	}
	if len(resp.Items) != 1 || resp.Items[0].SheetName != "data" || resp.Items[0].StrippedColumns == nil {
		t.Fatalf("unexpected items %+v", resp.Items)
	}
}

func TestListStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	svc := New(store, nil, logger.Discard())

	if _, err := svc.List(context.Background(), transport.ListRequest{Limit: 5}); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestGetSignsArchivedWorkbook(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.runs[id] = repository.Run{ID: id, ArchiveKey: strPtr("imports/2024/05/01/plan.xlsx")}
	svc := New(store, fakeDownloads{}, logger.Discard())

	resp, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Item.DownloadURL != "https://storage.local/imports/2024/05/01/plan.xlsx?sig=1" {
		t.Fatalf("unexpected download url %q", resp.Item.DownloadURL)
	}
}

func TestGetKeepsRunWhenSigningFails(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.runs[id] = repository.Run{ID: id, ArchiveKey: strPtr("imports/a.xlsx")}
	svc := New(store, fakeDownloads{err: errors.New("minio down")}, logger.Discard())

	resp, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Item.DownloadURL != "" || resp.Item.ArchiveKey != "imports/a.xlsx" {
		t.Fatalf("unexpected item %+v", resp.Item)
	}
}

func TestGetUnknownRun(t *testing.T) {
	svc := New(newFakeStore(), nil, logger.Discard())

	if _, err := svc.Get(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
