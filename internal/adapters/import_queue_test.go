package adapters

import (
	"context"
	"errors"
	"testing"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/importjobs/repository"
	importsvc "avfall_backend/internal/importjobs/service"
	"avfall_backend/internal/scheduler"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type memoryRuns struct {
	created  []repository.CreateParams
	finished map[uuid.UUID]repository.FinishParams
}

func (m *memoryRuns) Create(_ context.Context, p repository.CreateParams) error {
	m.created = append(m.created, p)
	return nil
}

func (m *memoryRuns) Finish(_ context.Context, id uuid.UUID, p repository.FinishParams) error {
	if m.finished == nil {
		m.finished = make(map[uuid.UUID]repository.FinishParams)
	}
	m.finished[id] = p
	return nil
}

func (m *memoryRuns) Get(context.Context, uuid.UUID) (repository.Run, error) {
	return repository.Run{}, repository.ErrNotFound
}

func (m *memoryRuns) List(context.Context, repository.ListParams) ([]repository.Run, error) {
	return nil, nil
}

type recordingScheduler struct {
	payloads []scheduler.AddressImportPayload
	err      error
}

func (s *recordingScheduler) EnqueueAddressImport(_ context.Context, payload scheduler.AddressImportPayload) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestImportQueueRecordsRunBeforeEnqueue(t *testing.T) {
	runs := &memoryRuns{}
	sched := &recordingScheduler{}
	queue := NewImportQueue(importsvc.New(runs, nil, logger.Discard()), sched)
	requester := uuid.New()
	job := addresssvc.QueuedImport{
		ImportID:    uuid.New(),
		ArchiveKey:  "imports/2024/05/01/plan.xlsx",
		FileName:    "plan.xlsx",
		SheetName:   "data",
		RequestedBy: &requester,
	}

	if err := queue.EnqueueImport(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs.created) != 1 || runs.created[0].Status != repository.StatusQueued {
		t.Fatalf("expected a queued run, got %+v", runs.created)
	}
	payload := sched.payloads[0]
	if payload.ImportID != job.ImportID.String() || payload.RequestedBy != requester.String() || payload.SheetName != "data" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestImportQueueClosesRunWhenEnqueueFails(t *testing.T) {
	runs := &memoryRuns{}
	queue := NewImportQueue(importsvc.New(runs, nil, logger.Discard()), &recordingScheduler{err: errors.New("redis down")})
	job := addresssvc.QueuedImport{ImportID: uuid.New(), ArchiveKey: "imports/a.xlsx"}

	if err := queue.EnqueueImport(context.Background(), job); err == nil {
		t.Fatal("expected the enqueue error")
	}
	if runs.finished[job.ImportID].Status != repository.StatusFailed {
		t.Fatalf("expected the run to be failed, got %+v", runs.finished)
	}
}

func TestNewImportQueueWithoutScheduler(t *testing.T) {
	if NewImportQueue(nil, nil) != nil {
		t.Fatal("expected nil queue without a scheduler")
	}
}

type stubImporter struct {
	jobs []addresssvc.QueuedImport
	err  error
}

func (s *stubImporter) ImportArchived(_ context.Context, job addresssvc.QueuedImport) (*transport.ImportResponse, error) {
	s.jobs = append(s.jobs, job)
	if s.err != nil {
		return nil, s.err
	}
	return &transport.ImportResponse{OK: true, ImportID: &job.ImportID}, nil
}

func TestImportWorkerRunsArchivedImport(t *testing.T) {
	importer := &stubImporter{}
	worker := NewImportWorker(importer)
	id, requester := uuid.New(), uuid.New()

	err := worker.HandleAddressImport(context.Background(), scheduler.AddressImportPayload{
		ImportID:    id.String(),
		ArchiveKey:  "imports/a.xlsx",
		RequestedBy: requester.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if importer.jobs[0].ImportID != id || *importer.jobs[0].RequestedBy != requester {
		t.Fatalf("unexpected job %+v", importer.jobs[0])
	}
}

func TestImportWorkerSkipsRetryForUnusableWorkbooks(t *testing.T) {
	tests := []struct {
		name      string
		importID  string
		err       error
		skipRetry bool
	}{
		{"invalid id", "not-a-uuid", nil, true},
		{"no valid rows", uuid.NewString(), apperr.Validation("0 valid rows after normalization (check headers/values)."), true},
		{"store failure", uuid.NewString(), errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			worker := NewImportWorker(&stubImporter{err: tt.err})
			err := worker.HandleAddressImport(context.Background(), scheduler.AddressImportPayload{ImportID: tt.importID})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, asynq.SkipRetry); got != tt.skipRetry {
				t.Fatalf("SkipRetry = %v, want %v (%v)", got, tt.skipRetry, err)
			}
		})
	}
}
