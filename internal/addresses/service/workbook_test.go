package service

import (
	"context"
	"errors"
	"testing"

	"avfall_backend/internal/events"
	"avfall_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type memoryArchive struct {
	objects map[string][]byte
	putErr  error
}

func (a *memoryArchive) Put(_ context.Context, fileName string, data []byte) (string, error) {
	if a.putErr != nil {
		return "", a.putErr
	}
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	key := "imports/" + fileName
	a.objects[key] = data
	return key, nil
}

func (a *memoryArchive) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := a.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type memoryQueue struct {
	jobs []QueuedImport
}

func (q *memoryQueue) EnqueueImport(_ context.Context, job QueuedImport) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "data"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("data", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func sampleWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, [][]any{
		{"Postnummer", "Sted", "Gate", "Husnr", "Avfall", "Ukedag"},
		{372, "Oslo", "Kirkegata", 5, 119901, 3},
		{"0372", "Oslo", "Storgata", "1", "119901", 1},
	})
}

func TestImportWorkbookArchivesCommittedUpload(t *testing.T) {
	store := &fakeStore{}
	archive := &memoryArchive{}
	importer := newTestImporter(store, &fakeRuns{}, &recordingBus{})
	importer.SetArchive(archive)

	resp, err := importer.ImportWorkbook(context.Background(), WorkbookRequest{
		FileName: "tommedager.xlsx",
		Data:     sampleWorkbook(t),
		Source:   SourceUpload,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SheetName != "data" || resp.ParsedRows != 2 || resp.Upserted != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ArchiveKey != "imports/tommedager.xlsx" {
		t.Fatalf("expected the archive key in the response, got %q", resp.ArchiveKey)
	}
	if store.calls[0].keys[0] != "0372|oslo|kirkegata|5|119901|3" {
		t.Fatalf("unexpected first key %q", store.calls[0].keys[0])
	}
}

func TestImportWorkbookDryRunSkipsArchive(t *testing.T) {
	archive := &memoryArchive{}
	importer := newTestImporter(&fakeStore{}, nil, nil)
	importer.SetArchive(archive)

	resp, err := importer.ImportWorkbook(context.Background(), WorkbookRequest{FileName: "a.xlsx", Data: sampleWorkbook(t), DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.DryRun || len(archive.objects) != 0 {
		t.Fatalf("expected a dry run without archiving, got %+v", resp)
	}
}

func TestQueueWorkbookRequiresArchiveAndQueue(t *testing.T) {
	importer := newTestImporter(&fakeStore{}, nil, nil)
	_, err := importer.QueueWorkbook(context.Background(), WorkbookRequest{Data: sampleWorkbook(t)})
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestQueuedWorkbookRunsInWorker(t *testing.T) {
	store := &fakeStore{}
	runs := &fakeRuns{}
	archive := &memoryArchive{}
	queue := &memoryQueue{}
	importer := newTestImporter(store, runs, &recordingBus{})
	importer.SetArchive(archive)
	importer.SetQueue(queue)
	requester := uuid.New()

	queued, err := importer.QueueWorkbook(context.Background(), WorkbookRequest{
		FileName:    "uke42.xlsx",
		Data:        sampleWorkbook(t),
		RequestedBy: &requester,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued.Status != "queued" || len(queue.jobs) != 1 || len(store.calls) != 0 {
		t.Fatalf("expected a queued job and no writes, got %+v", queued)
	}

	resp, err := importer.ImportArchived(context.Background(), queue.jobs[0])
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if *resp.ImportID != queued.ImportID || resp.Upserted != 2 {
		t.Fatalf("unexpected worker response %+v", resp)
	}
	if runs.started[0].Source != SourceWorker || *runs.started[0].RequestedBy != requester {
		t.Fatalf("unexpected run start %+v", runs.started[0])
	}
}

func TestImportArchivedClosesRunWhenWorkbookIsGone(t *testing.T) {
	runs := &fakeRuns{}
	bus := &recordingBus{}
	importer := newTestImporter(&fakeStore{}, runs, bus)
	importer.SetArchive(&memoryArchive{})
	job := QueuedImport{ImportID: uuid.New(), ArchiveKey: "imports/missing.xlsx"}

	if _, err := importer.ImportArchived(context.Background(), job); err == nil {
		t.Fatal("expected an error for a missing workbook")
	}
	if outcome := runs.finished[job.ImportID]; outcome.Status != events.ImportFailed {
		t.Fatalf("expected the run to be closed as failed, got %+v", outcome)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected a completion event, got %d", len(bus.events))
	}
}
