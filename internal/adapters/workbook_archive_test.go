package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"avfall_backend/internal/adapters/storage"
)

type memoryStorage struct {
	objects     map[string][]byte
	contentType map[string]string
	maxSize     int64
}

func newMemoryStorage(maxSize int64) *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, contentType: map[string]string{}, maxSize: maxSize}
}

func (m *memoryStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func (m *memoryStorage) DownloadFile(_ context.Context, _ string, fileKey string) (io.ReadCloser, error) {
	data, ok := m.objects[fileKey]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) UploadFile(_ context.Context, _ string, folder, fileName, contentType string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	m.objects[key] = data
	m.contentType[key] = contentType
	return key, nil
}

func (m *memoryStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (m *memoryStorage) ValidateContentType(string) error                 { return nil }
func (m *memoryStorage) ValidateFileSize(int64) error                     { return nil }
func (m *memoryStorage) GetMaxFileSize() int64                            { return m.maxSize }

func TestWorkbookArchiveRoundTrip(t *testing.T) {
	store := newMemoryStorage(1 << 20)
	archive := NewWorkbookArchive(store, "address-imports")
	archive.now = func() time.Time { return time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	key, err := archive.Put(ctx, "tommeplan.xlsx", []byte("PK-workbook"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "imports/2024/05/01/tommeplan.xlsx" {
		t.Fatalf("unexpected key %q", key)
	}
	if store.contentType[key] != storage.ContentTypeXLSX {
		t.Fatalf("unexpected content type %q", store.contentType[key])
	}

	data, err := archive.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "PK-workbook" {
		t.Fatalf("unexpected data %q", data)
	}

	url, err := archive.DownloadURL(ctx, key)
	if err != nil || !strings.HasSuffix(url, "/address-imports/"+key) {
		t.Fatalf("unexpected download url %q (%v)", url, err)
	}
}

func TestWorkbookArchiveRefusesOversizedObjects(t *testing.T) {
	store := newMemoryStorage(4)
	store.objects["imports/big.xlsx"] = []byte("too large")
	archive := NewWorkbookArchive(store, "address-imports")

	if _, err := archive.Get(context.Background(), "imports/big.xlsx"); err == nil {
		t.Fatal("expected an error for an oversized workbook")
	}
}
