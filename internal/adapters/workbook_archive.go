package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"avfall_backend/internal/adapters/storage"
	addresssvc "avfall_backend/internal/addresses/service"
)

// archiveRoot is the key prefix for archived import workbooks.
const archiveRoot = "imports"

// WorkbookArchive stores uploaded import workbooks in object storage.
// It implements addresses/service.Archive.
type WorkbookArchive struct {
	storage storage.StorageService
	bucket  string
	now     func() time.Time
}

// NewWorkbookArchive creates a new archive adapter for bucket.
func NewWorkbookArchive(storageSvc storage.StorageService, bucket string) *WorkbookArchive {
	return &WorkbookArchive{storage: storageSvc, bucket: bucket, now: time.Now}
}

// Put uploads data under imports/YYYY/MM/DD and returns the object key.
func (a *WorkbookArchive) Put(ctx context.Context, fileName string, data []byte) (string, error) {
	folder := path.Join(archiveRoot, a.now().UTC().Format("2006/01/02"))
	contentType := storage.WorkbookContentType(fileName)
	return a.storage.UploadFile(ctx, a.bucket, folder, fileName, contentType, bytes.NewReader(data), int64(len(data)))
}

// Get downloads an archived workbook. Objects above the storage size limit
// are refused rather than read into memory.
func (a *WorkbookArchive) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := a.storage.DownloadFile(ctx, a.bucket, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = body.Close()
	}()

	limit := a.storage.GetMaxFileSize()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read archived workbook %s: %w", key, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("archived workbook %s exceeds %d bytes", key, limit)
	}
	return data, nil
}

// DownloadURL returns a short-lived link to an archived workbook.
func (a *WorkbookArchive) DownloadURL(ctx context.Context, key string) (string, error) {
	presigned, err := a.storage.GenerateDownloadURL(ctx, a.bucket, key)
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// Compile-time check that WorkbookArchive implements addresses/service.Archive.
var _ addresssvc.Archive = (*WorkbookArchive)(nil)
