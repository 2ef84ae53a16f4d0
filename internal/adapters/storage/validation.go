package storage

import (
	"fmt"
	"path"
	"strings"
)

// Spreadsheet MIME types accepted for archived imports.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeXLSM = "application/vnd.ms-excel.sheet.macroEnabled.12"
	ContentTypeXLS  = "application/vnd.ms-excel"
)

// AllowedContentTypes defines the allowed MIME types for uploads, lower-cased.
var AllowedContentTypes = map[string]bool{
	ContentTypeXLSX:                  true,
	strings.ToLower(ContentTypeXLSM): true,
	ContentTypeXLS:                   true,
	// Browsers occasionally send workbooks without a specific type.
	"application/octet-stream": true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	if !IsAllowedContentType(contentType) {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}

// IsAllowedContentType reports whether contentType, ignoring parameters, may be stored.
func IsAllowedContentType(contentType string) bool {
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))
	return AllowedContentTypes[normalized]
}

// WorkbookContentType picks the MIME type for a workbook from its file name.
func WorkbookContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".xlsm":
		return ContentTypeXLSM
	case ".xls":
		return ContentTypeXLS
	case ".xlsx":
		return ContentTypeXLSX
	default:
		return "application/octet-stream"
	}
}
