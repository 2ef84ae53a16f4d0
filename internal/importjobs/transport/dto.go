package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListRequest filters GET /api/v1/admin/imports.
type ListRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=queued running succeeded failed"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

// Run is one import run as shown to admins.
type Run struct {
	ID               uuid.UUID  `json:"id"`
	RequestedBy      *uuid.UUID `json:"requestedBy,omitempty"`
	Source           string     `json:"source"`
	SheetName        string     `json:"sheetName,omitempty"`
	ArchiveKey       string     `json:"archiveKey,omitempty"`
	DownloadURL      string     `json:"downloadUrl,omitempty"`
	Status           string     `json:"status"`
	ReceivedRows     int        `json:"receivedRows"`
	ParsedRows       int        `json:"parsedRows"`
	RejectedRows     int        `json:"rejectedRows"`
	SkippedBlankRows int        `json:"skippedBlankRows"`
	Upserted         int        `json:"upserted"`
	Batches          int        `json:"batches"`
	StrippedColumns  []string   `json:"strippedColumns"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
}

type ListResponse struct {
	OK    bool  `json:"ok"`
	Items []Run `json:"items"`
}

type RunResponse struct {
	OK   bool `json:"ok"`
	Item Run  `json:"item"`
}
