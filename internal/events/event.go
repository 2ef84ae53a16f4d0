// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"avfall_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Import Domain Events
// =============================================================================

// ImportStatus is the terminal state of a committed import.
type ImportStatus string

const (
	ImportSucceeded ImportStatus = "succeeded"
	ImportFailed    ImportStatus = "failed"
)

// ImportCompleted is published when a committed (non dry-run) import stops,
// successfully or not.
type ImportCompleted struct {
	BaseEvent
	ImportID         uuid.UUID     `json:"importId"`
	RequestedBy      *uuid.UUID    `json:"requestedBy,omitempty"`
	Source           string        `json:"source"`
	SheetName        string        `json:"sheetName,omitempty"`
	Status           ImportStatus  `json:"status"`
	ReceivedRows     int           `json:"receivedRows"`
	ParsedRows       int           `json:"parsedRows"`
	RejectedRows     int           `json:"rejectedRows"`
	SkippedBlankRows int           `json:"skippedBlankRows"`
	Upserted         int           `json:"upserted"`
	Batches          int           `json:"batches"`
	StrippedColumns  []string      `json:"strippedColumns,omitempty"`
	Error            string        `json:"error,omitempty"`
	Duration         time.Duration `json:"duration"`
}

func (e ImportCompleted) EventName() string { return "addresses.import.completed" }
