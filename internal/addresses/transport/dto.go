// Package transport holds the request and response shapes of the address
// endpoints.
package transport

import (
	"bytes"
	"strings"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/mapping"

	"github.com/google/uuid"
)

// Flag accepts "1", "true", 1 and true as set; anything else is unset.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.ToLower(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	*f = Flag(raw == "1" || raw == "true" || raw == "yes")
	return nil
}

// ParseFlag reads a form or query value with the same rules as Flag.
func ParseFlag(value string) bool {
	var f Flag
	_ = f.UnmarshalJSON([]byte(value))
	return bool(f)
}

// ImportRowsRequest is the JSON import body.
type ImportRowsRequest struct {
	Rows   []map[string]any `json:"rows"`
	DryRun Flag             `json:"dryRun"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	OK               bool                   `json:"ok"`
	DryRun           bool                   `json:"dryRun,omitempty"`
	ImportID         *uuid.UUID             `json:"importId,omitempty"`
	ReceivedRows     int                    `json:"receivedRows"`
	ParsedRows       int                    `json:"parsedRows"`
	RejectedRows     int                    `json:"rejectedRows"`
	SkippedBlankRows int                    `json:"skippedBlankRows"`
	Rejections       []mapping.Rejection    `json:"rejections,omitempty"`
	Upserted         int                    `json:"upserted"`
	Batches          int                    `json:"batches,omitempty"`
	StrippedColumns  []string               `json:"strippedColumns,omitempty"`
	SheetName        string                 `json:"sheetName,omitempty"`
	ArchiveKey       string                 `json:"archiveKey,omitempty"`
	Sample           []domain.AddressRecord `json:"sample,omitempty"`
}

// ImportQueuedResponse is returned when an upload is handed to the worker.
type ImportQueuedResponse struct {
	OK         bool      `json:"ok"`
	ImportID   uuid.UUID `json:"importId"`
	Status     string    `json:"status"`
	SheetName  string    `json:"sheetName,omitempty"`
	ArchiveKey string    `json:"archiveKey"`
}

// ImportUsageResponse answers GET on the import endpoint.
type ImportUsageResponse struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Env     map[string]bool `json:"env"`
}

// LookupRequest holds the lookup query parameters.
type LookupRequest struct {
	Postcode string `form:"postcode"`
	Fraction string `form:"fraction"`
	Scope    string `form:"scope" validate:"omitempty,oneof=exact prefix"`
	Address  string `form:"address"`
	Place    string `form:"place"`
}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LookupResponse reports the collection weekdays for a query.
type LookupResponse struct {
	OK            bool     `json:"ok"`
	Postcode      string   `json:"postcode,omitempty"`
	Prefix3       string   `json:"prefix3"`
	Scope         string   `json:"scope"`
	Fraction      string   `json:"fraction"`
	FractionLabel string   `json:"fractionLabel"`
	Count         int      `json:"count"`
	Weekdays      []int    `json:"weekdays"`
	WeekdayNames  []string `json:"weekdayNames"`
	Summary       string   `json:"summary"`
	Location      *Point   `json:"location,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Marker is one geocoded address on the map.
type Marker struct {
	Address      string   `json:"address"`
	Weekdays     []int    `json:"weekdays"`
	WeekdayNames []string `json:"weekdayNames"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
}

// MarkersResponse lists the plotted markers and how many addresses were tried.
type MarkersResponse struct {
	OK      bool     `json:"ok"`
	Markers []Marker `json:"markers"`
	Plotted int      `json:"plotted"`
	Tried   int      `json:"tried"`
}

// FractionGroupsResponse lists the selectable fraction groups.
type FractionGroupsResponse struct {
	OK     bool            `json:"ok"`
	Groups []FractionGroup `json:"groups"`
}

// FractionGroup is a fraction group without its code set.
type FractionGroup struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}
