package models

import (
	"time"

	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// EventKind classifies calendar events.
type EventKind string

const (
	EventKindNormal   EventKind = "normal"
	EventKindMeeting  EventKind = "meeting"
	EventKindDeadline EventKind = "deadline"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventKindNormal, EventKindMeeting, EventKindDeadline:
		return true
	default:
		return false
	}
}

// FetchedEvent is an event as returned by the backend after field normalisation. Times are
// still raw strings; they are parsed during reconciliation.
type FetchedEvent struct {
	ID          string
	Title       string
	Description string
	Kind        EventKind
	Start       *string
	End         *string
	ProjectID   *string
	TaskID      *string
}

// EventRecord is a calendar event with parsed instants.
type EventRecord struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Kind        EventKind          `json:"kind"`
	Start       *zonedtime.Instant `json:"start"`
	End         *zonedtime.Instant `json:"end"`
	ProjectID   *string            `json:"project_id,omitempty"`
	TaskID      *string            `json:"task_id,omitempty"`
}

// CalendarEntry is the display projection of an EventRecord in the calendar zone.
type CalendarEntry struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Kind        EventKind         `json:"kind"`
	Start       zonedtime.Instant `json:"start"`
	End         zonedtime.Instant `json:"end"`
	StartLocal  string            `json:"start_local"`
	EndLocal    string            `json:"end_local"`
	Synthesized bool              `json:"start_synthesized"`
	ProjectID   *string           `json:"project_id,omitempty"`
	TaskID      *string           `json:"task_id,omitempty"`
}

// EventFilter narrows a calendar fetch.
type EventFilter struct {
	ProjectID string
	Kind      EventKind
	From      *zonedtime.Instant
	To        *zonedtime.Instant
}

// EventWrite is the payload sent to the backend when creating or updating an event.
type EventWrite struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Kind        string  `json:"type"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
	ProjectID   *string `json:"project_id,omitempty"`
	TaskID      *string `json:"task_id,omitempty"`
}

// CalendarView is the response of a calendar listing.
type CalendarView struct {
	Entries     []CalendarEntry `json:"entries"`
	Timezone    string          `json:"timezone"`
	RefreshedAt time.Time       `json:"refreshed_at"`
	Inserted    int             `json:"inserted"`
	Removed     int             `json:"removed"`
	Dropped     int             `json:"dropped"`
	Stale       bool            `json:"stale"`
}

// EventDefaults pre-fills a new event form.
type EventDefaults struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// ExportFormat selects the calendar export encoding.
type ExportFormat string

const (
	ExportFormatICS ExportFormat = "ics"
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportLink is a signed, short-lived URL to a rendered export.
type ExportLink struct {
	Token        string       `json:"token"`
	DownloadPath string       `json:"download_path"`
	Filename     string       `json:"filename"`
	Format       ExportFormat `json:"format"`
	ExpiresAt    time.Time    `json:"expires_at"`
}
