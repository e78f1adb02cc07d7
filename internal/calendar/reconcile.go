package calendar

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// DeadlineWindow is the display length given to deadlines that have no start.
const DeadlineWindow = time.Hour

// DroppedRecord names a fetched record that could not be inserted.
type DroppedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ReconcileResult summarises one reconciliation.
type ReconcileResult struct {
	Removed  int             `json:"removed"`
	Inserted int             `json:"inserted"`
	Dropped  []DroppedRecord `json:"dropped,omitempty"`
}

// Reconciler parses fetched records and mirrors them into a Collection.
type Reconciler struct {
	conv   *zonedtime.Converter
	logger *zap.Logger
	now    func() time.Time
}

// NewReconciler constructs a reconciler bound to the calendar zone.
func NewReconciler(conv *zonedtime.Converter, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{conv: conv, logger: logger, now: time.Now}
}

// Reconcile replaces the contents of local with every fetched record that parses. Records that
// fail to parse are logged and skipped; they never abort the run. Calls on the same collection
// are serialized.
func (r *Reconciler) Reconcile(local *Collection, fetched []models.FetchedEvent) ReconcileResult {
	local.applyMu.Lock()
	defer local.applyMu.Unlock()
	return r.reconcile(local, fetched)
}

// Apply reconciles only when gen is still the latest token issued by local.Begin. Results of
// superseded fetches are discarded with ErrStaleGeneration.
func (r *Reconciler) Apply(local *Collection, gen uint64, fetched []models.FetchedEvent) (ReconcileResult, error) {
	local.applyMu.Lock()
	defer local.applyMu.Unlock()
	if !local.Current(gen) {
		r.logger.Debug("discarding stale calendar fetch", zap.Uint64("generation", gen))
		return ReconcileResult{}, appErrors.ErrStaleGeneration
	}
	return r.reconcile(local, fetched), nil
}

func (r *Reconciler) reconcile(local *Collection, fetched []models.FetchedEvent) ReconcileResult {
	result := ReconcileResult{Removed: local.Len()}
	next := make(map[string]models.EventRecord, len(fetched))
	for _, item := range fetched {
		record, err := ParseRecord(item, r.conv)
		if err != nil {
			r.logger.Warn("dropping calendar event", zap.String("event_id", item.ID), zap.Error(err))
			result.Dropped = append(result.Dropped, DroppedRecord{ID: item.ID, Reason: err.Error()})
			continue
		}
		next[record.ID] = record
	}
	result.Inserted = len(next)
	local.replace(next, r.now())
	return result
}

// ParseRecord converts a fetched record, parsing its instants with the instant-first fallback.
// Date-only values span whole days: a start at local midnight, an end at the next one.
func ParseRecord(item models.FetchedEvent, conv *zonedtime.Converter) (models.EventRecord, error) {
	if strings.TrimSpace(item.ID) == "" {
		return models.EventRecord{}, appErrors.MissingField("id")
	}
	start, err := parseBound(conv, item.Start, false)
	if err != nil {
		return models.EventRecord{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseBound(conv, item.End, true)
	if err != nil {
		return models.EventRecord{}, fmt.Errorf("end: %w", err)
	}
	return models.EventRecord{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Kind:        item.Kind,
		Start:       start,
		End:         end,
		ProjectID:   item.ProjectID,
		TaskID:      item.TaskID,
	}, nil
}

// Project renders a record for display in the converter's zone. A deadline without a start is
// shown as a window ending at its due instant; the synthesized start lives only in the entry.
// Records with neither start nor end cannot be placed and report false.
func Project(record models.EventRecord, conv *zonedtime.Converter) (models.CalendarEntry, bool) {
	var start, end zonedtime.Instant
	synthesized := false
	switch {
	case record.Start != nil && record.End != nil:
		start, end = *record.Start, *record.End
	case record.Start == nil && record.End != nil:
		end = *record.End
		if record.Kind == models.EventKindDeadline {
			start = zonedtime.NewInstant(end.Add(-DeadlineWindow))
			synthesized = true
		} else {
			start = end
		}
	case record.Start != nil:
		start, end = *record.Start, *record.Start
	default:
		return models.CalendarEntry{}, false
	}

	return models.CalendarEntry{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		Kind:        record.Kind,
		Start:       start,
		End:         end,
		StartLocal:  conv.InstantToInput(start),
		EndLocal:    conv.InstantToInput(end),
		Synthesized: synthesized,
		ProjectID:   record.ProjectID,
		TaskID:      record.TaskID,
	}, true
}

// WritePayload builds the backend payload from a stored record. Display-only values such as a
// synthesized deadline start are never included.
func WritePayload(record models.EventRecord) models.EventWrite {
	return models.EventWrite{
		Title:       record.Title,
		Description: record.Description,
		Kind:        string(record.Kind),
		Start:       instantString(record.Start),
		End:         instantString(record.End),
		ProjectID:   record.ProjectID,
		TaskID:      record.TaskID,
	}
}

func parseBound(conv *zonedtime.Converter, input *string, closing bool) (*zonedtime.Instant, error) {
	if input == nil || strings.TrimSpace(*input) == "" {
		return nil, nil
	}
	instant, err := conv.ParseBound(*input, closing)
	if err != nil {
		return nil, err
	}
	return &instant, nil
}

func instantString(instant *zonedtime.Instant) *string {
	if instant == nil {
		return nil
	}
	value := instant.String()
	return &value
}
