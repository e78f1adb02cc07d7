package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
)

// EventRepository reads and writes calendar events on the backend.
type EventRepository struct {
	client upstreamClient
	logger *zap.Logger
}

// NewEventRepository constructs an event repository.
func NewEventRepository(client upstreamClient, logger *zap.Logger) *EventRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRepository{client: client, logger: logger}
}

// Entries are decoded one at a time so a single malformed event cannot fail the whole list.
type eventListResponse struct {
	Events []json.RawMessage `json:"events"`
	Data   []json.RawMessage `json:"data"`
}

type eventResponse struct {
	Event *rawEvent `json:"event"`
	Data  *rawEvent `json:"data"`
}

// List fetches the authoritative event list for the filter.
func (r *EventRepository) List(ctx context.Context, token string, filter models.EventFilter) ([]models.FetchedEvent, error) {
	query := url.Values{}
	if filter.ProjectID != "" {
		query.Set("project_id", filter.ProjectID)
	}
	if filter.Kind != "" {
		query.Set("type", string(filter.Kind))
	}
	if filter.From != nil {
		query.Set("from", filter.From.String())
	}
	if filter.To != nil {
		query.Set("to", filter.To.String())
	}

	var out eventListResponse
	if err := r.client.Do(ctx, http.MethodGet, "/calendar/events", token, query, nil, &out); err != nil {
		return nil, err
	}
	entries := pick(out.Events, out.Data)
	events := make([]models.FetchedEvent, 0, len(entries))
	for i, entry := range entries {
		var raw rawEvent
		if err := json.Unmarshal(entry, &raw); err != nil {
			r.logger.Warn("skipping malformed calendar event", zap.Int("index", i), zap.Error(err))
			continue
		}
		events = append(events, normalizeEvent(raw))
	}
	return events, nil
}

// Create stores a new event. The returned event has an empty ID when the backend does not echo it.
func (r *EventRepository) Create(ctx context.Context, token string, payload models.EventWrite) (models.FetchedEvent, error) {
	var out eventResponse
	if err := r.client.Do(ctx, http.MethodPost, "/calendar/events", token, nil, payload, &out); err != nil {
		return models.FetchedEvent{}, err
	}
	return echoed(out), nil
}

// Update replaces an event.
func (r *EventRepository) Update(ctx context.Context, token, id string, payload models.EventWrite) (models.FetchedEvent, error) {
	var out eventResponse
	if err := r.client.Do(ctx, http.MethodPut, pathOf("calendar", "events", id), token, nil, payload, &out); err != nil {
		return models.FetchedEvent{}, err
	}
	event := echoed(out)
	if event.ID == "" {
		event.ID = id
	}
	return event, nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, token, id string) error {
	return r.client.Do(ctx, http.MethodDelete, pathOf("calendar", "events", id), token, nil, nil, nil)
}

func echoed(out eventResponse) models.FetchedEvent {
	raw := pickOne(out.Event, out.Data)
	if raw == nil {
		return models.FetchedEvent{}
	}
	return normalizeEvent(*raw)
}
