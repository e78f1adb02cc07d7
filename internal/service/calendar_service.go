package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/calendar"
	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/validation"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/export"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// DefaultEventMinutes is the length of a new event pre-filled by Defaults.
const DefaultEventMinutes = 60

type eventRepository interface {
	List(ctx context.Context, token string, filter models.EventFilter) ([]models.FetchedEvent, error)
	Create(ctx context.Context, token string, payload models.EventWrite) (models.FetchedEvent, error)
	Update(ctx context.Context, token, id string, payload models.EventWrite) (models.FetchedEvent, error)
	Delete(ctx context.Context, token, id string) error
}

type eventValidator interface {
	Event(in validation.EventInput, now time.Time, creating bool) (validation.EventWindow, error)
}

type icsRenderer interface {
	Render(name, zone string, events []export.CalendarEvent) ([]byte, error)
	ContentType() string
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// CalendarExporters bundles the renderers used by Export.
type CalendarExporters struct {
	ICS icsRenderer
	CSV tableRenderer
	PDF tableRenderer
}

// CalendarService keeps each user's local calendar collection in step with the backend.
type CalendarService struct {
	events     eventRepository
	registry   *calendar.Registry
	reconciler *calendar.Reconciler
	conv       *zonedtime.Converter
	validator  eventValidator
	exporters  CalendarExporters
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewCalendarService constructs a CalendarService. Missing exporters fall back to the defaults.
func NewCalendarService(events eventRepository, registry *calendar.Registry, conv *zonedtime.Converter, validate eventValidator, exporters CalendarExporters, metrics *MetricsService, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporters.ICS == nil {
		exporters.ICS = export.NewICSExporter("")
	}
	if exporters.CSV == nil {
		exporters.CSV = export.NewCSVExporter()
	}
	if exporters.PDF == nil {
		exporters.PDF = export.NewPDFExporter()
	}
	return &CalendarService{
		events:     events,
		registry:   registry,
		reconciler: calendar.NewReconciler(conv, logger),
		conv:       conv,
		validator:  validate,
		exporters:  exporters,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Refresh fetches the backend's events for filter and mirrors them into the caller's
// collection. A fetch overtaken by a newer one is not applied; the view then reflects the
// newer state and is marked stale. Fetch errors leave the collection untouched.
func (s *CalendarService) Refresh(ctx context.Context, auth *models.AuthContext, filter models.EventFilter) (*models.CalendarView, error) {
	collection := s.collection(auth)
	gen := collection.Begin()

	fetched, err := s.events.List(ctx, auth.UpstreamToken(), filter)
	if err != nil {
		return nil, err
	}

	result, err := s.reconciler.Apply(collection, gen, fetched)
	if err != nil {
		if errors.Is(err, appErrors.ErrStaleGeneration) {
			s.metrics.RecordStaleFetch()
			view := s.view(collection)
			view.Stale = true
			return view, nil
		}
		return nil, err
	}
	s.metrics.RecordReconcile(result.Inserted, len(result.Dropped))
	if len(result.Dropped) > 0 {
		s.logger.Info("calendar refresh dropped records",
			zap.String("user_id", auth.UserID()),
			zap.Int("dropped", len(result.Dropped)),
			zap.Int("inserted", result.Inserted))
	}

	view := s.view(collection)
	view.Inserted = result.Inserted
	view.Removed = result.Removed
	view.Dropped = len(result.Dropped)
	return view, nil
}

// Get returns one event from the caller's collection.
func (s *CalendarService) Get(_ context.Context, auth *models.AuthContext, id string) (*models.CalendarEntry, error) {
	collection := s.collection(auth)
	record, ok := collection.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	entry, ok := calendar.Project(record, s.conv)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event has no time")
	}
	return &entry, nil
}

// Create validates the form, stores the event on the backend and adds it locally. When the
// backend does not echo an id the collection is refreshed and the stored copy returned; its id
// stays empty only if the refresh fails or the copy cannot be found.
func (s *CalendarService) Create(ctx context.Context, auth *models.AuthContext, in validation.EventInput) (*models.CalendarEntry, error) {
	record, err := s.recordFromInput(in, true)
	if err != nil {
		return nil, err
	}
	echoed, err := s.events.Create(ctx, auth.UpstreamToken(), calendar.WritePayload(record))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(echoed.ID) == "" {
		if _, err := s.Refresh(ctx, auth, models.EventFilter{}); err != nil {
			s.logger.Warn("calendar refresh after create failed", zap.Error(err))
		} else if stored, ok := findCreated(s.collection(auth), record); ok {
			record = stored
		}
		entry, _ := calendar.Project(record, s.conv)
		return &entry, nil
	}

	record.ID = echoed.ID
	s.collection(auth).Put(record)
	entry, _ := calendar.Project(record, s.conv)
	return &entry, nil
}

// Update validates the form and replaces the event. Edits skip the past-start guard. A
// deadline stored without a start keeps none when the form echoes its displayed start.
func (s *CalendarService) Update(ctx context.Context, auth *models.AuthContext, id string, in validation.EventInput) (*models.CalendarEntry, error) {
	record, err := s.recordFromInput(in, false)
	if err != nil {
		return nil, err
	}
	record.ID = id
	if existing, ok := s.collection(auth).Get(id); ok && echoesSynthesizedStart(existing, record) {
		record.Start = nil
	}
	if _, err := s.events.Update(ctx, auth.UpstreamToken(), id, calendar.WritePayload(record)); err != nil {
		return nil, err
	}
	s.collection(auth).Put(record)
	entry, _ := calendar.Project(record, s.conv)
	return &entry, nil
}

// Delete removes the event on the backend, then locally.
func (s *CalendarService) Delete(ctx context.Context, auth *models.AuthContext, id string) error {
	if err := s.events.Delete(ctx, auth.UpstreamToken(), id); err != nil {
		return err
	}
	s.collection(auth).Remove(id)
	return nil
}

// Defaults pre-fills a new event: now until an hour from now, in the calendar zone.
func (s *CalendarService) Defaults() models.EventDefaults {
	conv := s.conv.WithClock(s.now)
	return models.EventDefaults{
		Start:    zonedtime.FormatForInput(conv.Now().Wall),
		End:      zonedtime.FormatForInput(conv.NowPlus(DefaultEventMinutes).Wall),
		Timezone: s.conv.Location().String(),
	}
}

// Upcoming returns up to limit entries that have not ended yet, soonest first.
func (s *CalendarService) Upcoming(auth *models.AuthContext, limit int) []models.CalendarEntry {
	collection, ok := s.registry.Lookup(auth.UserID())
	if !ok {
		return []models.CalendarEntry{}
	}
	now := s.now()
	upcoming := make([]models.CalendarEntry, 0, limit)
	for _, entry := range s.entries(collection) {
		if entry.End.Before(now) {
			continue
		}
		upcoming = append(upcoming, entry)
		if limit > 0 && len(upcoming) == limit {
			break
		}
	}
	return upcoming
}

// Export renders the caller's collection. An empty collection that was never refreshed is
// fetched first.
func (s *CalendarService) Export(ctx context.Context, auth *models.AuthContext, format models.ExportFormat) (*models.ExportFile, error) {
	collection := s.collection(auth)
	if collection.RefreshedAt().IsZero() {
		if _, err := s.Refresh(ctx, auth, models.EventFilter{}); err != nil {
			return nil, err
		}
	}
	entries := s.entries(collection)
	zone := s.conv.Location().String()
	stamp := s.now().In(s.conv.Location()).Format("20060102")

	switch format {
	case models.ExportFormatICS, "":
		items := make([]export.CalendarEvent, 0, len(entries))
		for _, entry := range entries {
			items = append(items, export.CalendarEvent{
				UID:         entry.ID,
				Summary:     entry.Title,
				Description: entry.Description,
				Category:    strings.ToUpper(string(entry.Kind)),
				Start:       entry.Start.Time,
				End:         entry.End.Time,
			})
		}
		body, err := s.exporters.ICS.Render("Dunzo", zone, items)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
		}
		return &models.ExportFile{Filename: fmt.Sprintf("calendar_%s.ics", stamp), ContentType: s.exporters.ICS.ContentType(), Body: body}, nil
	case models.ExportFormatCSV, models.ExportFormatPDF:
		renderer := s.exporters.CSV
		if format == models.ExportFormatPDF {
			renderer = s.exporters.PDF
		}
		body, err := renderer.Render(s.dataset(entries, zone))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
		}
		return &models.ExportFile{Filename: fmt.Sprintf("calendar_%s.%s", stamp, format), ContentType: renderer.ContentType(), Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// EvictIdle drops collections unused for longer than idle.
func (s *CalendarService) EvictIdle(idle time.Duration) int {
	evicted := s.registry.EvictIdle(s.now(), idle)
	s.metrics.SetCollections(s.registry.Len())
	if evicted > 0 {
		s.logger.Info("evicted idle calendar collections", zap.Int("count", evicted))
	}
	return evicted
}

func (s *CalendarService) collection(auth *models.AuthContext) *calendar.Collection {
	collection := s.registry.For(auth.UserID())
	collection.Touch(s.now())
	s.metrics.SetCollections(s.registry.Len())
	return collection
}

func (s *CalendarService) view(collection *calendar.Collection) *models.CalendarView {
	return &models.CalendarView{
		Entries:     s.entries(collection),
		Timezone:    s.conv.Location().String(),
		RefreshedAt: collection.RefreshedAt(),
	}
}

func (s *CalendarService) entries(collection *calendar.Collection) []models.CalendarEntry {
	records := collection.Records()
	entries := make([]models.CalendarEntry, 0, len(records))
	for _, record := range records {
		if entry, ok := calendar.Project(record, s.conv); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (s *CalendarService) recordFromInput(in validation.EventInput, creating bool) (models.EventRecord, error) {
	window, err := s.validator.Event(in, s.now(), creating)
	if err != nil {
		return models.EventRecord{}, err
	}
	kind := models.EventKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if kind == "" {
		kind = models.EventKindNormal
	}
	end := window.End
	return models.EventRecord{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Kind:        kind,
		Start:       window.Start,
		End:         &end,
		ProjectID:   blankToNil(in.ProjectID),
		TaskID:      blankToNil(in.TaskID),
	}, nil
}

func (s *CalendarService) dataset(entries []models.CalendarEntry, zone string) export.Dataset {
	data := export.Dataset{
		Title:    "Calendar",
		Subtitle: fmt.Sprintf("Times in %s, generated %s", zone, s.conv.InstantToInput(zonedtime.NewInstant(s.now()))),
		Headers:  []string{"id", "title", "kind", "start", "end", "project_id", "description"},
	}
	for _, entry := range entries {
		data.Append(entry.ID, entry.Title, string(entry.Kind), entry.StartLocal, entry.EndLocal, deref(entry.ProjectID), entry.Description)
	}
	return data
}

// findCreated looks for the backend copy of a record created without an echoed id. Times must
// match; a matching title wins over the first time match.
func findCreated(collection *calendar.Collection, created models.EventRecord) (models.EventRecord, bool) {
	var (
		fallback models.EventRecord
		found    bool
	)
	for _, candidate := range collection.Records() {
		if !sameInstant(candidate.Start, created.Start) || !sameInstant(candidate.End, created.End) {
			continue
		}
		if candidate.Title == created.Title {
			return candidate, true
		}
		if !found {
			fallback, found = candidate, true
		}
	}
	return fallback, found
}

func sameInstant(a, b *zonedtime.Instant) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b.Time)
}

func echoesSynthesizedStart(existing, edited models.EventRecord) bool {
	if existing.Kind != models.EventKindDeadline || existing.Start != nil {
		return false
	}
	if edited.Kind != models.EventKindDeadline || edited.Start == nil || edited.End == nil {
		return false
	}
	return edited.Start.Equal(edited.End.Add(-calendar.DeadlineWindow))
}

func blankToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
