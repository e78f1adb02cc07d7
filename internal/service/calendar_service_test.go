package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dunzo-api/internal/calendar"
	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/validation"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

func testConverter(t *testing.T) *zonedtime.Converter {
	t.Helper()
	conv, err := zonedtime.NewConverter("Asia/Manila", zonedtime.DisambiguateCompatible)
	require.NoError(t, err)
	return conv
}

func strPtr(v string) *string {
	return &v
}

type stubEvents struct {
	mu       sync.Mutex
	lists    [][]models.FetchedEvent
	gates    []chan struct{}
	listErr  error
	created  []models.EventWrite
	updated  map[string]models.EventWrite
	deleted  []string
	echoID   string
	writeErr error
}

func (s *stubEvents) List(ctx context.Context, token string, filter models.EventFilter) ([]models.FetchedEvent, error) {
	s.mu.Lock()
	if s.listErr != nil {
		s.mu.Unlock()
		return nil, s.listErr
	}
	var (
		list []models.FetchedEvent
		gate chan struct{}
	)
	if len(s.lists) > 0 {
		list, s.lists = s.lists[0], s.lists[1:]
	}
	if len(s.gates) > 0 {
		gate, s.gates = s.gates[0], s.gates[1:]
	}
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return list, nil
}

func (s *stubEvents) Create(ctx context.Context, token string, payload models.EventWrite) (models.FetchedEvent, error) {
	if s.writeErr != nil {
		return models.FetchedEvent{}, s.writeErr
	}
	s.created = append(s.created, payload)
	return models.FetchedEvent{ID: s.echoID}, nil
}

func (s *stubEvents) Update(ctx context.Context, token, id string, payload models.EventWrite) (models.FetchedEvent, error) {
	if s.writeErr != nil {
		return models.FetchedEvent{}, s.writeErr
	}
	if s.updated == nil {
		s.updated = map[string]models.EventWrite{}
	}
	s.updated[id] = payload
	return models.FetchedEvent{ID: id}, nil
}

func (s *stubEvents) Delete(ctx context.Context, token, id string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func testAuth(userID string) *models.AuthContext {
	return &models.AuthContext{
		Claims:  &models.JWTClaims{UserID: userID},
		Session: &models.Session{ID: "s-" + userID, UpstreamToken: "tok-" + userID, User: models.UserInfo{ID: userID}},
	}
}

func newCalendarService(t *testing.T, events *stubEvents, now time.Time) (*CalendarService, *calendar.Registry) {
	t.Helper()
	conv := testConverter(t)
	registry := calendar.NewRegistry()
	svc := NewCalendarService(events, registry, conv, validation.New(conv, 0), CalendarExporters{}, NewMetricsService(), nil)
	svc.now = func() time.Time { return now }
	return svc, registry
}

func fetchedEvent(id, start, end string, kind models.EventKind) models.FetchedEvent {
	item := models.FetchedEvent{ID: id, Title: "event " + id, Kind: kind}
	if start != "" {
		item.Start = strPtr(start)
	}
	if end != "" {
		item.End = strPtr(end)
	}
	return item
}

func TestCalendarRefreshMirrorsBackend(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{
		{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal), fetchedEvent("b", "garbage", "", models.EventKindNormal)},
		{fetchedEvent("c", "2025-01-02T00:00:00Z", "2025-01-02T01:00:00Z", models.EventKindMeeting)},
	}}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	auth := testAuth("u1")

	view, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "a", view.Entries[0].ID)
	assert.Equal(t, "2025-01-01T10:00", view.Entries[0].StartLocal)
	assert.Equal(t, 1, view.Dropped)
	assert.Equal(t, "Asia/Manila", view.Timezone)

	view, err = svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "c", view.Entries[0].ID)
	assert.Equal(t, 1, view.Removed)
}

func TestCalendarRefreshErrorKeepsCollection(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)}}}
	svc, registry := newCalendarService(t, events, time.Now())
	auth := testAuth("u1")

	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)

	events.listErr = appErrors.ErrNetwork
	_, err = svc.Refresh(context.Background(), auth, models.EventFilter{})
	assert.ErrorIs(t, err, appErrors.ErrNetwork)
	assert.Equal(t, []string{"a"}, registry.For("u1").IDs())
}

func TestCalendarOverlappingRefreshKeepsNewest(t *testing.T) {
	slowGate := make(chan struct{})
	events := &stubEvents{
		lists: [][]models.FetchedEvent{
			{fetchedEvent("old", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)},
			{fetchedEvent("new", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)},
		},
		gates: []chan struct{}{slowGate, nil},
	}
	svc, registry := newCalendarService(t, events, time.Now())
	auth := testAuth("u1")

	done := make(chan *models.CalendarView)
	go func() {
		view, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
		assert.NoError(t, err)
		done <- view
	}()

	// Wait until the slow fetch has taken its generation and response.
	require.Eventually(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.lists) == 1
	}, time.Second, 5*time.Millisecond)

	fast, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)
	assert.False(t, fast.Stale)

	close(slowGate)
	slow := <-done
	assert.True(t, slow.Stale)
	assert.Equal(t, []string{"new"}, registry.For("u1").IDs())
}

func TestCalendarCollectionsArePerUser(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)}}}
	svc, _ := newCalendarService(t, events, time.Now())

	_, err := svc.Refresh(context.Background(), testAuth("u1"), models.EventFilter{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), testAuth("u2"), "a")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	entry, err := svc.Get(context.Background(), testAuth("u1"), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", entry.ID)
}

func TestCalendarCreateStoresEchoedRecord(t *testing.T) {
	events := &stubEvents{echoID: "e9"}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, registry := newCalendarService(t, events, now)

	entry, err := svc.Create(context.Background(), testAuth("u1"), validation.EventInput{
		Title: "Kickoff", Kind: "meeting", Start: "2025-01-02T09:00", End: "2025-01-02T10:00", ProjectID: strPtr(" "),
	})
	require.NoError(t, err)
	assert.Equal(t, "e9", entry.ID)
	assert.Equal(t, models.EventKindMeeting, entry.Kind)

	require.Len(t, events.created, 1)
	payload := events.created[0]
	assert.Equal(t, "meeting", payload.Kind)
	assert.Equal(t, "2025-01-02T01:00:00Z", *payload.Start)
	assert.Nil(t, payload.ProjectID)
	assert.Equal(t, []string{"e9"}, registry.For("u1").IDs())
}

func TestCalendarCreateRejectsPastStart(t *testing.T) {
	events := &stubEvents{echoID: "e9"}
	svc, _ := newCalendarService(t, events, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Create(context.Background(), testAuth("u1"), validation.EventInput{Title: "Late", Start: "2025-01-02T09:00", End: "2025-01-02T10:00"})
	assert.ErrorIs(t, err, appErrors.ErrStartInPast)
	assert.Empty(t, events.created)
}

func TestCalendarCreateWithoutEchoRefreshes(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("srv-1", "2025-01-02T01:00:00Z", "2025-01-02T02:00:00Z", models.EventKindNormal)}}}
	svc, registry := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	entry, err := svc.Create(context.Background(), testAuth("u1"), validation.EventInput{Title: "Kickoff", Start: "2025-01-02T09:00", End: "2025-01-02T10:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"srv-1"}, registry.For("u1").IDs())
	assert.Equal(t, "srv-1", entry.ID)
}

func TestCalendarCreateWithoutEchoPrefersMatchingTitle(t *testing.T) {
	other := fetchedEvent("srv-1", "2025-01-02T01:00:00Z", "2025-01-02T02:00:00Z", models.EventKindNormal)
	mine := fetchedEvent("srv-2", "2025-01-02T01:00:00Z", "2025-01-02T02:00:00Z", models.EventKindNormal)
	mine.Title = "Kickoff"
	events := &stubEvents{lists: [][]models.FetchedEvent{{other, mine}}}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	entry, err := svc.Create(context.Background(), testAuth("u1"), validation.EventInput{Title: "Kickoff", Start: "2025-01-02T09:00", End: "2025-01-02T10:00"})
	require.NoError(t, err)
	assert.Equal(t, "srv-2", entry.ID)
}

func TestCalendarCreateWithoutEchoKeepsFormWhenRefreshFails(t *testing.T) {
	events := &stubEvents{listErr: appErrors.ErrNetwork}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	entry, err := svc.Create(context.Background(), testAuth("u1"), validation.EventInput{Title: "Kickoff", Start: "2025-01-02T09:00", End: "2025-01-02T10:00"})
	require.NoError(t, err)
	assert.Empty(t, entry.ID)
	assert.Equal(t, "Kickoff", entry.Title)
}

func TestCalendarUpdateKeepsDeadlineWithoutStart(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("d1", "", "2025-01-10T09:00:00Z", models.EventKindDeadline)}}}
	svc, registry := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	auth := testAuth("u1")

	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)
	shown, err := svc.Get(context.Background(), auth, "d1")
	require.NoError(t, err)
	require.True(t, shown.Synthesized)

	entry, err := svc.Update(context.Background(), auth, "d1", validation.EventInput{
		Title: "Renamed", Kind: "deadline", Start: shown.StartLocal, End: shown.EndLocal,
	})
	require.NoError(t, err)
	require.Contains(t, events.updated, "d1")
	assert.Nil(t, events.updated["d1"].Start)
	assert.Equal(t, "2025-01-10T09:00:00Z", *events.updated["d1"].End)
	assert.True(t, entry.Synthesized)

	stored, ok := registry.For("u1").Get("d1")
	require.True(t, ok)
	assert.Nil(t, stored.Start)
}

func TestCalendarUpdateDeadlineWithoutStartField(t *testing.T) {
	events := &stubEvents{}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Update(context.Background(), testAuth("u1"), "d2", validation.EventInput{Title: "Due", Kind: "deadline", End: "2025-01-10T17:00"})
	require.NoError(t, err)
	assert.Nil(t, events.updated["d2"].Start)
	assert.Equal(t, "2025-01-10T09:00:00Z", *events.updated["d2"].End)
}

func TestCalendarUpdateDeadlineMovedStartIsKept(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("d1", "", "2025-01-10T09:00:00Z", models.EventKindDeadline)}}}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	auth := testAuth("u1")
	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), auth, "d1", validation.EventInput{Title: "Due", Kind: "deadline", Start: "2025-01-10T12:00", End: "2025-01-10T17:00"})
	require.NoError(t, err)
	require.NotNil(t, events.updated["d1"].Start)
	assert.Equal(t, "2025-01-10T04:00:00Z", *events.updated["d1"].Start)
}

func TestCalendarUpdateAllowsPastAndReplaces(t *testing.T) {
	events := &stubEvents{}
	svc, registry := newCalendarService(t, events, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	auth := testAuth("u1")

	entry, err := svc.Update(context.Background(), auth, "e1", validation.EventInput{Title: "Retro", Kind: "deadline", Start: "2025-01-02T09:00", End: "2025-01-02T10:00"})
	require.NoError(t, err)
	assert.Equal(t, "e1", entry.ID)
	assert.False(t, entry.Synthesized)
	assert.Contains(t, events.updated, "e1")
	assert.Equal(t, []string{"e1"}, registry.For("u1").IDs())
}

func TestCalendarDeleteRemovesLocally(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)}}}
	svc, registry := newCalendarService(t, events, time.Now())
	auth := testAuth("u1")
	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), auth, "a"))
	assert.Empty(t, registry.For("u1").IDs())
}

func TestCalendarDeleteFailureKeepsRecord(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindNormal)}}}
	svc, registry := newCalendarService(t, events, time.Now())
	auth := testAuth("u1")
	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)

	events.writeErr = appErrors.ErrForbidden
	assert.ErrorIs(t, svc.Delete(context.Background(), auth, "a"), appErrors.ErrForbidden)
	assert.Equal(t, []string{"a"}, registry.For("u1").IDs())
}

func TestCalendarDefaults(t *testing.T) {
	svc, _ := newCalendarService(t, &stubEvents{}, time.Date(2025, 1, 1, 1, 30, 45, 0, time.UTC))
	defaults := svc.Defaults()
	assert.Equal(t, "2025-01-01T09:30", defaults.Start)
	assert.Equal(t, "2025-01-01T10:30", defaults.End)
	assert.Equal(t, "Asia/Manila", defaults.Timezone)
}

func TestCalendarUpcomingSkipsPast(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{
		fetchedEvent("past", "2025-01-01T08:00", "2025-01-01T09:00", models.EventKindNormal),
		fetchedEvent("due", "", "2025-01-01T12:00", models.EventKindDeadline),
		fetchedEvent("later", "2025-01-02T08:00", "2025-01-02T09:00", models.EventKindNormal),
	}}}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC))
	auth := testAuth("u1")
	assert.Empty(t, svc.Upcoming(auth, 5))

	_, err := svc.Refresh(context.Background(), auth, models.EventFilter{})
	require.NoError(t, err)

	upcoming := svc.Upcoming(auth, 1)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "due", upcoming[0].ID)
	assert.True(t, upcoming[0].Synthesized)
	assert.Equal(t, "2025-01-01T11:00", upcoming[0].StartLocal)
}

func TestCalendarExportFormats(t *testing.T) {
	events := &stubEvents{lists: [][]models.FetchedEvent{{fetchedEvent("a", "2025-01-01T10:00", "2025-01-01T11:00", models.EventKindMeeting)}}}
	svc, _ := newCalendarService(t, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	auth := testAuth("u1")

	file, err := svc.Export(context.Background(), auth, models.ExportFormatICS)
	require.NoError(t, err)
	assert.Equal(t, "calendar_20250101.ics", file.Filename)
	assert.Contains(t, string(file.Body), "BEGIN:VEVENT")
	assert.Contains(t, string(file.Body), "CATEGORIES:MEETING")

	file, err = svc.Export(context.Background(), auth, models.ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "a,event a,meeting,2025-01-01T10:00,2025-01-01T11:00"))

	_, err = svc.Export(context.Background(), auth, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCalendarEvictIdle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, registry := newCalendarService(t, &stubEvents{}, now)
	registry.For("idle").Touch(now.Add(-3 * time.Hour))

	assert.Equal(t, 1, svc.EvictIdle(time.Hour))
	assert.Equal(t, 0, registry.Len())
}
