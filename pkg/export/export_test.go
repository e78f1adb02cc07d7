package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	data := Dataset{Title: "Calendar", Subtitle: "Asia/Manila", Headers: []string{"id", "title", "start"}}
	data.Append("e1", "Standup, daily", "2025-01-01T09:00")
	data.Append("e2", "Review")
	return data
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title,start", lines[0])
	assert.Equal(t, `e1,"Standup, daily",2025-01-01T09:00`, lines[1])
	assert.Equal(t, "e2,Review,", lines[2])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestICSRenderRoundTrip(t *testing.T) {
	start := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	exporter := NewICSExporter("")
	out, err := exporter.Render("Dunzo", "Asia/Manila", []CalendarEvent{
		{UID: "e1", Summary: "Standup", Category: "MEETING", Start: start, End: start.Add(30 * time.Minute)},
	})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].Id())
	assert.Equal(t, "Standup", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	got, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
}

func TestICSRejectsMissingUID(t *testing.T) {
	_, err := NewICSExporter("").Render("", "", []CalendarEvent{{Summary: "x"}})
	assert.Error(t, err)
}
