package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// CalendarEvent is one VEVENT of an iCalendar export.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Category    string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders events as an iCalendar feed.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter builds an exporter stamping productID into every feed.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//Dunzo//Calendar//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// ContentType is the MIME type of the rendered output.
func (e *ICSExporter) ContentType() string {
	return "text/calendar; charset=utf-8"
}

// Render serializes events. Times are written in UTC; zone names only the display zone.
func (e *ICSExporter) Render(name, zone string, events []CalendarEvent) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	if zone != "" {
		cal.SetXWRTimezone(zone)
	}

	stamp := e.now().UTC()
	for _, item := range events {
		if item.UID == "" {
			return nil, fmt.Errorf("ics event without uid")
		}
		event := cal.AddEvent(item.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(item.Start.UTC())
		event.SetEndAt(item.End.UTC())
		event.SetSummary(item.Summary)
		if item.Description != "" {
			event.SetDescription(item.Description)
		}
		if item.Category != "" {
			event.AddProperty(ical.ComponentPropertyCategories, item.Category)
		}
	}
	return []byte(cal.Serialize()), nil
}
