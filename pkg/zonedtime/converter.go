package zonedtime

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

// Disambiguation selects how wall clocks falling into a DST gap or overlap are resolved.
type Disambiguation string

const (
	// DisambiguateCompatible picks the earlier offset in an overlap and shifts forward across a gap.
	DisambiguateCompatible Disambiguation = "compatible"
	// DisambiguateEarlier picks the earlier instant in both cases.
	DisambiguateEarlier Disambiguation = "earlier"
	// DisambiguateLater picks the later instant in both cases.
	DisambiguateLater Disambiguation = "later"
	// DisambiguateReject fails with InvalidDateFormat.
	DisambiguateReject Disambiguation = "reject"
)

// ParseDisambiguation maps a config value to a policy; empty means compatible.
func ParseDisambiguation(raw string) (Disambiguation, error) {
	switch policy := Disambiguation(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return DisambiguateCompatible, nil
	case DisambiguateCompatible, DisambiguateEarlier, DisambiguateLater, DisambiguateReject:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown dst policy %q", raw)
	}
}

// Converter pins every conversion to one zone and one disambiguation policy.
type Converter struct {
	loc    *time.Location
	policy Disambiguation
	now    func() time.Time
}

// NewConverter loads zone and builds a converter. An empty zone uses DefaultZone.
func NewConverter(zone string, policy Disambiguation) (*Converter, error) {
	if strings.TrimSpace(zone) == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	if policy == "" {
		policy = DisambiguateCompatible
	}
	return &Converter{loc: loc, policy: policy, now: time.Now}, nil
}

// WithClock returns a copy of the converter reading the current time from now.
func (c *Converter) WithClock(now func() time.Time) *Converter {
	clone := *c
	clone.now = now
	return &clone
}

// Location returns the configured zone.
func (c *Converter) Location() *time.Location {
	return c.loc
}

// Policy returns the configured DST policy.
func (c *Converter) Policy() Disambiguation {
	return c.policy
}

// ToZoned attaches the configured zone.
func (c *Converter) ToZoned(w WallClock) (Zoned, error) {
	return ToZoned(w, c.loc, c.policy)
}

// InstantToZoned projects i into the configured zone.
func (c *Converter) InstantToZoned(i Instant) Zoned {
	return InstantToZoned(i, c.loc)
}

// Now returns the current time in the configured zone.
func (c *Converter) Now() Zoned {
	return InstantToZoned(NewInstant(c.now()), c.loc)
}

// NowPlus returns the current time shifted by minutes in the configured zone.
func (c *Converter) NowPlus(minutes int) Zoned {
	return InstantToZoned(NewInstant(c.now().Add(time.Duration(minutes)*time.Minute)), c.loc)
}

// InputToInstant converts a form value to a wire instant.
func (c *Converter) InputToInstant(input string) (Instant, error) {
	w, err := ParseWallClock(input)
	if err != nil {
		return Instant{}, err
	}
	z, err := c.ToZoned(w)
	if err != nil {
		return Instant{}, err
	}
	return ToInstant(z), nil
}

// InstantToInput renders an instant as a form value in the configured zone.
func (c *Converter) InstantToInput(i Instant) string {
	return FormatForInput(c.InstantToZoned(i).Wall)
}

// Parse accepts either an instant or a wall clock. Instant parsing is attempted first; a
// wall clock is interpreted in the configured zone. Both failing is an error.
func (c *Converter) Parse(input string) (Instant, error) {
	if instant, err := ParseInstant(input); err == nil {
		return instant, nil
	}
	instant, err := c.InputToInstant(input)
	if err != nil {
		return Instant{}, appErrors.Wrap(err, appErrors.ErrInvalidDateFormat.Code, appErrors.ErrInvalidDateFormat.Status,
			fmt.Sprintf("%q is neither an instant nor a YYYY-MM-DDTHH:mm value", strings.TrimSpace(input)))
	}
	return instant, nil
}

// ParseBound is Parse that also takes a bare YYYY-MM-DD date. A date opening a range resolves
// to its local midnight; a date closing one covers the whole day and resolves to the next
// local midnight.
func (c *Converter) ParseBound(input string, closing bool) (Instant, error) {
	raw := strings.TrimSpace(input)
	w, err := ParseDate(raw)
	if err != nil {
		return c.Parse(raw)
	}
	if closing {
		w = wallOf(w.naive().AddDate(0, 0, 1))
	}
	return c.StartOfDay(FormatDate(w))
}

// StartOfDay returns the instant at local midnight of a YYYY-MM-DD date.
func (c *Converter) StartOfDay(date string) (Instant, error) {
	w, err := ParseDate(date)
	if err != nil {
		return Instant{}, err
	}
	z, err := c.ToZoned(w)
	if err != nil {
		return Instant{}, err
	}
	return ToInstant(z), nil
}
