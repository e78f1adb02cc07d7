// Package zonedtime converts between wall-clock form input, a single configured IANA zone and
// UTC instants used on the wire.
package zonedtime

import (
	"fmt"
	"sort"
	"strings"
	"time"

	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

const (
	// InputLayout is the datetime-local form input format.
	InputLayout = "2006-01-02T15:04"
	// DateLayout is the date-only form input format.
	DateLayout = "2006-01-02"
	// DefaultZone is the zone the calendar is pinned to unless configured otherwise.
	DefaultZone = "Asia/Manila"

	inputLayoutSeconds = "2006-01-02T15:04:05"
	instantLayoutShort = "2006-01-02T15:04Z07:00"
)

// WallClock is a calendar date and time of day with no zone attached.
type WallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Truncate drops the seconds field.
func (w WallClock) Truncate() WallClock {
	w.Second = 0
	return w
}

// String renders the wall clock in input format with seconds when present.
func (w WallClock) String() string {
	if w.Second != 0 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute, w.Second)
	}
	return FormatForInput(w)
}

func wallOf(t time.Time) WallClock {
	return WallClock{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

func (w WallClock) naive() time.Time {
	return time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, 0, time.UTC)
}

// Instant is an absolute point on the UTC timeline.
type Instant struct {
	time.Time
}

// NewInstant normalises t to UTC.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t.UTC()}
}

// String renders the instant as RFC 3339 with a Z suffix.
func (i Instant) String() string {
	return i.UTC().Format(time.RFC3339)
}

// Zoned is a wall clock interpreted in one named zone.
type Zoned struct {
	Wall     WallClock
	Location *time.Location
	instant  time.Time
}

// Time returns the zoned value as a time.Time in its location.
func (z Zoned) Time() time.Time {
	return z.instant.In(z.Location)
}

// ParseWallClock parses YYYY-MM-DDTHH:mm with optional seconds.
func ParseWallClock(input string) (WallClock, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return WallClock{}, appErrors.Clone(appErrors.ErrInvalidDateFormat, "empty datetime")
	}
	layout := InputLayout
	if len(raw) > len(InputLayout) {
		layout = inputLayoutSeconds
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return WallClock{}, appErrors.Wrap(err, appErrors.ErrInvalidDateFormat.Code, appErrors.ErrInvalidDateFormat.Status,
			fmt.Sprintf("invalid datetime %q, expected YYYY-MM-DDTHH:mm", raw))
	}
	return wallOf(t), nil
}

// FormatForInput renders YYYY-MM-DDTHH:mm. Seconds are dropped.
func FormatForInput(w WallClock) string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute)
}

// ParseDate parses a YYYY-MM-DD date-only input into a midnight wall clock.
func ParseDate(input string) (WallClock, error) {
	raw := strings.TrimSpace(input)
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return WallClock{}, appErrors.Wrap(err, appErrors.ErrInvalidDateFormat.Code, appErrors.ErrInvalidDateFormat.Status,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return wallOf(t), nil
}

// FormatDate renders YYYY-MM-DD.
func FormatDate(w WallClock) string {
	return fmt.Sprintf("%04d-%02d-%02d", w.Year, int(w.Month), w.Day)
}

// ParseInstant parses an ISO-8601 instant carrying Z or an explicit offset.
func ParseInstant(input string) (Instant, error) {
	raw := strings.TrimSpace(input)
	for _, layout := range []string{time.RFC3339Nano, instantLayoutShort} {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewInstant(t), nil
		}
	}
	return Instant{}, appErrors.Clone(appErrors.ErrInvalidDateFormat, fmt.Sprintf("invalid instant %q", raw))
}

// ToZoned attaches loc to w, resolving DST gaps and overlaps with policy.
func ToZoned(w WallClock, loc *time.Location, policy Disambiguation) (Zoned, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := resolve(w, loc, policy)
	if err != nil {
		return Zoned{}, err
	}
	return Zoned{Wall: wallOf(t.In(loc)), Location: loc, instant: t.UTC()}, nil
}

// ToInstant converts a zoned value to UTC.
func ToInstant(z Zoned) Instant {
	return NewInstant(z.instant)
}

// InstantToZoned projects i into loc.
func InstantToZoned(i Instant, loc *time.Location) Zoned {
	if loc == nil {
		loc = time.UTC
	}
	local := i.In(loc)
	return Zoned{Wall: wallOf(local), Location: loc, instant: i.UTC()}
}

// Now returns the current time in loc.
func Now(loc *time.Location) Zoned {
	return InstantToZoned(NewInstant(time.Now()), loc)
}

// NowPlus returns the current time in loc shifted by minutes.
func NowPlus(loc *time.Location, minutes int) Zoned {
	return InstantToZoned(NewInstant(time.Now().Add(time.Duration(minutes)*time.Minute)), loc)
}

func resolve(w WallClock, loc *time.Location, policy Disambiguation) (time.Time, error) {
	naive := w.naive()
	if wallOf(naive) != w {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateFormat, fmt.Sprintf("invalid wall clock %s", w))
	}

	_, before := naive.Add(-24 * time.Hour).In(loc).Zone()
	_, after := naive.Add(24 * time.Hour).In(loc).Zone()

	var candidates []time.Time
	for _, offset := range []int{before, after} {
		candidate := naive.Add(-time.Duration(offset) * time.Second)
		if wallOf(candidate.In(loc)) != w {
			continue
		}
		duplicate := false
		for _, existing := range candidates {
			if existing.Equal(candidate) {
				duplicate = true
			}
		}
		if !duplicate {
			candidates = append(candidates, candidate)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 2:
		switch policy {
		case DisambiguateLater:
			return candidates[1], nil
		case DisambiguateReject:
			return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateFormat, fmt.Sprintf("%s is ambiguous in %s", w, loc))
		default:
			return candidates[0], nil
		}
	}

	if before == after {
		return time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, 0, loc), nil
	}
	switch policy {
	case DisambiguateEarlier:
		return naive.Add(-time.Duration(after) * time.Second), nil
	case DisambiguateReject:
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateFormat, fmt.Sprintf("%s does not exist in %s", w, loc))
	default:
		return naive.Add(-time.Duration(before) * time.Second), nil
	}
}
