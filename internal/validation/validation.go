// Package validation gates form submissions before they reach the backend. The backend stays
// authoritative; these checks only give fast, field-level feedback.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// DefaultPastGrace tolerates the time spent filling in a creation form.
const DefaultPastGrace = time.Minute

// EventInput is the calendar event form. Start and End are either YYYY-MM-DDTHH:mm values in
// the calendar zone or ISO-8601 instants. A deadline may leave Start empty.
type EventInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=normal meeting deadline"`
	Start       string  `json:"start" validate:"required_unless=Kind deadline"`
	End         string  `json:"end" validate:"required"`
	ProjectID   *string `json:"project_id"`
	TaskID      *string `json:"task_id"`
}

// EventWindow is the parsed range of a valid EventInput. Start is nil for a deadline submitted
// without one.
type EventWindow struct {
	Start *zonedtime.Instant
	End   zonedtime.Instant
}

// Validator wraps go-playground/validator with json field names and the calendar zone.
type Validator struct {
	validate *validator.Validate
	conv     *zonedtime.Converter
	grace    time.Duration
}

// New builds a validator. grace <= 0 uses DefaultPastGrace.
func New(conv *zonedtime.Converter, grace time.Duration) *Validator {
	if grace <= 0 {
		grace = DefaultPastGrace
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: validate, conv: conv, grace: grace}
}

// Struct runs tag validation. Missing required values map to MissingRequiredField naming the
// first offending field; other violations map to ErrValidation.
func (v *Validator) Struct(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	for _, fe := range fieldErrs {
		if strings.HasPrefix(fe.Tag(), "required") {
			return appErrors.MissingField(fe.Field())
		}
	}
	fe := fieldErrs[0]
	clone := appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	clone.Field = fe.Field()
	return clone
}

// Event validates an event form. creating enables the past-start guard, which edits skip.
// Range and past checks need both ends, so a start-less deadline only has its end parsed.
func (v *Validator) Event(in EventInput, now time.Time, creating bool) (EventWindow, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Start = strings.TrimSpace(in.Start)
	in.End = strings.TrimSpace(in.End)
	if err := v.Struct(in); err != nil {
		return EventWindow{}, err
	}

	end, err := v.conv.Parse(in.End)
	if err != nil {
		return EventWindow{}, withField(err, "end")
	}
	if in.Start == "" {
		return EventWindow{End: end}, nil
	}
	start, err := v.conv.Parse(in.Start)
	if err != nil {
		return EventWindow{}, withField(err, "start")
	}

	if err := CheckRange(start.Time, end.Time); err != nil {
		return EventWindow{}, err
	}
	if creating {
		if err := CheckStart(now, start.Time, v.grace); err != nil {
			return EventWindow{}, err
		}
	}
	return EventWindow{Start: &start, End: end}, nil
}

// Task validates a task form; a due date must be YYYY-MM-DD when present.
func (v *Validator) Task(in models.TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := v.Struct(in); err != nil {
		return err
	}
	if due := strings.TrimSpace(in.DueDate); due != "" {
		if _, err := zonedtime.ParseDate(due); err != nil {
			return withField(err, "due_date")
		}
	}
	return nil
}

// CheckRange fails with InvalidRange when end precedes start.
func CheckRange(start, end time.Time) error {
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrInvalidRange, "end must not be before start")
	}
	return nil
}

// CheckStart fails with StartInPast when start is earlier than now minus grace.
func CheckStart(now, start time.Time, grace time.Duration) error {
	if start.Before(now.Add(-grace)) {
		return appErrors.Clone(appErrors.ErrStartInPast, "start must not be in the past")
	}
	return nil
}

func withField(err error, field string) error {
	appErr := appErrors.Clone(appErrors.FromError(err), "")
	appErr.Field = field
	return appErr
}
