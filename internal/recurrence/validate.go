package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Field names reported in a ValidationError.
const (
	FieldStartDate      = "startDate"
	FieldEndDate        = "endDate"
	FieldStartTime      = "startTime"
	FieldEndTime        = "endTime"
	FieldRepetitionType = "repetitionType"
	FieldInterval       = "interval"
	FieldDaysOfWeek     = "daysOfWeek"
	FieldDayOfMonth     = "dayOfMonth"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field of a date property that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid date property: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate turns raw repetition input into a Rule. Every violated field is
// reported at once; no Rule is returned unless all of them pass.
//
// A blank interval means 1 and a blank day of month means the start day.
// Parameters that don't belong to the repetition type are ignored.
func Validate(v DateValue) mo.Result[Rule] {
	errs := &ValidationError{}
	var r Rule

	start, startOK := parseStart(errs, v.StartDate)
	r.Start = start
	r.StartTime = parseClockField(errs, FieldStartTime, v.StartTime)
	r.EndTime = parseClockField(errs, FieldEndTime, v.EndTime)

	r.Type = Type(strings.ToLower(strings.TrimSpace(v.RepetitionType)))
	if !r.Type.Valid() {
		errs.add(FieldRepetitionType, "unknown repetition type %q", v.RepetitionType)
	}

	var cfg RepetitionConfig
	if v.RepetitionConfig != nil {
		cfg = *v.RepetitionConfig
	}

	r.Interval = 1
	if cfg.Interval.Set {
		n, err := cfg.Interval.Int()
		switch {
		case err != nil:
			errs.add(FieldInterval, "interval %q is not a whole number", cfg.Interval.Raw)
		case n < 1:
			errs.add(FieldInterval, "interval must be at least 1, got %d", n)
		default:
			r.Interval = n
		}
	}

	if r.Type.usesWeekdays() {
		if len(cfg.DaysOfWeek) == 0 {
			errs.add(FieldDaysOfWeek, "select at least one day of the week")
		}
		for _, d := range cfg.DaysOfWeek {
			if d < int(time.Sunday) || d > int(time.Saturday) {
				errs.add(FieldDaysOfWeek, "day of week %d is outside 0-6", d)
				continue
			}
			r.Weekdays = r.Weekdays.With(time.Weekday(d))
		}
	}

	if r.Type == Monthly {
		switch {
		case !cfg.DayOfMonth.Set:
			r.DayOfMonth = start.Day
		default:
			n, err := cfg.DayOfMonth.Int()
			if err != nil || n < 1 || n > 31 {
				errs.add(FieldDayOfMonth, "day of month %q must be between 1 and 31", cfg.DayOfMonth.Raw)
			} else {
				r.DayOfMonth = n
			}
		}
	}

	endRaw := strings.TrimSpace(cfg.EndDate)
	if endRaw == "" {
		endRaw = strings.TrimSpace(v.EndDate)
	}
	if endRaw != "" {
		end, err := ParseDate(endRaw)
		switch {
		case err != nil:
			errs.add(FieldEndDate, "end date %q is not a valid date", endRaw)
		case startOK && end.Before(start):
			errs.add(FieldEndDate, "end date %s is before start date %s", end, start)
		default:
			r.EndDate = mo.Some(end)
		}
	}

	if err := errs.orNil(); err != nil {
		return mo.Err[Rule](err)
	}
	return mo.Ok(r)
}

// ValidateSingle turns a non-repeating date value into a Span. A blank end
// date means a single day.
func ValidateSingle(v DateValue) mo.Result[Span] {
	errs := &ValidationError{}
	var s Span

	start, startOK := parseStart(errs, v.StartDate)
	s.Start, s.End = start, start
	s.StartTime = parseClockField(errs, FieldStartTime, v.StartTime)
	s.EndTime = parseClockField(errs, FieldEndTime, v.EndTime)

	if raw := strings.TrimSpace(v.EndDate); raw != "" {
		end, err := ParseDate(raw)
		switch {
		case err != nil:
			errs.add(FieldEndDate, "end date %q is not a valid date", raw)
		case startOK && end.Before(start):
			errs.add(FieldEndDate, "end date %s is before start date %s", end, start)
		default:
			s.End = end
		}
	}

	if err := errs.orNil(); err != nil {
		return mo.Err[Span](err)
	}
	return mo.Ok(s)
}

func parseStart(errs *ValidationError, raw string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.add(FieldStartDate, "start date is required")
		return Date{}, false
	}
	d, err := ParseDate(raw)
	if err != nil {
		errs.add(FieldStartDate, "start date %q is not a valid date", raw)
		return Date{}, false
	}
	return d, true
}

func parseClockField(errs *ValidationError, field, raw string) mo.Option[Clock] {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mo.None[Clock]()
	}
	c, err := ParseClock(raw)
	if err != nil {
		errs.add(field, "%q is not a HH:MM time", raw)
		return mo.None[Clock]()
	}
	return mo.Some(c)
}
