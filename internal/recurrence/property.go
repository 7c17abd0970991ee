package recurrence

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// DateValue is the JSON value of a date-typed page property, as read from
// and written to the page API. Non-repeating values use the top-level
// dates; repeating values carry their parameters in RepetitionConfig.
type DateValue struct {
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date,omitempty"`
	StartTime        string            `json:"start_time,omitempty"`
	EndTime          string            `json:"end_time,omitempty"`
	Repetition       bool              `json:"repetition"`
	RepetitionType   string            `json:"repetition_type,omitempty"`
	RepetitionConfig *RepetitionConfig `json:"repetition_config,omitempty"`
}

type RepetitionConfig struct {
	Interval   FlexInt `json:"interval"`
	DaysOfWeek []int   `json:"days_of_week,omitempty"`
	DayOfMonth FlexInt `json:"day_of_month"`
	EndDate    string  `json:"end_date,omitempty"`
}

// UnmarshalJSON also accepts a bare date string, the shape older pages stored.
func (v *DateValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = DateValue{StartDate: s, EndDate: s}
		return nil
	}

	type plain DateValue
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = DateValue(p)
	return nil
}

// FlexInt is an integer field that form clients send either as a JSON
// number or as a numeric string. The raw text is kept so validation can
// report what was actually sent.
type FlexInt struct {
	Raw string
	Set bool
}

func IntValue(n int) FlexInt {
	return FlexInt{Raw: strconv.Itoa(n), Set: true}
}

func (f FlexInt) Int() (int, error) {
	return strconv.Atoi(f.Raw)
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*f = FlexInt{}
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	*f = FlexInt{Raw: raw, Set: raw != ""}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	if n, err := f.Int(); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(f.Raw)
}

// Schedule is a validated date property: a Rule or a single Span.
type Schedule interface {
	OccursOn(d Date) bool
	Occurrences(rangeStart, rangeEnd Date) ([]Occurrence, error)
	Repeating() bool
}

func (r Rule) OccursOn(d Date) bool {
	return OccursOn(r, d)
}

func (r Rule) Occurrences(rangeStart, rangeEnd Date) ([]Occurrence, error) {
	return Occurrences(r, rangeStart, rangeEnd)
}

func (r Rule) Repeating() bool { return true }

// Span is a non-repeating date property covering Start..End inclusive.
type Span struct {
	Start     Date
	End       Date
	StartTime mo.Option[Clock]
	EndTime   mo.Option[Clock]
}

func (s Span) OccursOn(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s Span) Occurrences(rangeStart, rangeEnd Date) ([]Occurrence, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, &RangeError{Start: rangeStart, End: rangeEnd}
	}
	lo := MaxDate(rangeStart, s.Start)
	hi := MinDate(rangeEnd, s.End)

	var out []Occurrence
	for d := lo; !d.After(hi); d = d.AddDays(1) {
		out = append(out, Occurrence{Date: d, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return out, nil
}

func (s Span) Repeating() bool { return false }

// ParseSchedule validates v as a Rule when it repeats and as a Span otherwise.
func ParseSchedule(v DateValue) (Schedule, error) {
	if v.Repetition {
		rule, err := Validate(v).Get()
		if err != nil {
			return nil, err
		}
		return rule, nil
	}
	span, err := ValidateSingle(v).Get()
	if err != nil {
		return nil, err
	}
	return span, nil
}

// FromRule renders r in the canonical wire shape.
func FromRule(r Rule) DateValue {
	v := DateValue{
		StartDate:      r.Start.String(),
		StartTime:      clockString(r.StartTime),
		EndTime:        clockString(r.EndTime),
		Repetition:     true,
		RepetitionType: string(r.Type),
	}
	cfg := &RepetitionConfig{Interval: IntValue(r.interval())}
	switch {
	case r.Type.usesWeekdays():
		cfg.DaysOfWeek = r.Weekdays.Indices()
	case r.Type == Monthly:
		cfg.DayOfMonth = IntValue(r.DayOfMonth)
	}
	if end, ok := r.EndDate.Get(); ok {
		cfg.EndDate = end.String()
	}
	v.RepetitionConfig = cfg
	return v
}

// FromSpan renders s in the canonical wire shape.
func FromSpan(s Span) DateValue {
	return DateValue{
		StartDate: s.Start.String(),
		EndDate:   s.End.String(),
		StartTime: clockString(s.StartTime),
		EndTime:   clockString(s.EndTime),
	}
}

// Canonical renders any schedule in the canonical wire shape.
func Canonical(s Schedule) DateValue {
	switch v := s.(type) {
	case Rule:
		return FromRule(v)
	case Span:
		return FromSpan(v)
	}
	return DateValue{}
}

func clockString(c mo.Option[Clock]) string {
	if v, ok := c.Get(); ok {
		return v.String()
	}
	return ""
}
