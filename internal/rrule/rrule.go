package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/pagecal/internal/recurrence"
)

// ParseRRule parses an RFC 5545 RRULE string anchored at dtstart.
func ParseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// RRuleBuilder holds the RRULE parts a recurrence.Rule can produce.
type RRuleBuilder struct {
	Freq       rrule.Frequency
	Interval   int
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	Wkst       rrule.Weekday
	Until      *time.Time
	// DateOnly renders UNTIL as a DATE, required when DTSTART is a DATE.
	DateOnly bool
}

const (
	FreqDaily   = rrule.DAILY
	FreqWeekly  = rrule.WEEKLY
	FreqMonthly = rrule.MONTHLY
)

// Indexed by time.Weekday, Sunday first.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var dayNames = map[rrule.Weekday]string{
	rrule.MO: "MO",
	rrule.TU: "TU",
	rrule.WE: "WE",
	rrule.TH: "TH",
	rrule.FR: "FR",
	rrule.SA: "SA",
	rrule.SU: "SU",
}

// FromRule maps a validated rule onto RRULE parts.
//
// Weekly and custom rules set WKST to the start weekday, so RRULE weeks line
// up with the 7-day blocks counted from the start date and INTERVAL skips
// the same weeks. Monthly rules use BYMONTHDAY, which skips months that
// lack the day just like the engine does.
func FromRule(r recurrence.Rule, loc *time.Location) *RRuleBuilder {
	b := &RRuleBuilder{
		Interval: max(r.Interval, 1),
		Wkst:     weekdays[r.Start.Weekday()],
		DateOnly: r.StartTime.IsAbsent(),
	}

	switch r.Type {
	case recurrence.Daily:
		b.Freq = FreqDaily
	case recurrence.Weekly, recurrence.Custom:
		b.Freq = FreqWeekly
		for _, d := range r.Weekdays.Days() {
			b.ByWeekday = append(b.ByWeekday, weekdays[d])
		}
	case recurrence.Monthly:
		b.Freq = FreqMonthly
		b.ByMonthDay = []int{r.DayOfMonth}
	}

	if end, ok := r.EndDate.Get(); ok {
		until := end.AddDays(1).In(loc).Add(-time.Second)
		b.Until = &until
	}
	return b
}

// DTStart returns the instant the rule starts: its start time on the start
// date, or midnight for all-day rules.
func DTStart(r recurrence.Rule, loc *time.Location) time.Time {
	if c, ok := r.StartTime.Get(); ok {
		return c.On(r.Start, loc)
	}
	return r.Start.In(loc)
}

func (b *RRuleBuilder) Build(dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Freq:     b.Freq,
		Interval: b.Interval,
		Dtstart:  dtstart,
		Wkst:     b.Wkst,
	}

	if len(b.ByWeekday) > 0 {
		opt.Byweekday = b.ByWeekday
	}
	if len(b.ByMonthDay) > 0 {
		opt.Bymonthday = b.ByMonthDay
	}
	if b.Until != nil {
		opt.Until = *b.Until
	}

	return rrule.NewRRule(opt)
}

func (b *RRuleBuilder) String() string {
	var parts []string

	freqMap := map[rrule.Frequency]string{
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
	}
	parts = append(parts, fmt.Sprintf("FREQ=%s", freqMap[b.Freq]))

	if b.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", b.Interval))
	}

	if len(b.ByWeekday) > 0 {
		days := make([]string, len(b.ByWeekday))
		for i, d := range b.ByWeekday {
			days[i] = dayNames[d]
		}
		parts = append(parts, fmt.Sprintf("BYDAY=%s", strings.Join(days, ",")))
	}

	if len(b.ByMonthDay) > 0 {
		days := make([]string, len(b.ByMonthDay))
		for i, d := range b.ByMonthDay {
			days[i] = fmt.Sprintf("%d", d)
		}
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%s", strings.Join(days, ",")))
	}

	if b.Freq == FreqWeekly {
		parts = append(parts, fmt.Sprintf("WKST=%s", dayNames[b.Wkst]))
	}

	if b.Until != nil {
		if b.DateOnly {
			parts = append(parts, fmt.Sprintf("UNTIL=%s", b.Until.Format("20060102")))
		} else {
			parts = append(parts, fmt.Sprintf("UNTIL=%s", b.Until.UTC().Format("20060102T150405Z")))
		}
	}

	return strings.Join(parts, ";")
}

// NextOccurrence returns the first timed occurrence of r strictly after
// the given instant, or false when the rule has ended.
func NextOccurrence(r recurrence.Rule, loc *time.Location, after time.Time) (time.Time, bool, error) {
	rule, err := FromRule(r, loc).Build(DTStart(r, loc))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to build rrule: %w", err)
	}
	next := rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// Between returns the instants of r in [from, to].
func Between(r recurrence.Rule, loc *time.Location, from, to time.Time) ([]time.Time, error) {
	rule, err := FromRule(r, loc).Build(DTStart(r, loc))
	if err != nil {
		return nil, fmt.Errorf("failed to build rrule: %w", err)
	}
	return rule.Between(from, to, true), nil
}

// Describe returns a short English description such as
// "every 2 weeks on Mon, Wed until 2024-06-30".
func Describe(r recurrence.Rule) string {
	var sb strings.Builder

	n := max(r.Interval, 1)
	unit := map[recurrence.Type]string{
		recurrence.Daily:   "day",
		recurrence.Weekly:  "week",
		recurrence.Custom:  "week",
		recurrence.Monthly: "month",
	}[r.Type]
	if unit == "" {
		return "once"
	}
	if n == 1 {
		sb.WriteString("every " + unit)
	} else {
		sb.WriteString(fmt.Sprintf("every %d %ss", n, unit))
	}

	switch r.Type {
	case recurrence.Weekly, recurrence.Custom:
		var names []string
		for _, d := range r.Weekdays.Days() {
			names = append(names, d.String()[:3])
		}
		if len(names) > 0 {
			sb.WriteString(" on " + strings.Join(names, ", "))
		}
	case recurrence.Monthly:
		sb.WriteString(fmt.Sprintf(" on day %d", r.DayOfMonth))
	}

	if c, ok := r.StartTime.Get(); ok {
		sb.WriteString(" at " + c.String())
	}
	if end, ok := r.EndDate.Get(); ok {
		sb.WriteString(" until " + end.String())
	}
	return sb.String()
}
