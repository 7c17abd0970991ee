package recurrence

import (
	"fmt"
	"time"
)

// DefaultHorizonDays bounds expansion when the caller supplies no range.
const DefaultHorizonDays = 365

// RangeError reports an expansion range whose end precedes its start.
type RangeError struct {
	Start Date
	End   Date
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s", e.End, e.Start)
}

// Expand returns every day in [rangeStart, rangeEnd] on which r fires, in
// ascending order. It filters with the same predicate OccursOn uses.
func Expand(r Rule, rangeStart, rangeEnd Date) ([]Date, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, &RangeError{Start: rangeStart, End: rangeEnd}
	}

	lo := MaxDate(rangeStart, r.Start)
	hi := rangeEnd
	if end, ok := r.EndDate.Get(); ok {
		hi = MinDate(hi, end)
	}

	var dates []Date
	for d := lo; !d.After(hi); d = d.AddDays(1) {
		if matches(r, d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// ExpandDefault expands r over DefaultHorizonDays starting at its first day.
func ExpandDefault(r Rule) []Date {
	dates, _ := Expand(r, r.Start, r.Start.AddDays(DefaultHorizonDays-1))
	return dates
}

// OccursOn reports whether r fires on d.
func OccursOn(r Rule, d Date) bool {
	return matches(r, d)
}

// Occurrences is Expand with the rule's time window attached to each day.
func Occurrences(r Rule, rangeStart, rangeEnd Date) ([]Occurrence, error) {
	dates, err := Expand(r, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	out := make([]Occurrence, len(dates))
	for i, d := range dates {
		out[i] = Occurrence{Date: d, StartTime: r.StartTime, EndTime: r.EndTime}
	}
	return out, nil
}

// Next returns the first occurrence on or after from, looking at most
// DefaultHorizonDays ahead.
func Next(r Rule, from Date) (Date, bool) {
	lo := MaxDate(from, r.Start)
	hi := lo.AddDays(DefaultHorizonDays - 1)
	if end, ok := r.EndDate.Get(); ok {
		hi = MinDate(hi, end)
	}
	for d := lo; !d.After(hi); d = d.AddDays(1) {
		if matches(r, d) {
			return d, true
		}
	}
	return Date{}, false
}

// First returns the rule's first occurrence, which differs from Start when
// Start itself does not match (a Tuesday start of a Mon/Wed rule). Unlike
// Next it is not limited to a horizon.
func First(r Rule) (Date, bool) {
	switch r.Type {
	case Daily, Weekly, Custom:
		// Every weekday appears in the first 7-day block.
		for d := r.Start; d.Before(r.Start.AddDays(7)); d = d.AddDays(1) {
			if matches(r, d) {
				return d, true
			}
		}
	case Monthly:
		// Month lengths repeat every 400 years.
		n := r.interval()
		for k := 0; k*n < 400*12; k++ {
			m := time.Date(r.Start.Year, r.Start.Month+time.Month(k*n), 1, 0, 0, 0, 0, time.UTC)
			if end, ok := r.EndDate.Get(); ok && DateOf(m).After(end) {
				break
			}
			if r.DayOfMonth > DaysIn(m.Year(), m.Month()) {
				continue
			}
			d := Date{Year: m.Year(), Month: m.Month(), Day: r.DayOfMonth}
			if matches(r, d) {
				return d, true
			}
		}
	}
	return Date{}, false
}

// matches is the single occurrence predicate.
//
// Monthly rules never clamp: a month that has no DayOfMonth (Feb 30, Apr 31)
// contributes no occurrence.
func matches(r Rule, d Date) bool {
	if d.Before(r.Start) {
		return false
	}
	if end, ok := r.EndDate.Get(); ok && d.After(end) {
		return false
	}

	n := r.interval()
	switch r.Type {
	case Daily:
		return DaysBetween(r.Start, d)%n == 0
	case Weekly, Custom:
		if !r.Weekdays.Has(d.Weekday()) {
			return false
		}
		week := DaysBetween(r.Start, d) / 7
		return week%n == 0
	case Monthly:
		if d.Day != r.DayOfMonth {
			return false
		}
		return MonthsBetween(r.Start, d)%n == 0
	}
	return false
}
