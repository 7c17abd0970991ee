package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/mo"
)

// Type is the repetition kind of a rule.
type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
	// Custom is "every N weeks on these weekdays". It matches exactly like
	// Weekly and exists as its own tag because clients offer it separately.
	Custom Type = "custom"
)

func (t Type) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly, Custom:
		return true
	}
	return false
}

// usesWeekdays reports whether the type is matched against a weekday set.
func (t Type) usesWeekdays() bool {
	return t == Weekly || t == Custom
}

// WeekdaySet is a set of weekdays stored as a bitmask, bit 0 = Sunday.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool {
	return s&0x7f == 0
}

// Days returns the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Indices returns the members as 0-6 indices, Sunday=0.
func (s WeekdaySet) Indices() []int {
	days := s.Days()
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	sort.Ints(out)
	return out
}

// Rule is a validated repetition rule attached to a date property.
// Build one through Validate; the zero value never occurs.
type Rule struct {
	Start     Date
	StartTime mo.Option[Clock]
	EndTime   mo.Option[Clock]
	Type      Type
	Interval  int
	// Weekdays is used by Weekly and Custom.
	Weekdays WeekdaySet
	// DayOfMonth is used by Monthly, 1-31.
	DayOfMonth int
	// EndDate is inclusive. None means unbounded.
	EndDate mo.Option[Date]
}

// interval never returns less than 1 so matching can't divide by zero.
func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

func (r Rule) String() string {
	s := fmt.Sprintf("%s from %s", r.Type, r.Start)
	if n := r.interval(); n > 1 {
		s += fmt.Sprintf(" every %d", n)
	}
	if end, ok := r.EndDate.Get(); ok {
		s += " until " + end.String()
	}
	return s
}

// Occurrence is one concrete day on which a schedule fires, carrying the
// schedule's time window. It is always derived, never stored.
type Occurrence struct {
	Date      Date
	StartTime mo.Option[Clock]
	EndTime   mo.Option[Clock]
}

// AllDay reports whether the occurrence has no start time.
func (o Occurrence) AllDay() bool {
	return o.StartTime.IsAbsent()
}
