package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) Date {
	parsed, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func dates(ss ...string) []Date {
	out := make([]Date, len(ss))
	for i, s := range ss {
		out[i] = d(s)
	}
	return out
}

func TestExpand_Daily(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		expected []Date
	}{
		{"every day", 1, dates("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")},
		{"every other day", 2, dates("2024-01-01", "2024-01-03", "2024-01-05")},
		{"zero interval treated as one", 0, dates("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")},
		{"negative interval treated as one", -3, dates("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{Type: Daily, Interval: tt.interval, Start: d("2024-01-01")}
			got, err := Expand(rule, d("2024-01-01"), d("2024-01-05"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpand_DailyAcrossLeapDay(t *testing.T) {
	rule := Rule{Type: Daily, Interval: 2, Start: d("2024-02-27")}
	got, err := Expand(rule, d("2024-02-27"), d("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-02-27", "2024-02-29", "2024-03-02", "2024-03-04"), got)
}

func TestExpand_DailyRangeStartsMidCycle(t *testing.T) {
	rule := Rule{Type: Daily, Interval: 3, Start: d("2024-01-01")}
	got, err := Expand(rule, d("2024-01-05"), d("2024-01-12"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-07", "2024-01-10"), got)
}

func TestExpand_WeeklyWeekdayFilter(t *testing.T) {
	rule := Rule{
		Type:     Weekly,
		Interval: 1,
		Weekdays: NewWeekdaySet(time.Monday, time.Wednesday),
		Start:    d("2024-01-01"),
	}
	got, err := Expand(rule, d("2024-01-01"), d("2024-01-14"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10"), got)
}

func TestExpand_WeeklyIntervalCountsFromStartDate(t *testing.T) {
	// Start is a Wednesday, so each 7-day block runs Wednesday..Tuesday.
	rule := Rule{
		Type:     Weekly,
		Interval: 2,
		Weekdays: NewWeekdaySet(time.Monday, time.Wednesday),
		Start:    d("2024-01-03"),
	}
	got, err := Expand(rule, d("2024-01-01"), d("2024-01-24"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-03", "2024-01-08", "2024-01-17", "2024-01-22"), got)
}

func TestExpand_CustomMatchesWeekly(t *testing.T) {
	weekly := Rule{
		Type:     Weekly,
		Interval: 3,
		Weekdays: NewWeekdaySet(time.Tuesday, time.Friday, time.Sunday),
		Start:    d("2024-03-10"),
	}
	custom := weekly
	custom.Type = Custom

	from, to := d("2024-03-01"), d("2024-09-30")
	w, err := Expand(weekly, from, to)
	require.NoError(t, err)
	c, err := Expand(custom, from, to)
	require.NoError(t, err)

	assert.NotEmpty(t, w)
	assert.Equal(t, w, c)
}

func TestExpand_MonthlyDoesNotClamp(t *testing.T) {
	rule := Rule{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-01-01")}
	got, err := Expand(rule, d("2024-01-01"), d("2024-04-30"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-31", "2024-03-31"), got)
}

func TestExpand_MonthlyLeapYear(t *testing.T) {
	rule := Rule{Type: Monthly, Interval: 1, DayOfMonth: 29, Start: d("2023-01-29")}
	got, err := Expand(rule, d("2023-01-01"), d("2024-03-31"))
	require.NoError(t, err)

	var febs []Date
	for _, day := range got {
		if day.Month == time.February {
			febs = append(febs, day)
		}
	}
	assert.Equal(t, dates("2024-02-29"), febs)
	assert.Len(t, got, 14)
}

func TestExpand_MonthlyInterval(t *testing.T) {
	rule := Rule{Type: Monthly, Interval: 3, DayOfMonth: 15, Start: d("2024-11-20")}
	got, err := Expand(rule, d("2024-01-01"), d("2025-12-31"))
	require.NoError(t, err)
	// November's 15th is before the start date, so the first hit is February.
	assert.Equal(t, dates("2025-02-15", "2025-05-15", "2025-08-15", "2025-11-15"), got)
}

func TestExpand_Bounds(t *testing.T) {
	rule := Rule{
		Type:     Daily,
		Interval: 1,
		Start:    d("2024-01-10"),
		EndDate:  mo.Some(d("2024-01-13")),
	}
	got, err := Expand(rule, d("2024-01-01"), d("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13"), got)
}

func TestExpand_EmptyWhenRangeEndsBeforeStart(t *testing.T) {
	rules := []Rule{
		{Type: Daily, Interval: 1, Start: d("2024-06-01")},
		{Type: Weekly, Interval: 1, Weekdays: NewWeekdaySet(time.Monday), Start: d("2024-06-01")},
		{Type: Custom, Interval: 2, Weekdays: NewWeekdaySet(time.Friday), Start: d("2024-06-01")},
		{Type: Monthly, Interval: 1, DayOfMonth: 1, Start: d("2024-06-01")},
	}
	for _, rule := range rules {
		got, err := Expand(rule, d("2024-01-01"), d("2024-05-31"))
		require.NoError(t, err)
		assert.Empty(t, got, rule.String())
	}
}

func TestExpand_InvalidRange(t *testing.T) {
	rule := Rule{Type: Daily, Interval: 1, Start: d("2024-01-01")}
	_, err := Expand(rule, d("2024-02-01"), d("2024-01-01"))

	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, d("2024-02-01"), rangeErr.Start)
}

func TestExpand_SingleDayRange(t *testing.T) {
	rule := Rule{Type: Daily, Interval: 1, Start: d("2024-01-01")}
	got, err := Expand(rule, d("2024-01-03"), d("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-03"), got)
}

func TestExpand_EmptyWeekdaySetNeverFires(t *testing.T) {
	rule := Rule{Type: Weekly, Interval: 1, Start: d("2024-01-01")}
	got, err := Expand(rule, d("2024-01-01"), d("2024-12-31"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandDefault_OneYearHorizon(t *testing.T) {
	rule := Rule{Type: Daily, Interval: 1, Start: d("2023-03-01")}
	got := ExpandDefault(rule)
	require.Len(t, got, DefaultHorizonDays)
	assert.Equal(t, d("2023-03-01"), got[0])
	assert.Equal(t, d("2024-02-28"), got[len(got)-1])
}

func sampleRules() []Rule {
	return []Rule{
		{Type: Daily, Interval: 1, Start: d("2024-01-01")},
		{Type: Daily, Interval: 4, Start: d("2024-01-03"), EndDate: mo.Some(d("2024-05-01"))},
		{Type: Weekly, Interval: 1, Weekdays: NewWeekdaySet(time.Monday, time.Wednesday), Start: d("2024-01-01")},
		{Type: Weekly, Interval: 2, Weekdays: NewWeekdaySet(time.Sunday, time.Saturday), Start: d("2024-01-04")},
		{Type: Custom, Interval: 3, Weekdays: NewWeekdaySet(time.Thursday), Start: d("2023-12-20")},
		{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-01-01")},
		{Type: Monthly, Interval: 2, DayOfMonth: 30, Start: d("2023-11-30"), EndDate: mo.Some(d("2024-10-01"))},
		{Type: Daily, Interval: 0, Start: d("2024-02-28")},
	}
}

func TestExpand_ConsistentWithOccursOn(t *testing.T) {
	from, to := d("2023-12-01"), d("2024-12-31")
	for _, rule := range sampleRules() {
		got, err := Expand(rule, from, to)
		require.NoError(t, err)

		set := make(map[Date]bool, len(got))
		for _, day := range got {
			set[day] = true
		}
		for day := from; !day.After(to); day = day.AddDays(1) {
			assert.Equal(t, set[day], OccursOn(rule, day), "%s on %s", rule, day)
		}
	}
}

func TestExpand_StrictlyIncreasingAndBounded(t *testing.T) {
	from, to := d("2024-02-10"), d("2024-08-20")
	for _, rule := range sampleRules() {
		got, err := Expand(rule, from, to)
		require.NoError(t, err)

		for i, day := range got {
			assert.False(t, day.Before(from), rule.String())
			assert.False(t, day.After(to), rule.String())
			assert.False(t, day.Before(rule.Start), rule.String())
			if end, ok := rule.EndDate.Get(); ok {
				assert.False(t, day.After(end), rule.String())
			}
			if i > 0 {
				assert.True(t, got[i-1].Before(day), rule.String())
			}
		}
	}
}

func TestOccurrences_CarryTimeWindow(t *testing.T) {
	rule := Rule{
		Type:      Daily,
		Interval:  1,
		Start:     d("2024-01-01"),
		StartTime: mo.Some(Clock{Hour: 9}),
		EndTime:   mo.Some(Clock{Hour: 9, Minute: 30}),
	}
	occ, err := Occurrences(rule, d("2024-01-01"), d("2024-01-02"))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, "09:00", occ[1].StartTime.MustGet().String())
	assert.Equal(t, "09:30", occ[1].EndTime.MustGet().String())
	assert.False(t, occ[0].AllDay())
}

func TestNext(t *testing.T) {
	rule := Rule{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-01-01")}

	next, ok := Next(rule, d("2024-02-01"))
	require.True(t, ok)
	assert.Equal(t, d("2024-03-31"), next)

	next, ok = Next(rule, d("2023-06-01"))
	require.True(t, ok)
	assert.Equal(t, d("2024-01-31"), next)

	ended := rule
	ended.EndDate = mo.Some(d("2024-03-30"))
	_, ok = Next(ended, d("2024-02-01"))
	assert.False(t, ok)
}

func TestFirst(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		want   string
		wantOK bool
	}{
		{"daily", Rule{Type: Daily, Interval: 3, Start: d("2024-01-02")}, "2024-01-02", true},
		{"weekly start off pattern", Rule{Type: Weekly, Interval: 2, Weekdays: NewWeekdaySet(time.Monday, time.Wednesday), Start: d("2024-01-02")}, "2024-01-03", true},
		{"custom start on pattern", Rule{Type: Custom, Interval: 1, Weekdays: NewWeekdaySet(time.Tuesday), Start: d("2024-01-02")}, "2024-01-02", true},
		{"empty weekdays", Rule{Type: Weekly, Interval: 1, Start: d("2024-01-02")}, "", false},
		{"monthly later in start month", Rule{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-01-01")}, "2024-01-31", true},
		{"monthly day already passed", Rule{Type: Monthly, Interval: 2, DayOfMonth: 30, Start: d("2024-01-31")}, "2024-03-30", true},
		{"monthly skips short months", Rule{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-04-01")}, "2024-05-31", true},
		{"monthly beyond one year", Rule{Type: Monthly, Interval: 24, DayOfMonth: 1, Start: d("2024-01-02")}, "2026-01-01", true},
		{"monthly never", Rule{Type: Monthly, Interval: 12, DayOfMonth: 30, Start: d("2024-02-01")}, "", false},
		{"ends before first", Rule{Type: Monthly, Interval: 1, DayOfMonth: 31, Start: d("2024-04-01"), EndDate: mo.Some(d("2024-05-30"))}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := First(tt.rule)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, d(tt.want), got)
				assert.True(t, OccursOn(tt.rule, got))
			}
		})
	}
}
