package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
)

func day(s string) recurrence.Date {
	d, err := recurrence.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseTarget(t *testing.T) {
	today := day("2024-01-10")

	tests := []struct {
		args      string
		wantTitle string
		wantDate  string
	}{
		{"Gym", "Gym", "2024-01-10"},
		{"  Morning   run ", "Morning run", "2024-01-10"},
		{"Gym 2024-01-08", "Gym", "2024-01-08"},
		{"Gym yesterday", "Gym", "2024-01-09"},
		{"Gym Tomorrow", "Gym", "2024-01-11"},
		{"2024-01-08", "2024-01-08", "2024-01-10"},
		{"Pay rent 2024-13-01", "Pay rent 2024-13-01", "2024-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			title, date, err := parseTarget(tt.args, today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantDate, date.String())
		})
	}

	_, _, err := parseTarget("   ", today)
	assert.Error(t, err)
}

func TestNextDate(t *testing.T) {
	today := day("2024-01-10")

	weekly := recurrence.Rule{
		Type:     recurrence.Weekly,
		Interval: 1,
		Weekdays: recurrence.NewWeekdaySet(time.Monday),
		Start:    day("2024-01-01"),
	}
	next, ok := nextDate(weekly, today)
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", next.String())

	ended := weekly
	ended.EndDate = mo.Some(day("2024-01-14"))
	_, ok = nextDate(ended, today)
	assert.False(t, ok)

	trip := recurrence.Span{Start: day("2024-01-08"), End: day("2024-01-12")}
	next, ok = nextDate(trip, today)
	require.True(t, ok)
	assert.Equal(t, today, next)

	later := recurrence.Span{Start: day("2024-02-01"), End: day("2024-02-01")}
	next, ok = nextDate(later, today)
	require.True(t, ok)
	assert.Equal(t, "2024-02-01", next.String())

	past := recurrence.Span{Start: day("2024-01-01"), End: day("2024-01-02")}
	_, ok = nextDate(past, today)
	assert.False(t, ok)
}

func TestNewDatedPage(t *testing.T) {
	rule := recurrence.Rule{
		Type:     recurrence.Weekly,
		Interval: 1,
		Weekdays: recurrence.NewWeekdaySet(time.Monday),
		Start:    day("2024-01-01"),
	}
	page, err := newDatedPage(&ai.Suggestion{
		Value:    recurrence.Canonical(rule),
		Schedule: rule,
	})
	require.NoError(t, err)

	assert.Equal(t, "Untitled", page.Title)
	prop, ok := page.DateProperty()
	require.True(t, ok)
	assert.Equal(t, models.PropertyDate, prop.Type)

	schedule, ok, err := page.Schedule()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rule, schedule)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(prop.Value, &raw))
	assert.Equal(t, true, raw["repetition"])
}
