package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hray3182/pagecal/internal/calendar"
	"github.com/hray3182/pagecal/internal/recurrence"
)

func day(s string) recurrence.Date {
	d, err := recurrence.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `fix\_bug \(v1\.2\)`, Escape("fix_bug (v1.2)"))
	assert.Equal(t, `*a\-b*`, Bold("a-b"))
}

func TestItem(t *testing.T) {
	tests := []struct {
		name     string
		item     calendar.Item
		expected string
	}{
		{"all day", calendar.Item{Title: "Rent"}, "▫️ Rent"},
		{"timed repeating done", calendar.Item{Title: "Gym", StartTime: "07:00", EndTime: "08:00", Repeating: true, Completed: true}, `✅ 07:00\-08:00 Gym 🔁`},
		{"start only", calendar.Item{Title: "Call mum", StartTime: "19:30"}, "▫️ 19:30 Call mum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Item(tt.item))
		})
	}
}

func TestAgenda(t *testing.T) {
	items := []calendar.Item{
		{Title: "Rent", Date: day("2024-01-01")},
		{Title: "Gym", Date: day("2024-01-01"), StartTime: "07:00"},
		{Title: "Gym", Date: day("2024-01-03"), StartTime: "07:00"},
	}

	got := Agenda("This week", items, "Nothing planned.")
	assert.Equal(t, "*This week*\n"+
		"\n*Mon 2024\\-01\\-01*\n"+
		"▫️ Rent\n"+
		"▫️ 07:00 Gym\n"+
		"\n*Wed 2024\\-01\\-03*\n"+
		"▫️ 07:00 Gym", got)

	assert.Equal(t, "*Today*\n\nNothing planned\\.", Agenda("Today", nil, "Nothing planned."))
}

func TestReminder(t *testing.T) {
	now := time.Date(2024, 1, 1, 6, 45, 0, 0, time.UTC)
	at := now.Add(15 * time.Minute)
	got := Reminder(calendar.Item{Title: "Gym"}, at, now)
	assert.Equal(t, `⏰ *Gym* in 15 min \(07:00\)`, got)

	assert.Contains(t, Reminder(calendar.Item{Title: "Gym"}, now, now), "now")
}
