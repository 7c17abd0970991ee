package calendar

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
)

func d(s string) recurrence.Date {
	parsed, err := recurrence.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func datedPage(id, title, value string) *models.Page {
	return &models.Page{
		ID:    id,
		Title: title,
		Properties: map[string]models.Property{
			"due": {ID: "due", Name: "Due", Type: models.PropertyDate, Value: json.RawMessage(value)},
		},
	}
}

func TestBuild(t *testing.T) {
	pages := []*models.Page{
		datedPage("gym", "Gym", `{"start_date":"2024-01-01","start_time":"07:00","repetition":true,
			"repetition_type":"weekly","repetition_config":{"days_of_week":[1,3]}}`),
		datedPage("dentist", "Dentist", `"2024-01-03"`),
		datedPage("broken", "Broken", `{"start_date":"2024-01-01","repetition":true,"repetition_type":"weekly"}`),
		{ID: "notes", Title: "Notes", Properties: map[string]models.Property{}},
	}
	logs := []*models.CompletionLog{
		{PageID: "gym", Date: d("2024-01-03"), Completed: true},
		{PageID: "gym", Date: d("2024-01-08"), Completed: false},
	}

	items, err := Build(pages, logs, d("2024-01-01"), d("2024-01-08"))
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{PageID: "gym", Title: "Gym", Date: d("2024-01-01"), StartTime: "07:00", Repeating: true},
		{PageID: "dentist", Title: "Dentist", Date: d("2024-01-03")},
		{PageID: "gym", Title: "Gym", Date: d("2024-01-03"), StartTime: "07:00", Repeating: true, Completed: true},
		{PageID: "gym", Title: "Gym", Date: d("2024-01-08"), StartTime: "07:00", Repeating: true},
	}, items)
}

func TestBuild_CarriesStatus(t *testing.T) {
	page := datedPage("report", "Report", `"2024-01-05"`)
	page.Properties["state"] = models.Property{ID: "state", Type: models.PropertyStatus, Value: json.RawMessage(`"In progress"`)}

	items, err := Build([]*models.Page{page}, nil, d("2024-01-01"), d("2024-01-07"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "In progress", items[0].Status)

	raw, err := json.Marshal(items[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"In progress"`)
}

func TestBuild_InvalidRange(t *testing.T) {
	_, err := Build(nil, nil, d("2024-01-08"), d("2024-01-01"))
	var rangeErr *recurrence.RangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestGridRange(t *testing.T) {
	tests := []struct {
		anchor     string
		start, end string
	}{
		{"2024-02-14", "2024-01-28", "2024-03-02"},
		{"2023-04-01", "2023-03-26", "2023-05-06"},
		// September 2024 starts on a Sunday.
		{"2024-09-30", "2024-09-01", "2024-10-05"},
	}
	for _, tt := range tests {
		start, end := GridRange(d(tt.anchor))
		assert.Equal(t, d(tt.start), start, tt.anchor)
		assert.Equal(t, d(tt.end), end, tt.anchor)
	}
}

func TestBuildMonth(t *testing.T) {
	items := []Item{
		{PageID: "a", Title: "A", Date: d("2024-02-29")},
		{PageID: "b", Title: "B", Date: d("2024-03-01")},
		{PageID: "c", Title: "C", Date: d("2024-04-01")},
	}
	month := BuildMonth(d("2024-02-10"), d("2024-02-29"), items)

	assert.Equal(t, "February 2024", month.Label)
	require.Len(t, month.Weeks, 5)
	for _, w := range month.Weeks {
		assert.Len(t, w.Days, 7)
	}

	first := month.Weeks[0].Days[0]
	assert.Equal(t, "2024-01-28", first.Date)
	assert.False(t, first.InMonth)
	assert.Empty(t, first.Items)

	last := month.Weeks[4].Days
	assert.Equal(t, "2024-02-29", last[4].Date)
	assert.True(t, last[4].Today)
	assert.Len(t, last[4].Items, 1)
	assert.Equal(t, "b", last[5].Items[0].PageID)
	assert.False(t, last[5].InMonth)
}
