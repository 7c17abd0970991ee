package calendar

import (
	"cmp"
	"log"
	"slices"
	"time"

	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
)

// Item is one occurrence of a dated page.
type Item struct {
	PageID    string          `json:"page_id"`
	Title     string          `json:"title"`
	Date      recurrence.Date `json:"date"`
	StartTime string          `json:"start_time,omitempty"`
	EndTime   string          `json:"end_time,omitempty"`
	Repeating bool            `json:"is_repeating"`
	Completed bool            `json:"completed"`
	Status    string          `json:"status,omitempty"`
}

// Build expands every page's date property over [from, to] and marks the
// occurrences that have a completed log. Pages without a date property are
// skipped, as are pages whose date property no longer validates.
func Build(pages []*models.Page, logs []*models.CompletionLog, from, to recurrence.Date) ([]Item, error) {
	if to.Before(from) {
		return nil, &recurrence.RangeError{Start: from, End: to}
	}

	done := make(map[logKey]bool, len(logs))
	for _, l := range logs {
		done[logKey{l.PageID, l.Date}] = l.Completed
	}

	var items []Item
	for _, page := range pages {
		schedule, ok, err := page.Schedule()
		if err != nil {
			log.Printf("Failed to read date property of page %s: %v", page.ID, err)
			continue
		}
		if !ok {
			continue
		}

		occurrences, err := schedule.Occurrences(from, to)
		if err != nil {
			return nil, err
		}
		for _, o := range occurrences {
			items = append(items, NewItem(page, o, schedule.Repeating(), done[logKey{page.ID, o.Date}]))
		}
	}

	slices.SortStableFunc(items, compareItems)
	return items, nil
}

// NewItem builds the calendar entry for one occurrence of page.
func NewItem(page *models.Page, o recurrence.Occurrence, repeating, completed bool) Item {
	item := Item{
		PageID:    page.ID,
		Title:     page.Title,
		Date:      o.Date,
		Repeating: repeating,
		Completed: completed,
		Status:    page.Status(),
	}
	if c, ok := o.StartTime.Get(); ok {
		item.StartTime = c.String()
	}
	if c, ok := o.EndTime.Get(); ok {
		item.EndTime = c.String()
	}
	return item
}

type logKey struct {
	pageID string
	date   recurrence.Date
}

// compareItems orders by date, then all-day before timed, then by start
// time and title.
func compareItems(a, b Item) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if (a.StartTime == "") != (b.StartTime == "") {
		if a.StartTime == "" {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.StartTime, b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.Title, b.Title)
}

type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	InMonth bool   `json:"in_month"`
	Today   bool   `json:"today"`
	Items   []Item `json:"items"`
}

type Week struct {
	Days []Day `json:"days"`
}

type Month struct {
	Label string `json:"label"`
	Weeks []Week `json:"weeks"`
}

// GridRange returns the first and last day shown in the month view of the
// month containing anchor. Weeks start on Sunday and the grid covers whole
// weeks.
func GridRange(anchor recurrence.Date) (recurrence.Date, recurrence.Date) {
	monthStart := recurrence.Date{Year: anchor.Year, Month: anchor.Month, Day: 1}
	monthEnd := recurrence.Date{Year: anchor.Year, Month: anchor.Month, Day: recurrence.DaysIn(anchor.Year, anchor.Month)}

	gridStart := monthStart.AddDays(-int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDays(int(time.Saturday - monthEnd.Weekday()))
	return gridStart, gridEnd
}

// BuildMonth lays items out on the month grid of anchor's month. Items
// outside the grid are ignored.
func BuildMonth(anchor, today recurrence.Date, items []Item) Month {
	gridStart, gridEnd := GridRange(anchor)

	byDay := map[recurrence.Date][]Item{}
	for _, item := range items {
		byDay[item.Date] = append(byDay[item.Date], item)
	}

	var weeks []Week
	var days []Day
	for day := gridStart; !day.After(gridEnd); day = day.AddDays(1) {
		dayItems := byDay[day]
		if dayItems == nil {
			dayItems = []Item{}
		}
		days = append(days, Day{
			Date:    day.String(),
			Day:     day.Day,
			InMonth: day.Month == anchor.Month,
			Today:   day == today,
			Items:   dayItems,
		})
		if len(days) == 7 {
			weeks = append(weeks, Week{Days: days})
			days = nil
		}
	}

	return Month{
		Label: time.Date(anchor.Year, anchor.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
		Weeks: weeks,
	}
}
