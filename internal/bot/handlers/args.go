package handlers

import (
	"fmt"
	"strings"

	"github.com/hray3182/pagecal/internal/recurrence"
)

// parseTarget splits "<page title> [date]" arguments. The date defaults to
// today and may be YYYY-MM-DD or one of today, yesterday and tomorrow.
func parseTarget(args string, today recurrence.Date) (string, recurrence.Date, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", recurrence.Date{}, fmt.Errorf("missing page title")
	}

	date := today
	if d, ok := parseDay(fields[len(fields)-1], today); ok && len(fields) > 1 {
		date = d
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " "), date, nil
}

func parseDay(s string, today recurrence.Date) (recurrence.Date, bool) {
	switch strings.ToLower(s) {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDays(-1), true
	case "tomorrow":
		return today.AddDays(1), true
	}
	d, err := recurrence.ParseDate(s)
	if err != nil {
		return recurrence.Date{}, false
	}
	return d, true
}

// nextDate returns the first day on or after today that s occurs on.
func nextDate(s recurrence.Schedule, today recurrence.Date) (recurrence.Date, bool) {
	switch v := s.(type) {
	case recurrence.Rule:
		return recurrence.Next(v, today)
	case recurrence.Span:
		if v.End.Before(today) {
			return recurrence.Date{}, false
		}
		return recurrence.MaxDate(v.Start, today), true
	}
	return recurrence.Date{}, false
}
