package format

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/calendar"
	"github.com/hray3182/pagecal/internal/recurrence"
)

// ParseMode is the Telegram parse mode every message in this package is
// written for.
const ParseMode = tgbotapi.ModeMarkdownV2

// Escape makes s safe to embed in a MarkdownV2 message.
func Escape(s string) string {
	return tgbotapi.EscapeText(ParseMode, s)
}

// Bold escapes s and wraps it in bold markers.
func Bold(s string) string {
	return "*" + Escape(s) + "*"
}

// Item renders one calendar entry as a single line, e.g.
// "✅ 07:00-08:00 Gym 🔁".
func Item(item calendar.Item) string {
	var sb strings.Builder
	if item.Completed {
		sb.WriteString("✅ ")
	} else {
		sb.WriteString("▫️ ")
	}
	if item.StartTime != "" {
		window := item.StartTime
		if item.EndTime != "" {
			window += "-" + item.EndTime
		}
		sb.WriteString(Escape(window) + " ")
	}
	sb.WriteString(Escape(item.Title))
	if item.Repeating {
		sb.WriteString(" 🔁")
	}
	return sb.String()
}

// DayHeading renders "Mon 2024-01-08" in bold.
func DayHeading(d recurrence.Date) string {
	return Bold(d.Weekday().String()[:3] + " " + d.String())
}

// Agenda renders the items of one or more days grouped under day headings.
// Days without items are left out; empty is returned when there are none.
func Agenda(title string, items []calendar.Item, empty string) string {
	var sb strings.Builder
	sb.WriteString(Bold(title))
	sb.WriteString("\n")

	if len(items) == 0 {
		sb.WriteString("\n" + Escape(empty))
		return sb.String()
	}

	var current recurrence.Date
	for i, item := range items {
		if i == 0 || item.Date != current {
			current = item.Date
			sb.WriteString("\n" + DayHeading(current) + "\n")
		}
		sb.WriteString(Item(item) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Reminder renders the notice sent shortly before a timed occurrence.
func Reminder(item calendar.Item, at, now time.Time) string {
	minutes := int(at.Sub(now).Round(time.Minute).Minutes())
	when := "now"
	if minutes > 0 {
		when = fmt.Sprintf("in %d min", minutes)
	}
	return fmt.Sprintf("⏰ %s %s \\(%s\\)", Bold(item.Title), Escape(when), Escape(at.Format("15:04")))
}
