package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/calendar"
	"github.com/hray3182/pagecal/internal/format"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/rrule"
)

func (h *Handlers) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	today := h.today()
	h.sendAgenda(ctx, msg.Chat.ID, "📅 Today", today, today)
}

func (h *Handlers) handleWeek(ctx context.Context, msg *tgbotapi.Message) {
	today := h.today()
	h.sendAgenda(ctx, msg.Chat.ID, "📅 Next 7 days", today, today.AddDays(6))
}

func (h *Handlers) sendAgenda(ctx context.Context, chatID int64, title string, from, to recurrence.Date) {
	items, err := h.agenda(ctx, from, to)
	if err != nil {
		log.Printf("Failed to build agenda: %v", err)
		h.sendText(chatID, "❌ Failed to load the calendar")
		return
	}
	h.sendMessage(chatID, format.Agenda(title, items, "Nothing planned."))
}

func (h *Handlers) agenda(ctx context.Context, from, to recurrence.Date) ([]calendar.Item, error) {
	pages, err := h.repos.Page.GetDated(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dated pages: %w", err)
	}
	logs, err := h.repos.Completion.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion logs: %w", err)
	}
	return calendar.Build(pages, logs, from, to)
}

// findPage returns the best title match and its schedule. It replies to the
// chat itself and returns false when there is nothing to act on.
func (h *Handlers) findPage(ctx context.Context, chatID int64, title string) (*models.Page, recurrence.Schedule, bool) {
	pages, err := h.repos.Page.Search(ctx, title)
	if err != nil {
		log.Printf("Failed to search pages: %v", err)
		h.sendText(chatID, "❌ Failed to search pages")
		return nil, nil, false
	}
	if len(pages) == 0 {
		h.sendText(chatID, fmt.Sprintf("No page matches %q", title))
		return nil, nil, false
	}

	page := pages[0]
	schedule, ok, err := page.Schedule()
	if err != nil {
		h.sendText(chatID, fmt.Sprintf("%s has an invalid date: %v", page.Title, err))
		return nil, nil, false
	}
	if !ok {
		h.sendText(chatID, fmt.Sprintf("%s has no date", page.Title))
		return nil, nil, false
	}
	return page, schedule, true
}

func (h *Handlers) handleNext(ctx context.Context, msg *tgbotapi.Message, args string) {
	title, _, err := parseTarget(args, h.today())
	if err != nil {
		h.sendText(msg.Chat.ID, "Usage: /next <page>")
		return
	}

	page, schedule, ok := h.findPage(ctx, msg.Chat.ID, title)
	if !ok {
		return
	}

	next, ok := nextDate(schedule, h.today())
	if !ok {
		h.sendMessage(msg.Chat.ID, format.Bold(page.Title)+format.Escape(" has no upcoming occurrence."))
		return
	}

	text := format.Bold(page.Title) + format.Escape(" next occurs on ") + format.DayHeading(next)
	if rule, ok := schedule.(recurrence.Rule); ok {
		text += "\n🔁 " + format.Escape(rrule.Describe(rule))
	}
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleMark(ctx context.Context, msg *tgbotapi.Message, args string, completed bool) {
	title, date, err := parseTarget(args, h.today())
	if err != nil {
		h.sendText(msg.Chat.ID, "Usage: /"+msg.Command()+" <page> [date]")
		return
	}

	page, schedule, ok := h.findPage(ctx, msg.Chat.ID, title)
	if !ok {
		return
	}
	if !schedule.OccursOn(date) {
		h.sendText(msg.Chat.ID, fmt.Sprintf("%s does not occur on %s", page.Title, date))
		return
	}

	if _, err := h.repos.Completion.Mark(ctx, page.ID, date, completed); err != nil {
		log.Printf("Failed to mark page %s on %s: %v", page.ID, date, err)
		h.sendText(msg.Chat.ID, "❌ Failed to save")
		return
	}

	icon := "✅ "
	if !completed {
		icon = "↩️ "
	}
	h.sendMessage(msg.Chat.ID, icon+format.Bold(page.Title)+" "+format.Escape(date.String()))
}

func (h *Handlers) handleAdd(ctx context.Context, msg *tgbotapi.Message, text string) {
	if h.ai == nil {
		h.sendText(msg.Chat.ID, "AI is not configured, so I can't read schedules from text.")
		return
	}
	if text == "" {
		h.sendText(msg.Chat.ID, "Usage: /add <description>, e.g. /add gym every Monday at 7")
		return
	}

	suggestion, err := h.ai.ParseRepetition(ctx, text, h.today())
	if err != nil {
		var verr *recurrence.ValidationError
		if errors.As(err, &verr) {
			h.sendText(msg.Chat.ID, "I couldn't turn that into a valid date: "+verr.Error())
			return
		}
		log.Printf("Failed to parse repetition: %v", err)
		h.sendText(msg.Chat.ID, "❌ AI request failed")
		return
	}

	page, err := newDatedPage(suggestion)
	if err != nil {
		log.Printf("Failed to build page: %v", err)
		h.sendText(msg.Chat.ID, "❌ Failed to save")
		return
	}
	if err := h.repos.Page.Create(ctx, page); err != nil {
		log.Printf("Failed to create page: %v", err)
		h.sendText(msg.Chat.ID, "❌ Failed to save")
		return
	}

	h.sendMessage(msg.Chat.ID, "✅ "+format.Bold(page.Title)+"\n"+format.Escape(suggestion.Summary))
}

// newDatedPage turns a suggestion into a standalone page with a single
// date property.
func newDatedPage(s *ai.Suggestion) (*models.Page, error) {
	value, err := json.Marshal(s.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal date value: %w", err)
	}

	title := s.Title
	if title == "" {
		title = "Untitled"
	}
	return &models.Page{
		Title: title,
		Properties: map[string]models.Property{
			"date": {
				ID:    "date",
				Name:  "Date",
				Type:  models.PropertyDate,
				Value: value,
			},
		},
	}, nil
}
