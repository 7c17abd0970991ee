package handlers

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/format"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/repository"
)

type Repositories struct {
	Page       *repository.PageRepository
	Completion *repository.CompletionRepository
}

type Handlers struct {
	api   *tgbotapi.BotAPI
	repos *Repositories
	ai    *ai.Client
	loc   *time.Location
}

func New(api *tgbotapi.BotAPI, repos *Repositories, aiClient *ai.Client, loc *time.Location) *Handlers {
	return &Handlers{
		api:   api,
		repos: repos,
		ai:    aiClient,
		loc:   loc,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "help":
		h.handleHelp(msg)
	case "today":
		h.handleToday(ctx, msg)
	case "week":
		h.handleWeek(ctx, msg)
	case "next":
		h.handleNext(ctx, msg, args)
	case "done":
		h.handleMark(ctx, msg, args, true)
	case "undo":
		h.handleMark(ctx, msg, args, false)
	case "add":
		h.handleAdd(ctx, msg, args)
	default:
		h.sendText(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.handleAdd(ctx, msg, msg.Text)
}

func (h *Handlers) today() recurrence.Date {
	return recurrence.Today(h.loc)
}

// sendMessage sends text that is already MarkdownV2.
func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = format.ParseMode
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// sendText escapes plain text before sending it.
func (h *Handlers) sendText(chatID int64, text string) {
	h.sendMessage(chatID, format.Escape(text))
}

func (h *Handlers) handleStart(msg *tgbotapi.Message) {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}
	text := "👋 Hi " + format.Escape(name) + "\\!\n\n" +
		format.Escape("I show what your pages have planned and keep track of what you finished.") + "\n\n" +
		format.Escape("Send me something like \"gym every Monday and Wednesday at 7\" and I'll add it to your calendar.") + "\n\n" +
		format.Escape("Use /help to see all commands.")
	h.sendMessage(msg.Chat.ID, text)
}

const helpText = `📖 *Commands*

/today \- what is planned today
/week \- the next 7 days
/next <page> \- when a page occurs next
/done <page> \[date\] \- mark an occurrence completed
/undo <page> \[date\] \- clear a completion
/add <text> \- create a dated page from a description

Dates are YYYY\-MM\-DD, today, yesterday or tomorrow\.`

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID, helpText)
}
