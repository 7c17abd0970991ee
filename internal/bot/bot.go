package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/bot/handlers"
	"github.com/hray3182/pagecal/internal/database"
	"github.com/hray3182/pagecal/internal/repository"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	chatID   int64
}

// New connects to Telegram. When chatID is non-zero only that chat is
// served.
func New(api *tgbotapi.BotAPI, db *database.DB, aiClient *ai.Client, loc *time.Location, chatID int64) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("failed to create bot: no Telegram API client")
	}

	repos := &handlers.Repositories{
		Page:       repository.NewPageRepository(db),
		Completion: repository.NewCompletionRepository(db),
	}

	return &Bot{
		api:      api,
		handlers: handlers.New(api, repos, aiClient, loc),
		chatID:   chatID,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	if b.chatID != 0 && update.Message.Chat.ID != b.chatID {
		log.Printf("Ignoring message from chat %d", update.Message.Chat.ID)
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	// Plain text is scheduled with AI
	b.handlers.HandleMessage(ctx, update.Message)
}
