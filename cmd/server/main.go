package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/api"
	"github.com/hray3182/pagecal/internal/bot"
	"github.com/hray3182/pagecal/internal/config"
	"github.com/hray3182/pagecal/internal/database"
	"github.com/hray3182/pagecal/internal/repository"
	"github.com/hray3182/pagecal/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	pageRepo := repository.NewPageRepository(db)
	databaseRepo := repository.NewDatabaseRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	// Initialize AI client (optional)
	var aiClient *ai.Client
	var parser api.RepetitionParser
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		parser = aiClient
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, natural language features disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(pageRepo, databaseRepo, completionRepo, parser, cfg.Location).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	if cfg.TelegramEnabled() {
		startTelegram(ctx, cfg, db, aiClient)
	} else {
		log.Println("TELEGRAM_TOKEN not set, bot and scheduler disabled")
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down HTTP server: %v", err)
	}
}

func startTelegram(ctx context.Context, cfg *config.Config, db *database.DB, aiClient *ai.Client) {
	tgAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram API: %v", err)
	}

	if cfg.TelegramChatID != 0 {
		sched := scheduler.New(
			tgAPI,
			repository.NewPageRepository(db),
			repository.NewCompletionRepository(db),
			repository.NewNotificationRepository(db),
			scheduler.Options{
				ChatID:       cfg.TelegramChatID,
				Location:     cfg.Location,
				AgendaTime:   cfg.AgendaTime,
				ReminderLead: cfg.ReminderLead,
			},
		)
		go sched.Start(ctx)
	} else {
		log.Println("TELEGRAM_CHAT_ID not set, scheduler disabled")
	}

	b, err := bot.New(tgAPI, db, aiClient, cfg.Location, cfg.TelegramChatID)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	go func() {
		log.Println("Starting bot...")
		if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Bot error: %v", err)
		}
	}()
}
