package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hray3182/pagecal/internal/recurrence"
)

type Config struct {
	DatabaseURI string
	HTTPAddr    string
	Location    *time.Location

	TelegramToken  string
	TelegramChatID int64
	AgendaTime     recurrence.Clock
	ReminderLead   time.Duration

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
}

// TelegramEnabled reports whether the bot and the scheduler should run.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

func Load() (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		HTTPAddr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}

	loc, err := time.LoadLocation(getEnvOrDefault("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	agenda, err := recurrence.ParseClock(getEnvOrDefault("AGENDA_TIME", "08:00"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse AGENDA_TIME: %w", err)
	}
	cfg.AgendaTime = agenda

	lead, err := strconv.Atoi(getEnvOrDefault("REMINDER_LEAD_MINUTES", "15"))
	if err != nil || lead < 0 {
		return nil, fmt.Errorf("REMINDER_LEAD_MINUTES must be a non-negative number of minutes")
	}
	cfg.ReminderLead = time.Duration(lead) * time.Minute

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
