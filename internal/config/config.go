package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/cardbridge/internal/flashcards/anki"
	"github.com/mrlokans/cardbridge/internal/flashcards/mochi"
	"github.com/mrlokans/cardbridge/internal/translator"
)

// BackendName selects which flashcard service cards are exported to.
type BackendName string

const (
	BackendAnki  BackendName = "anki"
	BackendMochi BackendName = "mochi"
)

type (
	Config struct {
		HTTP
		Global
		Telegram
		Flashcards
		OpenAI
		Unsplash
		Database
		Tasks
		Staging
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Telegram struct {
		Token      string
		WebhookURL string // Public URL Telegram delivers updates to
	}
	Flashcards struct {
		Backend      BackendName
		AnkiURL      string
		MochiBaseURL string
		MochiToken   string
	}
	OpenAI struct {
		APIKey  string
		BaseURL string
		Model   string
	}
	Unsplash struct {
		AccessKey string
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Staging struct {
		TTL             time.Duration
		CleanupSchedule string // Cron format: "*/15 * * * *" = every 15 minutes
		CleanupEnabled  bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("flashcards_backend", "anki")
	v.SetDefault("anki_url", anki.DefaultURL)
	v.SetDefault("mochi_base_url", mochi.DefaultBaseURL)

	v.SetDefault("openai_base_url", translator.DefaultBaseURL)
	v.SetDefault("openai_model", translator.DefaultModel)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Staged cards that were never exported are swept periodically
	v.SetDefault("staging_ttl", "24h")
	v.SetDefault("staging_cleanup_schedule", "*/15 * * * *")
	v.SetDefault("staging_cleanup_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Telegram: Telegram{
			Token:      v.GetString("TELEGRAM_TOKEN"),
			WebhookURL: v.GetString("TELEGRAM_WEBHOOK_URL"),
		},
		Flashcards: Flashcards{
			Backend:      BackendName(v.GetString("FLASHCARDS_BACKEND")),
			AnkiURL:      v.GetString("ANKI_URL"),
			MochiBaseURL: v.GetString("MOCHI_BASE_URL"),
			MochiToken:   v.GetString("MOCHI_TOKEN"),
		},
		OpenAI: OpenAI{
			APIKey:  v.GetString("OPENAI_API_KEY"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Model:   v.GetString("OPENAI_MODEL"),
		},
		Unsplash: Unsplash{
			AccessKey: v.GetString("UNSPLASH_ACCESS_KEY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Staging: Staging{
			TTL:             v.GetDuration("STAGING_TTL"),
			CleanupSchedule: v.GetString("STAGING_CLEANUP_SCHEDULE"),
			CleanupEnabled:  v.GetBool("STAGING_CLEANUP_ENABLED"),
		},
	}
}
