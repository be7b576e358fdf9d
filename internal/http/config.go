package http

import (
	"github.com/mrlokans/cardbridge/internal/database"
	"github.com/mrlokans/cardbridge/internal/staging"
	"github.com/mrlokans/cardbridge/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database   *database.Database
	Bot        Bot
	TaskClient *tasks.Client
	Store      *staging.Store

	// Export history (optional)
	History HistoryReader

	// Telegram webhook authentication: updates are only accepted on the
	// path segment matching the bot token.
	TelegramToken string

	// Public base URL of this service, used by the set-webhook endpoint.
	WebhookURL string

	// Which flashcard service the "add" button targets, e.g. "Anki".
	BackendLabel string

	// Application info
	Version string
}
