package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8189), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, BackendAnki, cfg.Flashcards.Backend)
	assert.Equal(t, "http://localhost:8765", cfg.Flashcards.AnkiURL)
	assert.Equal(t, "https://app.mochi.cards", cfg.Flashcards.MochiBaseURL)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 24*time.Hour, cfg.Staging.TTL)
	assert.True(t, cfg.Staging.CleanupEnabled)
}

func TestNewConfigReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FLASHCARDS_BACKEND", "mochi")
	t.Setenv("MOCHI_TOKEN", "secret")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("STAGING_TTL", "30m")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, BackendMochi, cfg.Flashcards.Backend)
	assert.Equal(t, "secret", cfg.Flashcards.MochiToken)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 30*time.Minute, cfg.Staging.TTL)
}
