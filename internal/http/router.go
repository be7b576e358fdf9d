package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	webhook := NewWebhookController(cfg.Bot, cfg.TaskClient, cfg.TelegramToken, cfg.BackendLabel, cfg.WebhookURL)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Telegram delivers updates here; the token in the path is the shared
	// secret that proves the request came from Telegram.
	router.POST("/webhook/:token", webhook.HandleUpdate)
	router.GET("/set-webhook", webhook.Register)

	// Export history endpoints
	if cfg.History != nil {
		historyController := NewHistoryController(cfg.History)
		router.GET("/api/history", historyController.Recent)
		router.GET("/api/history/stats", historyController.Stats)
	}

	// Staging diagnostics
	if cfg.Store != nil {
		router.GET("/api/staging/stats", func(c *gin.Context) {
			c.JSON(200, gin.H{"staged_cards": cfg.Store.Len()})
		})
	}

	return router
}
