package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cardbridge/internal/tasks"
	"github.com/mrlokans/cardbridge/internal/telegram"
)

// Bot is the slice of the Telegram client the webhook handler uses directly.
// Everything slow goes through the task queue instead.
type Bot interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	SetWebhook(ctx context.Context, url string) error
}

// WebhookController turns Telegram updates into queued tasks. The handler
// itself only parses and enqueues, so Telegram gets its 200 back quickly.
type WebhookController struct {
	bot          Bot
	tasks        *tasks.Client
	token        string
	backendLabel string
	publicURL    string
}

func NewWebhookController(bot Bot, taskClient *tasks.Client, token, backendLabel, publicURL string) *WebhookController {
	return &WebhookController{
		bot:          bot,
		tasks:        taskClient,
		token:        token,
		backendLabel: backendLabel,
		publicURL:    publicURL,
	}
}

// Register re-points Telegram at this service's webhook endpoint. Useful
// after the public URL changed without restarting.
func (wc *WebhookController) Register(c *gin.Context) {
	if wc.publicURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhook URL is not configured"})
		return
	}

	url := strings.TrimRight(wc.publicURL, "/") + "/webhook/" + wc.token
	if err := wc.bot.SetWebhook(c.Request.Context(), url); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "webhook registered"})
}

func (wc *WebhookController) HandleUpdate(c *gin.Context) {
	if c.Param("token") != wc.token {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook token"})
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update payload"})
		return
	}

	switch {
	case update.CallbackQuery != nil:
		wc.handleCallback(c, update.CallbackQuery)
	case update.Message != nil:
		wc.handleMessage(c, update.Message)
	default:
		// Update types we do not handle (edits, channel posts, ...).
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (wc *WebhookController) handleMessage(c *gin.Context, msg *telegram.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if text == "/start" {
		wc.sendWelcome(c.Request.Context(), msg.Chat.ID)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	task := tasks.TranslateTask{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      text,
	}
	if msg.From != nil {
		task.UserID = msg.From.ID
		task.UserName = msg.From.FirstName
	}

	if _, err := wc.tasks.Add(task).Save(); err != nil {
		log.Printf("Failed to enqueue translation task: %v", err)
		// Non-2xx makes Telegram redeliver the update later.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (wc *WebhookController) handleCallback(c *gin.Context, cb *telegram.CallbackQuery) {
	ctx := c.Request.Context()

	if cb.Message == nil {
		// The original message is gone (too old or deleted); nothing to export.
		_ = wc.bot.AnswerCallbackQuery(ctx, cb.ID, "❌ Данные карточки не найдены", true)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	switch {
	case strings.HasPrefix(cb.Data, tasks.CallbackPrefix):
		task := tasks.ExportTask{
			CallbackID: cb.ID,
			ChatID:     cb.Message.Chat.ID,
			MessageID:  cb.Message.MessageID,
			Key:        strings.TrimPrefix(cb.Data, tasks.CallbackPrefix),
		}
		if _, err := wc.tasks.Add(task).Save(); err != nil {
			log.Printf("Failed to enqueue export task: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
			return
		}

	default:
		// Terminal buttons ("done") just need the spinner dismissed.
		if err := wc.bot.AnswerCallbackQuery(ctx, cb.ID, "", false); err != nil {
			log.Printf("Failed to answer callback: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (wc *WebhookController) sendWelcome(ctx context.Context, chatID int64) {
	welcome := "👋 Привет! Отправь мне слово или фразу, и я подготовлю перевод с примерами.\n" +
		"Кнопкой под ответом карточку можно добавить в " + wc.backendLabel + "."
	if _, err := wc.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   welcome,
	}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
	}
}
