package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/cardbridge/internal/entities"
	"github.com/mrlokans/cardbridge/internal/images"
	"github.com/mrlokans/cardbridge/internal/staging"
	"github.com/mrlokans/cardbridge/internal/telegram"
	"github.com/mrlokans/cardbridge/internal/translator"
)

// loadingGIFURL is shown while the translation is being prepared.
const loadingGIFURL = "https://i.gifer.com/8cEp.gif"

// CallbackPrefix marks "add to deck" button payloads; the staging key
// follows it.
const CallbackPrefix = "add_card_"

// TranslateTask translates one inbound message, stages the resulting card
// and replies with an "add to deck" button.
type TranslateTask struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
}

func (t TranslateTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name: "translate_word",
		// Replies are already sent by the time a retry would run, so the
		// task is not safely repeatable.
		MaxAttempts: 1,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// TranslateDeps carries the collaborators of the translate processor.
type TranslateDeps struct {
	Bot          Messenger
	Translator   translator.Translator
	Images       images.Finder
	Store        *staging.Store
	BackendLabel string
}

// TranslateProcessor creates the processor for inbound text messages.
func TranslateProcessor(deps TranslateDeps) backlite.QueueProcessor[TranslateTask] {
	return func(ctx context.Context, task TranslateTask) error {
		text := strings.TrimSpace(task.Text)
		if text == "" {
			return nil
		}

		loading, err := deps.Bot.SendAnimation(ctx, telegram.SendAnimationParams{
			ChatID:           task.ChatID,
			Animation:        loadingGIFURL,
			Caption:          "⏳ Загрузка перевода и изображения...",
			ReplyToMessageID: task.MessageID,
		})
		if err != nil {
			log.Printf("[TASK] loading animation failed: %v", err)
			loading = nil
		}
		defer func() {
			if loading != nil {
				if err := deps.Bot.DeleteMessage(ctx, task.ChatID, loading.MessageID); err != nil {
					log.Printf("[TASK] failed to delete loading message: %v", err)
				}
			}
		}()

		_ = deps.Bot.SendChatAction(ctx, task.ChatID, "typing")

		translation, err := deps.Translator.Translate(ctx, text)
		if err != nil {
			sendTranslationError(ctx, deps.Bot, task, err)
			return fmt.Errorf("translate %q: %w", text, err)
		}

		_ = deps.Bot.SendChatAction(ctx, task.ChatID, "upload_photo")

		keyword, err := deps.Translator.ExtractKeyword(ctx, text)
		if err != nil || keyword == "" {
			keyword = translator.FirstWord(text)
		}

		imageURL := ""
		if deps.Images != nil {
			imageURL, err = deps.Images.FindImage(ctx, keyword)
			if err != nil {
				log.Printf("[TASK] image search for %q failed: %v", keyword, err)
				imageURL = ""
			}
		}

		key := staging.Key(task.ChatID, task.MessageID)
		deps.Store.Put(entities.StagedCard{
			Key:             key,
			Word:            text,
			TranslationText: translation,
			ImageURL:        imageURL,
			OwnerID:         task.UserID,
			OwnerName:       task.UserName,
			CreatedAt:       time.Now(),
		})

		caption := formatReply(text, translation)
		keyboard := telegram.SingleButton("📚 Добавить в "+deps.BackendLabel, CallbackPrefix+key)

		if imageURL != "" {
			_, err = deps.Bot.SendPhoto(ctx, telegram.SendPhotoParams{
				ChatID:           task.ChatID,
				Photo:            imageURL,
				Caption:          caption,
				ParseMode:        "Markdown",
				ReplyToMessageID: task.MessageID,
				ReplyMarkup:      keyboard,
			})
			if err == nil {
				return nil
			}
			log.Printf("[TASK] photo reply failed, falling back to text: %v", err)
		}

		_, err = deps.Bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:           task.ChatID,
			Text:             caption,
			ParseMode:        "Markdown",
			ReplyToMessageID: task.MessageID,
			ReplyMarkup:      keyboard,
		})
		if err != nil {
			return fmt.Errorf("send translation reply: %w", err)
		}
		return nil
	}
}

// NewTranslateQueue builds the backlite queue for translation tasks.
func NewTranslateQueue(deps TranslateDeps) backlite.Queue {
	return backlite.NewQueue(TranslateProcessor(deps))
}

// formatReply renders the user-facing translation message with markdown
// emphasis on the layout labels.
func formatReply(word, translation string) string {
	formatted := "📝 *Слово:* " + word + "\n\n" + translation
	formatted = strings.Replace(formatted, "Перевод:", "*Перевод:*", 1)
	formatted = strings.Replace(formatted, "Примеры:", "\n*Примеры:*", 1)
	return formatted
}

func sendTranslationError(ctx context.Context, bot Messenger, task TranslateTask, err error) {
	_, sendErr := bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:           task.ChatID,
		Text:             fmt.Sprintf("Произошла ошибка при переводе: %v\nПопробуйте еще раз.", err),
		ReplyToMessageID: task.MessageID,
	})
	if sendErr != nil {
		log.Printf("[TASK] failed to report translation error: %v", sendErr)
	}
}
