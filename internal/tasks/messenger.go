package tasks

import (
	"context"

	"github.com/mrlokans/cardbridge/internal/telegram"
)

// Messenger is the slice of the Telegram client the task processors use.
// Narrowed to an interface so tests can run against a fake.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	SendPhoto(ctx context.Context, params telegram.SendPhotoParams) (*telegram.Message, error)
	SendAnimation(ctx context.Context, params telegram.SendAnimationParams) (*telegram.Message, error)
	SendChatAction(ctx context.Context, chatID int64, action string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	EditMessageReplyMarkup(ctx context.Context, chatID int64, messageID int, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
}
