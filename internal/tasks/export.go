package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/cardbridge/internal/entities"
	"github.com/mrlokans/cardbridge/internal/export"
	"github.com/mrlokans/cardbridge/internal/telegram"
)

// Exporter runs the export state machine for a staged key.
type Exporter interface {
	Export(ctx context.Context, key string) export.Outcome
}

// HistoryRecorder persists terminal export outcomes. Optional.
type HistoryRecorder interface {
	Add(record *entities.ExportRecord) error
}

// ExportTask exports one staged card after the user pressed the
// "add to deck" button, then updates the chat with the result.
type ExportTask struct {
	CallbackID string `json:"callback_id"`
	ChatID     int64  `json:"chat_id"`
	MessageID  int    `json:"message_id"`
	Key        string `json:"key"`
}

func (t ExportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name: "export_card",
		// No automatic retry: the user re-triggers manually, and the
		// duplicate check guards against double creation.
		MaxAttempts: 1,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportDeps carries the collaborators of the export processor.
type ExportDeps struct {
	Bot          Messenger
	Orchestrator Exporter
	History      HistoryRecorder
	Backend      string
}

// ExportProcessor creates the processor for export button presses.
func ExportProcessor(deps ExportDeps) backlite.QueueProcessor[ExportTask] {
	return func(ctx context.Context, task ExportTask) error {
		outcome := deps.Orchestrator.Export(ctx, task.Key)

		recordOutcome(deps.History, deps.Backend, task.Key, outcome)
		notify(ctx, deps.Bot, task, outcome)

		if outcome.Status == export.StatusFailed && outcome.Reason != export.ReasonNotFound {
			return fmt.Errorf("export %s: %w", task.Key, outcome.Err)
		}
		return nil
	}
}

// NewExportQueue builds the backlite queue for export tasks.
func NewExportQueue(deps ExportDeps) backlite.Queue {
	return backlite.NewQueue(ExportProcessor(deps))
}

// notify answers the callback and swaps the button to a terminal caption.
// Exactly one of four captions is shown: added, added-with-sync-warning,
// duplicate, or error.
func notify(ctx context.Context, bot Messenger, task ExportTask, outcome export.Outcome) {
	var answer string
	var alert bool
	var button *telegram.InlineKeyboardMarkup

	switch outcome.Status {
	case export.StatusCreated:
		if outcome.Sync == export.SyncFailed {
			answer = "✅ Карточка добавлена (синхронизация не удалась)"
			alert = true
		} else {
			answer = "✅ Карточка добавлена!"
		}
		button = telegram.SingleButton("✅ Добавлено", "done")

	case export.StatusDuplicate:
		answer = "⚠️ Такая карточка уже существует!"
		alert = true
		button = telegram.SingleButton("⚠️ Карточка уже существует", "done")

	default:
		alert = true
		switch outcome.Reason {
		case export.ReasonNotFound:
			answer = "❌ Данные карточки не найдены"
		case export.ReasonBackendUnavailable:
			answer = "❌ Не удалось подключиться к сервису карточек.\nПроверьте настройки."
		default:
			answer = fmt.Sprintf("❌ Ошибка: %v", outcome.Err)
		}
	}

	if err := bot.AnswerCallbackQuery(ctx, task.CallbackID, answer, alert); err != nil {
		log.Printf("[TASK] failed to answer callback: %v", err)
	}
	if button != nil {
		if err := bot.EditMessageReplyMarkup(ctx, task.ChatID, task.MessageID, button); err != nil {
			log.Printf("[TASK] failed to update button: %v", err)
		}
	}
}

func recordOutcome(history HistoryRecorder, backend, key string, outcome export.Outcome) {
	if history == nil {
		return
	}
	record := &entities.ExportRecord{
		Key:        key,
		Word:       outcome.Word,
		Backend:    backend,
		DeckName:   outcome.DeckName,
		Status:     string(outcome.Status),
		SyncStatus: string(outcome.Sync),
		Warning:    outcome.AttachmentWarning,
	}
	if outcome.Err != nil {
		record.Error = outcome.Err.Error()
	}
	if err := history.Add(record); err != nil {
		log.Printf("[TASK] failed to record export outcome: %v", err)
	}
}
