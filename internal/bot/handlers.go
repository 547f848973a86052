package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hotel-bot/internal/calendar"
	"hotel-bot/internal/conversation"
	"hotel-bot/internal/models"
)

func (t *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		t.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		t.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	key := models.SessionKey{ChatID: message.Chat.ID, UserID: message.From.ID}
	t.logger.Debugw("Received message", "session", key.String(), "text", message.Text)

	t.handler.HandleMessage(ctx, conversation.Message{
		Key:       key,
		FirstName: message.From.FirstName,
		Text:      message.Text,
	})
}

// handleCallbackQuery acknowledges every press. Calendar navigation is
// redrawn in place; everything else goes to the conversation.
func (t *TelegramBot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := t.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		t.logger.Warnw("Failed to answer callback", "error", err)
	}

	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID
	key := models.SessionKey{ChatID: chatID, UserID: query.From.ID}
	t.logger.Debugw("Received callback query", "session", key.String(), "data", query.Data)

	if calendar.IsCalendar(query.Data) {
		cb, err := calendar.Parse(query.Data)
		if err == nil && cb.IsNavigation() {
			if markup, ok := calendar.Render(cb); ok {
				edit := tgbotapi.NewEditMessageReplyMarkup(chatID, query.Message.MessageID, markup)
				if _, err := t.api.Request(edit); err != nil {
					t.logger.Errorw("Failed to redraw calendar", "session", key.String(), "error", err)
				}
			}
			return
		}
	}

	t.handler.HandleCallback(ctx, conversation.Callback{
		Key:       key,
		FirstName: query.From.FirstName,
		Data:      query.Data,
	})
}
