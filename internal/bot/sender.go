package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hotel-bot/internal/conversation"
	"hotel-bot/pkg/logger"
)

// maxAlbum is the largest media group Telegram accepts.
const maxAlbum = 10

// Sender delivers conversation replies through the Bot API.
type Sender struct {
	api    API
	logger *logger.Logger
}

func NewSender(api API, logger *logger.Logger) *Sender {
	return &Sender{api: api, logger: logger.Named("sender")}
}

func (s *Sender) Send(ctx context.Context, chatID int64, r conversation.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r.Photos) > 0 {
		return s.sendPhotos(chatID, r)
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	if m := markup(r); m != nil {
		msg.ReplyMarkup = m
	}
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// sendPhotos sends the caption with the first photo. Telegram does not
// attach keyboards to albums, so r.Markup is dropped there.
func (s *Sender) sendPhotos(chatID int64, r conversation.Reply) error {
	photos := r.Photos
	if len(photos) > maxAlbum {
		photos = photos[:maxAlbum]
	}

	if len(photos) == 1 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photos[0]))
		photo.Caption = r.Text
		if m := markup(r); m != nil {
			photo.ReplyMarkup = m
		}
		if _, err := s.api.Send(photo); err != nil {
			return fmt.Errorf("failed to send photo: %w", err)
		}
		return nil
	}

	media := make([]interface{}, 0, len(photos))
	for i, url := range photos {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(url))
		if i == 0 {
			item.Caption = r.Text
		}
		media = append(media, item)
	}
	if _, err := s.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}
	if r.Markup != conversation.MarkupNone {
		s.logger.Debugw("Keyboard dropped on album", "chat_id", chatID, "markup", r.Markup)
	}
	return nil
}
