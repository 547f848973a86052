package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hotel-bot/config"
	"hotel-bot/internal/conversation"
	"hotel-bot/internal/models"
	"hotel-bot/pkg/logger"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetUpdatesChan(c tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler consumes parsed user input.
type Handler interface {
	HandleMessage(ctx context.Context, m conversation.Message)
	HandleCallback(ctx context.Context, c conversation.Callback)
}

type TelegramBot struct {
	api     API
	handler Handler
	logger  *logger.Logger

	// chats holds the backlog of every chat that has a drain goroutine.
	mu    sync.Mutex
	chats map[int64][]tgbotapi.Update
	wg    sync.WaitGroup
	done  chan struct{}
}

// NewAPI authorizes against Telegram.
func NewAPI(cfg config.Telegram, logger *logger.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Infow("Authorized on Telegram", "username", api.Self.UserName)
	return api, nil
}

// NewTelegramBot creates a bot that handles each chat on its own goroutine.
// Updates of one chat keep their order; a slow chat never holds up another.
func NewTelegramBot(api API, handler Handler, logger *logger.Logger) *TelegramBot {
	return &TelegramBot{
		api:     api,
		handler: handler,
		logger:  logger.Named("telegram"),
		chats:   make(map[int64][]tgbotapi.Update),
		done:    make(chan struct{}),
	}
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	// First, remove any existing webhook to ensure we can use polling
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(botCommands()...)); err != nil {
		t.logger.Warnw("Failed to publish command list", "error", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := t.api.GetUpdatesChan(updateConfig)

	go t.dispatch(ctx, updates)

	t.logger.Infow("Started receiving Telegram updates")
	return nil
}

func (t *TelegramBot) dispatch(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(t.done)
	for update := range updates {
		chatID, ok := chatOf(update)
		if !ok {
			t.logger.Debugw("Skipping update", "update_id", update.UpdateID)
			continue
		}
		t.enqueue(ctx, chatID, update)
	}
}

func (t *TelegramBot) enqueue(ctx context.Context, chatID int64, update tgbotapi.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()
	backlog, active := t.chats[chatID]
	t.chats[chatID] = append(backlog, update)
	if !active {
		t.wg.Add(1)
		go t.drain(ctx, chatID)
	}
}

// drain handles the chat's backlog and exits once it is empty.
func (t *TelegramBot) drain(ctx context.Context, chatID int64) {
	defer t.wg.Done()
	for {
		t.mu.Lock()
		backlog := t.chats[chatID]
		if len(backlog) == 0 {
			delete(t.chats, chatID)
			t.mu.Unlock()
			return
		}
		update := backlog[0]
		t.chats[chatID] = backlog[1:]
		t.mu.Unlock()

		t.process(ctx, chatID, update)
	}
}

func (t *TelegramBot) process(ctx context.Context, chatID int64, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorw("Recovered from panic while processing update", "chat_id", chatID, "update_id", update.UpdateID, "error", r)
		}
	}()
	t.handleUpdate(ctx, update)
}

// Stop stops polling and waits for queued updates to be handled.
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.api.StopReceivingUpdates()

	finished := make(chan struct{})
	go func() {
		<-t.done
		t.wg.Wait()
		close(finished)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
		return nil
	}
}

func botCommands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(models.Commands))
	for _, c := range models.Commands {
		out = append(out, tgbotapi.BotCommand{Command: string(c.Command), Description: c.Description})
	}
	return out
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}
