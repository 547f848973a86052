package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hotel-bot/internal/calendar"
	"hotel-bot/internal/conversation"
	"hotel-bot/internal/models"
	"hotel-bot/pkg/logger"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	albums   []tgbotapi.MediaGroupConfig
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums = append(f.albums, c)
	return nil, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	close(f.updates)
}

type fakeHandler struct {
	mu        sync.Mutex
	messages  []conversation.Message
	callbacks []conversation.Callback
}

func (h *fakeHandler) HandleMessage(_ context.Context, m conversation.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
}

func (h *fakeHandler) HandleCallback(_ context.Context, c conversation.Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, c)
}

func textUpdate(chatID, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID, FirstName: "Alex"},
		Text: text,
	}}
}

func callbackUpdate(chatID, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID, FirstName: "Alex"},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

type TelegramSuite struct {
	suite.Suite
	api     *fakeAPI
	handler *fakeHandler
	bot     *TelegramBot
}

func (s *TelegramSuite) SetupTest() {
	s.api = &fakeAPI{updates: make(chan tgbotapi.Update)}
	s.handler = &fakeHandler{}
	s.bot = NewTelegramBot(s.api, s.handler, logger.NewNop())
}

func TestTelegramSuite(t *testing.T) {
	suite.Run(t, new(TelegramSuite))
}

func (s *TelegramSuite) TestMessageIsForwarded() {
	s.bot.handleUpdate(context.Background(), textUpdate(10, 20, "/low_price"))

	s.Require().Len(s.handler.messages, 1)
	s.Equal(conversation.Message{
		Key:       models.SessionKey{ChatID: 10, UserID: 20},
		FirstName: "Alex",
		Text:      "/low_price",
	}, s.handler.messages[0])
}

func (s *TelegramSuite) TestCalendarNavigationIsRedrawn() {
	data := calendar.Callback{Action: calendar.ActionMonth, Year: 2025, Month: 3}.Data()
	s.bot.handleUpdate(context.Background(), callbackUpdate(10, 20, data))

	s.Empty(s.handler.callbacks)
	s.Require().Len(s.api.requests, 2)
	s.IsType(tgbotapi.CallbackConfig{}, s.api.requests[0])
	edit, ok := s.api.requests[1].(tgbotapi.EditMessageReplyMarkupConfig)
	s.Require().True(ok)
	s.Equal(42, edit.MessageID)
	want, _ := calendar.Render(calendar.Callback{Action: calendar.ActionMonth, Year: 2025, Month: 3})
	s.Equal(&want, edit.ReplyMarkup)
}

func (s *TelegramSuite) TestDayPressGoesToConversation() {
	data := calendar.Day(models.Date{Day: 5, Month: 1, Year: 2098}).Data()
	s.bot.handleUpdate(context.Background(), callbackUpdate(10, 20, data))

	s.Len(s.api.requests, 1)
	s.Require().Len(s.handler.callbacks, 1)
	s.Equal(data, s.handler.callbacks[0].Data)
	s.Equal(models.SessionKey{ChatID: 10, UserID: 20}, s.handler.callbacks[0].Key)
}

func (s *TelegramSuite) TestCityPressGoesToConversation() {
	s.bot.handleUpdate(context.Background(), callbackUpdate(10, 20, conversation.CityData("6046")))
	s.Require().Len(s.handler.callbacks, 1)
}

func (s *TelegramSuite) TestPollingKeepsChatOrder() {
	s.Require().NoError(s.bot.Start(context.Background()))
	for i := 0; i < 20; i++ {
		s.api.updates <- textUpdate(int64(i%3), 1, string(rune('a'+i)))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Require().NoError(s.bot.Stop(ctx))

	s.Len(s.handler.messages, 20)
	perChat := map[int64]string{}
	for _, m := range s.handler.messages {
		perChat[m.Key.ChatID] += m.Text
	}
	s.Equal("adgjmps", perChat[0])
	s.Equal("behknqt", perChat[1])
	s.Equal("cfilor", perChat[2])

	_, isSetCommands := s.api.requests[1].(tgbotapi.SetMyCommandsConfig)
	s.True(isSetCommands)
}

// gatedHandler holds messages of chat 1 until the gate opens and reports
// every other chat's text on seen.
type gatedHandler struct {
	fakeHandler
	gate    chan struct{}
	entered chan struct{}
	seen    chan string
}

func (h *gatedHandler) HandleMessage(ctx context.Context, m conversation.Message) {
	if m.Key.ChatID == 1 {
		close(h.entered)
		<-h.gate
	} else {
		h.seen <- m.Text
	}
	h.fakeHandler.HandleMessage(ctx, m)
}

func (s *TelegramSuite) TestSlowChatDoesNotDelayOthers() {
	h := &gatedHandler{gate: make(chan struct{}), entered: make(chan struct{}), seen: make(chan string, 1)}
	s.bot.handler = h
	s.Require().NoError(s.bot.Start(context.Background()))

	s.api.updates <- textUpdate(1, 1, "Miami")
	<-h.entered
	s.api.updates <- textUpdate(2, 2, "/help")
	select {
	case text := <-h.seen:
		s.Equal("/help", text)
	case <-time.After(time.Second):
		s.Fail("chat 2 waited behind chat 1")
	}

	close(h.gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Require().NoError(s.bot.Stop(ctx))
	s.Len(h.messages, 2)
	s.Empty(s.bot.chats)
}

func (s *TelegramSuite) TestPanicInHandlerIsRecovered() {
	s.bot.handler = panicHandler{}
	s.NotPanics(func() {
		s.bot.process(context.Background(), 0, textUpdate(1, 1, "boom"))
	})
}

type panicHandler struct{}

func (panicHandler) HandleMessage(context.Context, conversation.Message) { panic("boom") }

func (panicHandler) HandleCallback(context.Context, conversation.Callback) { panic("boom") }

func TestMarkup(t *testing.T) {
	cancel, ok := markup(conversation.Reply{Markup: conversation.MarkupCancel}).(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Cancel Current Search", cancel.Keyboard[0][0].Text)

	_, ok = markup(conversation.Reply{Markup: conversation.MarkupRemove}).(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)

	menu := markup(conversation.Reply{Markup: conversation.MarkupStartMenu}).(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, menu.InlineKeyboard, len(conversation.MenuCommands()))
	assert.Equal(t, "cmd:help", *menu.InlineKeyboard[0][0].CallbackData)

	cities := markup(conversation.Reply{
		Markup: conversation.MarkupCities,
		Cities: []models.CityCandidate{{RegionID: "2297", FullName: "Miami, Florida"}},
	}).(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, cities.InlineKeyboard, 2)
	assert.Equal(t, "Miami, Florida", cities.InlineKeyboard[0][0].Text)
	assert.Equal(t, conversation.CityData("2297"), *cities.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, conversation.CityOtherData, *cities.InlineKeyboard[1][0].CallbackData)

	cal := markup(conversation.Reply{
		Markup:   conversation.MarkupCalendar,
		Calendar: models.Date{Day: 1, Month: 2, Year: 2025},
	})
	assert.Equal(t, calendar.Month(2025, time.February), cal)

	assert.Nil(t, markup(conversation.Reply{}))
}

func TestSenderText(t *testing.T) {
	api := &fakeAPI{}
	sender := NewSender(api, logger.NewNop())

	require.NoError(t, sender.Send(context.Background(), 7, conversation.Reply{Text: "hi", Markup: conversation.MarkupRemove}))
	require.Len(t, api.sent, 1)
	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, tgbotapi.NewRemoveKeyboard(true), msg.ReplyMarkup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, 7, conversation.Reply{Text: "late"}), context.Canceled)
	assert.Len(t, api.sent, 1)
}

func TestSenderPhotos(t *testing.T) {
	api := &fakeAPI{}
	sender := NewSender(api, logger.NewNop())

	require.NoError(t, sender.Send(context.Background(), 7, conversation.Reply{
		Text:   "Name: Sea View",
		Photos: []string{"https://img/1.jpg"},
	}))
	require.Len(t, api.sent, 1)
	photo := api.sent[0].(tgbotapi.PhotoConfig)
	assert.Equal(t, "Name: Sea View", photo.Caption)
	assert.Equal(t, tgbotapi.FileURL("https://img/1.jpg"), photo.File)

	require.NoError(t, sender.Send(context.Background(), 7, conversation.Reply{
		Text:   "Name: Palm Inn",
		Photos: []string{"https://img/1.jpg", "https://img/2.jpg", "https://img/3.jpg"},
	}))
	require.Len(t, api.albums, 1)
	album := api.albums[0]
	require.Len(t, album.Media, 3)
	assert.Equal(t, "Name: Palm Inn", album.Media[0].(tgbotapi.InputMediaPhoto).Caption)
	assert.Empty(t, album.Media[1].(tgbotapi.InputMediaPhoto).Caption)
}
