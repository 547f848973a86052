// Package conversation drives the hotel search dialog: it reads the
// session, validates the user's answer for the current step, advances the
// step table and finally runs the search.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"hotel-bot/internal/events"
	"hotel-bot/internal/models"
	"hotel-bot/internal/state"
	"hotel-bot/pkg/logger"
)

var structValidator = validator.New()

type Gateway interface {
	FindCity(ctx context.Context, query string) []models.CityCandidate
	FindHotels(ctx context.Context, s *models.SearchSession) []models.HotelCandidate
	EnrichAll(ctx context.Context, hotels []models.HotelCandidate, photos int) []models.HotelDetail
}

type History interface {
	Create(ctx context.Context, userID int64, command string) (int64, error)
	UpdateField(ctx context.Context, id int64, field models.HistoryField, value string) error
	SaveResponse(ctx context.Context, id int64, units []models.DisplayUnit) error
	ListLatest(ctx context.Context, userID int64, limit int) ([]models.HistoryRecord, error)
}

type Deps struct {
	Store   state.Store
	Gateway Gateway
	History History
	Sender  Sender
	Events  events.Publisher
	Logger  *logger.Logger
}

type Options struct {
	MaxHotels  int
	MaxPhotos  int
	MaxHistory int
	Now        func() time.Time
	Location   *time.Location
}

// Message is an inbound text message.
type Message struct {
	Key       models.SessionKey
	FirstName string
	Text      string
}

// Callback is an inbound inline button press.
type Callback struct {
	Key       models.SessionKey
	FirstName string
	Data      string
}

// input is what a step handler sees: either text or callback data.
type input struct {
	key      models.SessionKey
	text     string
	data     string
	callback bool
}

// keyLock serializes one session. refs counts holders and waiters so the
// entry can be dropped once nobody needs it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

type Engine struct {
	store   state.Store
	gateway Gateway
	history History
	sender  Sender
	events  events.Publisher
	logger  *logger.Logger
	opts    Options

	flows map[models.Command]*flow
	steps map[models.State]stepFunc

	locksMu  sync.Mutex
	keyLocks map[models.SessionKey]*keyLock

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	inflight map[models.SessionKey]*run
	wg       sync.WaitGroup
}

func NewEngine(deps Deps, opts Options) *Engine {
	if opts.MaxHotels <= 0 {
		opts.MaxHotels = 10
	}
	if opts.MaxPhotos <= 0 {
		opts.MaxPhotos = 5
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}

	ctx, stop := context.WithCancel(context.Background())
	e := &Engine{
		store:    deps.Store,
		gateway:  deps.Gateway,
		history:  deps.History,
		sender:   deps.Sender,
		events:   deps.Events,
		logger:   deps.Logger.Named("conversation"),
		opts:     opts,
		flows:    flows(),
		ctx:      ctx,
		stop:     stop,
		keyLocks: make(map[models.SessionKey]*keyLock),
		inflight: make(map[models.SessionKey]*run),
	}
	e.steps = e.stepTable()
	return e
}

// lock holds the session's own mutex; other sessions never wait on it.
func (e *Engine) lock(key models.SessionKey) func() {
	e.locksMu.Lock()
	l, ok := e.keyLocks[key]
	if !ok {
		l = &keyLock{}
		e.keyLocks[key] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.keyLocks, key)
		}
		e.locksMu.Unlock()
	}
}

func (e *Engine) today() models.Date {
	return models.DateOf(e.opts.Now().In(e.opts.Location))
}

// HandleMessage processes one text message. Commands and shortcut texts
// are accepted in any state.
func (e *Engine) HandleMessage(ctx context.Context, m Message) {
	unlock := e.lock(m.Key)
	defer unlock()

	if cmd, ok := models.ParseCommand(m.Text); ok {
		e.runCommand(ctx, m.Key, m.FirstName, cmd)
		return
	}
	e.dispatch(ctx, input{key: m.Key, text: m.Text})
}

// HandleCallback processes an inline button press that the transport did
// not consume itself.
func (e *Engine) HandleCallback(ctx context.Context, c Callback) {
	unlock := e.lock(c.Key)
	defer unlock()

	if strings.HasPrefix(c.Data, commandPrefix) {
		if cmd, ok := models.LookupCommand(strings.TrimPrefix(c.Data, commandPrefix)); ok {
			e.runCommand(ctx, c.Key, c.FirstName, cmd)
			return
		}
	}
	e.dispatch(ctx, input{key: c.Key, data: c.Data, callback: true})
}

func (e *Engine) dispatch(ctx context.Context, in input) {
	s, err := e.store.Get(ctx, in.key)
	if err != nil {
		e.logger.Errorw("Failed to load session", "session", in.key.String(), "error", err)
		e.send(ctx, in.key.ChatID, Reply{Text: msgFailure})
		return
	}
	if s == nil {
		if in.callback {
			e.logger.Debugw("Callback without session", "session", in.key.String(), "data", in.data)
			return
		}
		e.send(ctx, in.key.ChatID, Reply{Text: msgUnknown})
		return
	}

	if s.CommenceSearch {
		if e.searching(in.key) {
			e.send(ctx, in.key.ChatID, Reply{Text: msgWait, Markup: MarkupCancel})
			return
		}
		// left behind by a restart or a crashed run
		e.clear(ctx, in.key)
		e.send(ctx, in.key.ChatID, Reply{Text: msgInterrupted, Markup: MarkupRemove})
		return
	}

	step, ok := e.steps[s.State]
	if !ok || !e.consistent(s) {
		e.logger.Errorw("Session in unexpected state", "session", in.key.String(), "command", s.Command, "state", s.State)
		return
	}

	event := step(ctx, in, s)
	if event == "" {
		return
	}
	e.advance(ctx, in.key, s, event)
}

// consistent reports whether the session's state belongs to its command.
func (e *Engine) consistent(s *models.SearchSession) bool {
	if s.Command == models.CommandHistory {
		return s.State == models.StateRecordsNumber && s.History != nil
	}
	f, ok := e.flows[s.Command]
	if !ok || !f.has(s.State) {
		return false
	}
	return s.Command != models.CommandCustom || s.Custom != nil
}

// advance moves the session along its variant's step table, saves it and
// prompts for the next input.
func (e *Engine) advance(ctx context.Context, key models.SessionKey, s *models.SearchSession, event string) {
	f, ok := e.flows[s.Command]
	if !ok {
		e.logger.Errorw("Session outside of any flow", "session", key.String(), "command", s.Command)
		return
	}
	next, err := f.transition(ctx, s.State, event)
	if err != nil {
		e.logger.Errorw("Invalid transition", "session", key.String(), "error", err)
		return
	}
	e.logger.Debugw("State transition", "session", key.String(), "from", s.State, "to", next)
	s.State = next

	if next == models.StateSearching {
		e.commence(ctx, key, s)
		return
	}
	if err := e.save(ctx, key, s); err != nil {
		e.logger.Errorw("Failed to save session", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}
	e.prompt(ctx, key.ChatID, s)
}

// save replaces the stored session. A session cleared in the meantime is
// not brought back.
func (e *Engine) save(ctx context.Context, key models.SessionKey, s *models.SearchSession) error {
	return e.store.Update(ctx, key, func(cur *models.SearchSession) error {
		*cur = *s.Clone()
		return nil
	})
}

// clear drops the session and aborts its search, if any.
func (e *Engine) clear(ctx context.Context, key models.SessionKey) {
	if e.cancelSearch(key) {
		e.logger.Infow("Search canceled", "session", key.String())
	}
	if err := e.store.Delete(ctx, key); err != nil {
		e.logger.Errorw("Failed to delete session", "session", key.String(), "error", err)
	}
}

func (e *Engine) send(ctx context.Context, chatID int64, r Reply) {
	if err := e.sender.Send(ctx, chatID, r); err != nil {
		e.logger.Errorw("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

// Wait blocks until every running search has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Shutdown aborts running searches and waits for them within ctx.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stop()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("conversation: searches still running at shutdown")
	}
}
