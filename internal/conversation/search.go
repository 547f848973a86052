package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hotel-bot/internal/events"
	"hotel-bot/internal/format"
	"hotel-bot/internal/models"
)

// run is a search in flight for one session.
type run struct {
	id     string
	cancel context.CancelFunc
}

func (e *Engine) searching(key models.SessionKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[key]
	return ok
}

func (e *Engine) cancelSearch(key models.SessionKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.inflight[key]
	if ok {
		r.cancel()
		delete(e.inflight, key)
	}
	return ok
}

func (e *Engine) current(key models.SessionKey, r *run) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight[key] == r
}

func (e *Engine) finish(key models.SessionKey, r *run) {
	e.mu.Lock()
	if e.inflight[key] == r {
		delete(e.inflight, key)
	}
	e.mu.Unlock()
	r.cancel()
}

// commence sets the guard flag and starts the search in the background so
// the session keeps answering while upstream calls are in flight.
func (e *Engine) commence(ctx context.Context, key models.SessionKey, s *models.SearchSession) {
	s.SearchID = uuid.NewString()
	s.CommenceSearch = true

	if err := structValidator.Struct(s); err != nil {
		e.logger.Errorw("Incomplete session at search", "session", key.String(), "error", err)
		e.clear(ctx, key)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure, Markup: MarkupRemove})
		return
	}
	if err := e.save(ctx, key, s); err != nil {
		e.logger.Errorw("Failed to save session", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}

	runCtx, cancel := context.WithCancel(e.ctx)
	r := &run{id: s.SearchID, cancel: cancel}
	e.mu.Lock()
	e.inflight[key] = r
	e.mu.Unlock()

	e.wg.Add(1)
	go func(s *models.SearchSession) {
		defer e.wg.Done()
		defer e.finish(key, r)
		defer func() {
			if rec := recover(); rec != nil {
				e.logger.Errorw("Recovered from panic in search", "search_id", r.id, "error", rec)
			}
		}()
		e.runSearch(runCtx, key, s, r)
	}(s.Clone())
}

func (e *Engine) runSearch(ctx context.Context, key models.SessionKey, s *models.SearchSession, r *run) {
	log := e.logger.With("search_id", s.SearchID, "session", key.String())
	started := time.Now()
	log.Infow("Search started", "command", s.Command, "region", s.City.RegionID)

	summary := format.Summary(s)
	if err := e.history.UpdateField(ctx, s.HistoryID, models.FieldUserRequest, summary); err != nil {
		log.Errorw("Failed to record search request", "error", err)
	}
	e.send(ctx, key.ChatID, Reply{Text: summary, Markup: MarkupCancel})
	e.send(ctx, key.ChatID, Reply{Text: msgSearching})

	hotels := e.gateway.FindHotels(ctx, s)
	var details []models.HotelDetail
	if len(hotels) > 0 {
		photos := 0
		if s.Output.ShowPhotos {
			photos = s.Output.PhotosAmount
		}
		details = e.gateway.EnrichAll(ctx, hotels, photos)
	}
	units := format.Units(details, s.Output.ShowPhotos)
	if len(units) == 0 {
		units = []models.DisplayUnit{{Caption: MsgNoHotels}}
	}

	unlock := e.lock(key)
	defer unlock()

	if ctx.Err() != nil {
		log.Infow("Search aborted", "elapsed", time.Since(started))
		if e.current(key, r) {
			// engine shutdown; a user cancel already cleared the session
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.store.Delete(cctx, key); err != nil {
				log.Errorw("Failed to delete session", "error", err)
			}
		}
		e.publish(key, s, 0, true)
		return
	}

	for i, u := range units {
		reply := Reply{Text: u.Caption, Photos: u.Photos}
		if i == len(units)-1 {
			reply.Markup = MarkupRemove
		}
		e.send(ctx, key.ChatID, reply)
	}
	if err := e.history.SaveResponse(ctx, s.HistoryID, units); err != nil {
		log.Errorw("Failed to record search response", "error", err)
	}
	if err := e.store.Delete(ctx, key); err != nil {
		log.Errorw("Failed to delete session", "error", err)
	}
	e.publish(key, s, len(details), false)
	log.Infow("Search finished", "hotels", len(details), "elapsed", time.Since(started))
}

func (e *Engine) publish(key models.SessionKey, s *models.SearchSession, hotels int, canceled bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.events.PublishSearchCompleted(ctx, events.SearchCompleted{
		SearchID:    s.SearchID,
		UserID:      key.UserID,
		ChatID:      key.ChatID,
		Command:     string(s.Command),
		City:        s.City.FullName,
		RegionID:    s.City.RegionID,
		Hotels:      hotels,
		Canceled:    canceled,
		CompletedAt: e.opts.Now().UTC(),
	})
	if err != nil {
		e.logger.Warnw("Failed to publish search event", "search_id", s.SearchID, "error", err)
	}
}
