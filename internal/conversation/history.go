package conversation

import (
	"context"
	"fmt"

	"hotel-bot/internal/history"
	"hotel-bot/internal/models"
)

func (e *Engine) startHistory(ctx context.Context, key models.SessionKey) {
	e.clear(ctx, key)

	latest, err := e.history.ListLatest(ctx, key.UserID, 1)
	if err != nil {
		e.logger.Errorw("Failed to read history", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}
	if len(latest) == 0 {
		e.send(ctx, key.ChatID, Reply{Text: msgNoHistory})
		return
	}

	s := &models.SearchSession{
		Command: models.CommandHistory,
		State:   models.StateRecordsNumber,
		History: &models.HistoryRequest{Limit: e.opts.MaxHistory},
	}
	if err := e.store.Put(ctx, key, s); err != nil {
		e.logger.Errorw("Failed to save session", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}
	e.prompt(ctx, key.ChatID, s)
}

// recordsNumber replays the requested number of records and ends the
// history branch.
func (e *Engine) recordsNumber(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	limit := s.History.Limit
	n, ok := e.readNumber(ctx, in, 1, limit, countRejections("records", limit, 3))
	if !ok {
		return ""
	}

	e.send(ctx, in.key.ChatID, Reply{Text: msgSearchingHistory})
	records, err := e.history.ListLatest(ctx, in.key.UserID, n)
	if err != nil {
		e.logger.Errorw("Failed to read history", "session", in.key.String(), "error", err)
		e.send(ctx, in.key.ChatID, Reply{Text: msgFailure})
		e.clear(ctx, in.key)
		return ""
	}
	if len(records) < n {
		e.send(ctx, in.key.ChatID, Reply{Text: fmt.Sprintf(msgFewerRecords, len(records))})
	}
	for i, rec := range records {
		e.replay(ctx, in.key.ChatID, i+1, rec)
	}
	e.clear(ctx, in.key)
	e.send(ctx, in.key.ChatID, Reply{Text: fmt.Sprintf(msgHistoryShown, len(records)), Markup: MarkupRemove})
	return ""
}

func (e *Engine) replay(ctx context.Context, chatID int64, n int, rec models.HistoryRecord) {
	created := rec.CreatedAt.In(e.opts.Location).Format("2006-01-02 15:04:05")
	e.send(ctx, chatID, Reply{Text: fmt.Sprintf(msgRecordHeader, n)})
	e.send(ctx, chatID, Reply{Text: fmt.Sprintf(msgRecordCreated, created, rec.UserRequest)})

	if rec.UserRequest == models.RequestCanceled {
		return
	}
	if !rec.Completed() {
		e.send(ctx, chatID, Reply{Text: msgRecordCanceled})
		return
	}
	units, err := history.DecodeResponse(rec.BotResponse)
	if err != nil {
		e.logger.Warnw("Stored response is unreadable", "history_id", rec.ID, "error", err)
		e.send(ctx, chatID, Reply{Text: msgRecordBroken})
		return
	}
	for _, u := range units {
		e.send(ctx, chatID, Reply{Text: u.Caption, Photos: u.Photos})
	}
}
