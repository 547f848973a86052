// Package history records every initiated search and what the bot answered.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"hotel-bot/internal/models"
	"hotel-bot/pkg/logger"
)

// MaxRecords bounds a single history listing.
const MaxRecords = 10

type Repository interface {
	CreateHistory(ctx context.Context, rec *models.HistoryRecord) error
	UpdateHistoryField(ctx context.Context, id int64, field models.HistoryField, value string) error
	LatestHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryRecord, error)
}

type Recorder struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

func NewRecorder(repo Repository, logger *logger.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger.Named("history"), now: time.Now}
}

// Create inserts a record carrying both sentinels and returns its id.
func (r *Recorder) Create(ctx context.Context, userID int64, command string) (int64, error) {
	rec := &models.HistoryRecord{
		UserID:      userID,
		CreatedAt:   r.now().UTC(),
		Command:     command,
		UserRequest: models.RequestCanceled,
		BotResponse: models.ResponseNotInitialized,
	}
	if err := r.repo.CreateHistory(ctx, rec); err != nil {
		return 0, fmt.Errorf("create history for user %d: %w", userID, err)
	}
	r.logger.Debugw("History record created", "history_id", rec.ID, "user_id", userID, "command", command)
	return rec.ID, nil
}

func (r *Recorder) UpdateField(ctx context.Context, id int64, field models.HistoryField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("update history %d: unknown field %q", id, field)
	}
	if err := r.repo.UpdateHistoryField(ctx, id, field, value); err != nil {
		return fmt.Errorf("update history %d %s: %w", id, field, err)
	}
	return nil
}

// SaveResponse stores the delivered units as the record's bot response.
func (r *Recorder) SaveResponse(ctx context.Context, id int64, units []models.DisplayUnit) error {
	data, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode response for history %d: %w", id, err)
	}
	return r.UpdateField(ctx, id, models.FieldBotResponse, string(data))
}

// ListLatest returns up to limit records, newest first. limit is clamped to
// 1..MaxRecords.
func (r *Recorder) ListLatest(ctx context.Context, userID int64, limit int) ([]models.HistoryRecord, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRecords {
		limit = MaxRecords
	}
	records, err := r.repo.LatestHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history for user %d: %w", userID, err)
	}
	return records, nil
}

// DecodeResponse parses a stored bot response.
func DecodeResponse(raw string) ([]models.DisplayUnit, error) {
	var units []models.DisplayUnit
	if err := json.Unmarshal([]byte(raw), &units); err != nil {
		return nil, fmt.Errorf("decode bot response: %w", err)
	}
	return units, nil
}
