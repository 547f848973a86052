package models

import "time"

// Sentinels stored until the search reaches the matching step.
const (
	RequestCanceled        = "Search was canceled by user"
	ResponseNotInitialized = "not initialized"
)

// HistoryField names an updatable column of a history record.
type HistoryField string

const (
	FieldUserRequest HistoryField = "user_request"
	FieldBotResponse HistoryField = "bot_response"
)

func (f HistoryField) Valid() bool {
	return f == FieldUserRequest || f == FieldBotResponse
}

type HistoryRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	Command     string    `json:"command"`
	UserRequest string    `json:"user_request"`
	BotResponse string    `json:"bot_response"`
}

// Completed reports whether the search produced a response.
func (r HistoryRecord) Completed() bool {
	return r.BotResponse != ResponseNotInitialized
}
