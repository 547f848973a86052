package models

import "fmt"

// State is the next input a session expects. A missing session means idle.
type State string

const (
	StateInputCity     State = "input_city"
	StateConfirmCity   State = "confirm_city"
	StateMinPrice      State = "min_price"
	StateMaxPrice      State = "max_price"
	StateMinDistance   State = "min_distance"
	StateMaxDistance   State = "max_distance"
	StateCheckIn       State = "check_in_date"
	StateCheckOut      State = "check_out_date"
	StateTravellers    State = "travellers"
	StateHotelsAmount  State = "hotels_amount"
	StatePhotosDisplay State = "hotels_photos_display"
	StatePhotosAmount  State = "hotel_photos_amount"
	StateSearching     State = "commence_search"
	StateRecordsNumber State = "records_number"
)

// Fixed price window used by the budget and luxury variants.
const (
	DefaultMinPrice = 1
	DefaultMaxPrice = 1000000
)

// SessionKey scopes a conversation to one user in one chat.
type SessionKey struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (k SessionKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}

type CityCandidate struct {
	RegionID string `json:"region_id"`
	FullName string `json:"full_name"`
}

type CitySelection struct {
	Query      string          `json:"query,omitempty"`
	Candidates []CityCandidate `json:"candidates,omitempty"`
	RegionID   string          `json:"region_id" validate:"required"`
	FullName   string          `json:"full_name" validate:"required"`
}

type Stay struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// CustomCriteria holds the user-entered windows of the custom variant.
type CustomCriteria struct {
	MinPrice    int `json:"min_price" validate:"min=1,max=100000"`
	MaxPrice    int `json:"max_price" validate:"gtfield=MinPrice,max=1000000"`
	MinDistance int `json:"min_distance" validate:"min=0,max=200"`
	MaxDistance int `json:"max_distance" validate:"gtfield=MinDistance,max=300"`
}

type OutputOptions struct {
	HotelsAmount int  `json:"hotels_amount" validate:"min=1"`
	ShowPhotos   bool `json:"show_photos"`
	PhotosAmount int  `json:"photos_amount" validate:"min=0"`
}

// HistoryRequest is the state of the history branch.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// SearchSession is the typed conversation state. Fields shared by every
// variant live at the top level; Custom is set only for the custom variant
// and History only for the history branch.
type SearchSession struct {
	Command        Command         `json:"command" validate:"required"`
	State          State           `json:"state" validate:"required"`
	HistoryID      int64           `json:"history_id"`
	SearchID       string          `json:"search_id,omitempty"`
	City           CitySelection   `json:"city"`
	Stay           Stay            `json:"stay"`
	Adults         int             `json:"adults" validate:"min=1,max=14"`
	Output         OutputOptions   `json:"output"`
	Custom         *CustomCriteria `json:"custom,omitempty" validate:"required_if=Command best_deal"`
	History        *HistoryRequest `json:"history,omitempty"`
	CommenceSearch bool            `json:"commence_search"`
}

// NewSearchSession starts a search variant at city input.
func NewSearchSession(cmd Command, historyID int64) *SearchSession {
	s := &SearchSession{
		Command:   cmd,
		State:     StateInputCity,
		HistoryID: historyID,
	}
	if cmd == CommandCustom {
		s.Custom = &CustomCriteria{}
	}
	return s
}

// PriceRange is the upstream price filter for the session's variant.
func (s *SearchSession) PriceRange() (int, int) {
	if s.Custom != nil {
		return s.Custom.MinPrice, s.Custom.MaxPrice
	}
	return DefaultMinPrice, DefaultMaxPrice
}

func (s *SearchSession) Clone() *SearchSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.City.Candidates != nil {
		c.City.Candidates = append([]CityCandidate(nil), s.City.Candidates...)
	}
	if s.Custom != nil {
		custom := *s.Custom
		c.Custom = &custom
	}
	if s.History != nil {
		h := *s.History
		c.History = &h
	}
	return &c
}
