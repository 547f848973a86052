// Package events publishes search outcomes for downstream analytics.
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "hotelbot.search.completed"

type SearchCompleted struct {
	SearchID    string    `json:"search_id"`
	UserID      int64     `json:"user_id"`
	ChatID      int64     `json:"chat_id"`
	Command     string    `json:"command"`
	City        string    `json:"city"`
	RegionID    string    `json:"region_id"`
	Hotels      int       `json:"hotels"`
	Canceled    bool      `json:"canceled"`
	CompletedAt time.Time `json:"completed_at"`
}

type Publisher interface {
	PublishSearchCompleted(ctx context.Context, e SearchCompleted) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) PublishSearchCompleted(context.Context, SearchCompleted) error { return nil }
func (NopPublisher) Close() error                                                 { return nil }

// messageWriter is the part of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by user id so one user's searches stay
// on one partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}}
}

func (p *KafkaPublisher) PublishSearchCompleted(ctx context.Context, e SearchCompleted) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode search event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.UserID, 10)),
		Value: data,
		Time:  e.CompletedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish search event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
