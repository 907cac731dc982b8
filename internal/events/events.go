package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RefreshCompletedType is the type of the event published after each committed refresh
const RefreshCompletedType = "country.refresh.completed"

// RefreshCompleted describes a committed refresh
type RefreshCompleted struct {
	Type           string    `json:"type"`
	RunID          string    `json:"run_id"`
	TotalCountries int64     `json:"total_countries"`
	RefreshedAt    time.Time `json:"refreshed_at"`
	DurationMs     int64     `json:"duration_ms"`
}

// Publisher sends refresh events
type Publisher interface {
	PublishRefresh(ctx context.Context, event RefreshCompleted) error
	Close() error
}

// messageWriter is the part of kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes refresh events to a Kafka topic
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishRefresh writes the event keyed by its run ID
func (k *KafkaPublisher) PublishRefresh(ctx context.Context, event RefreshCompleted) error {
	if event.Type == "" {
		event.Type = RefreshCompletedType
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write refresh event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishRefresh(ctx context.Context, event RefreshCompleted) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
