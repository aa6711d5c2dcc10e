package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Topic carries every storefront lifecycle event the worker syncs from.
const Topic = "store-events"

const (
	TypeProductUpdated = "product.updated"
	TypeOrderCompleted = "order.completed"
	TypeUserRegistered = "user.registered"
	TypeUserUpdated    = "user.updated"
	TypeUserDeleted    = "user.deleted"
)

type Event struct {
	Type      string            `json:"type"`
	EntityID  string            `json:"entity_id"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventPublisher is what the HTTP handlers depend on; Publisher is the
// kafka-backed implementation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers string, logger *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    Topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Published event %s for %s", event.Type, event.EntityID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
