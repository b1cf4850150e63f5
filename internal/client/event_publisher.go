package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventType names a lifecycle event on the request topic
type EventType string

const (
	EventRequestSubmitted EventType = "request.submitted"
	EventRequestDecided   EventType = "request.decided"
	EventRequestDelivered EventType = "request.delivered"
	EventInvoiceSent      EventType = "invoice.sent"
)

// LifecycleEvent is the message value written for every event
type LifecycleEvent struct {
	Type         EventType              `json:"type"`
	RequestID    uuid.UUID              `json:"request_id"`
	CommissionID uuid.UUID              `json:"commission_id"`
	ActorID      uuid.UUID              `json:"actor_id"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

// EventPublisher streams lifecycle events. Publishing is best-effort:
// callers log failures and continue.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// defaultPublishTimeout bounds one Publish, retries included. Events are
// written from request handlers.
const defaultPublishTimeout = 2 * time.Second

type kafkaEventPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaEventPublisher writes events keyed by request id so that events of
// one request stay ordered within a partition.
func NewKafkaEventPublisher(brokers []string, topic string, logger *zap.Logger) EventPublisher {
	return &kafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
			MaxAttempts:            3,
			WriteTimeout:           time.Second,
		},
		timeout: defaultPublishTimeout,
		logger:  logger,
	}
}

func (p *kafkaEventPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	timeout := p.timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Published event",
		zap.String("type", string(event.Type)),
		zap.String("request_id", event.RequestID.String()),
	)
	return nil
}

func (p *kafkaEventPublisher) Close() error {
	return p.writer.Close()
}

type noopEventPublisher struct{}

// NewNoopEventPublisher is used when no brokers are configured
func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) Publish(context.Context, LifecycleEvent) error { return nil }
func (noopEventPublisher) Close() error                                  { return nil }
