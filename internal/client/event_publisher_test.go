package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
	// block waits for the context like a writer retrying against a dead broker
	block bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaEventPublisher{writer: w, logger: zap.NewNop()}
	requestID := uuid.New()

	err := p.Publish(context.Background(), LifecycleEvent{
		Type:      EventRequestDecided,
		RequestID: requestID,
		Payload:   map[string]interface{}{"accepted": true},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, requestID.String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "request.decided", string(msg.Headers[0].Value))

	var decoded LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, EventRequestDecided, decoded.Type)
	assert.Equal(t, true, decoded.Payload["accepted"])
	assert.False(t, decoded.OccurredAt.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaEventPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &kafkaEventPublisher{writer: w, logger: zap.NewNop()}

	err := p.Publish(context.Background(), LifecycleEvent{Type: EventInvoiceSent, RequestID: uuid.New()})
	assert.ErrorContains(t, err, "invoice.sent")
}

func TestKafkaEventPublisher_UnreachableBrokerIsBounded(t *testing.T) {
	w := &fakeWriter{block: true}
	p := &kafkaEventPublisher{writer: w, timeout: 50 * time.Millisecond, logger: zap.NewNop()}

	start := time.Now()
	err := p.Publish(context.Background(), LifecycleEvent{Type: EventRequestSubmitted, RequestID: uuid.New()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewKafkaEventPublisher_Bounds(t *testing.T) {
	p := NewKafkaEventPublisher([]string{"localhost:9092"}, "nemu.requests", zap.NewNop()).(*kafkaEventPublisher)
	assert.Equal(t, defaultPublishTimeout, p.timeout)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.Equal(t, time.Second, w.WriteTimeout)
}

func TestNoopEventPublisher(t *testing.T) {
	p := NewNoopEventPublisher()
	assert.NoError(t, p.Publish(context.Background(), LifecycleEvent{}))
	assert.NoError(t, p.Close())
}
