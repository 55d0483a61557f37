package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"slotbook/pkg/logger"
)

type mockDLQWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	written   []kafka.Message
}

func (m *mockDLQWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockDLQWriter) Close() error { return nil }

func testConsumer(t *testing.T, handler MessageHandler, dlq dlqWriter, maxRetries int) *Consumer {
	t.Helper()
	return &Consumer{
		dlqWriter:  dlq,
		topic:      "events",
		groupID:    "test-group",
		dlqTopic:   "events-dlq",
		maxRetries: maxRetries,
		handler:    handler,
		log:        logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "consumer-test"}),
	}
}

func testMessage() Message {
	return Message{
		Key:     "slot-1/s1",
		Value:   []byte(`{"type":"participant-booked"}`),
		Headers: map[string]string{},
		Topic:   "events",
		Offset:  7,
	}
}

func TestProcessMessageResolvedOnSuccess(t *testing.T) {
	dlq := &mockDLQWriter{}
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		return nil
	}, dlq, 3)

	if err := consumer.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("handled message must resolve, got: %v", err)
	}
	if len(dlq.written) != 0 {
		t.Errorf("DLQ must stay untouched, got %d messages", len(dlq.written))
	}
}

func TestProcessMessagePermanentParkedOnDLQ(t *testing.T) {
	dlq := &mockDLQWriter{}
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		return NewPermanentError("undecodable event envelope", nil)
	}, dlq, 3)

	if err := consumer.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("parked message must resolve, got: %v", err)
	}
	if len(dlq.written) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.written))
	}
	if string(dlq.written[0].Key) != "slot-1/s1" {
		t.Errorf("DLQ message lost its key: %q", dlq.written[0].Key)
	}

	headers := map[string]string{}
	for _, h := range dlq.written[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers[HeaderOriginalTopic] != "events" {
		t.Errorf("DLQ message should carry the original topic, got %q", headers[HeaderOriginalTopic])
	}
}

// A message that is neither applied nor parked must surface as
// unresolved so the offset is held and the broker redelivers.
func TestProcessMessageUnresolvedWhenDLQFails(t *testing.T) {
	dlq := &mockDLQWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("broker unreachable")
		},
	}
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		return NewPermanentError("unknown event payload", nil)
	}, dlq, 3)

	err := consumer.processMessage(context.Background(), testMessage())
	if err == nil {
		t.Fatal("failed handler plus failed DLQ publish must not resolve")
	}
	if len(dlq.written) != 0 {
		t.Errorf("no DLQ message should be recorded, got %d", len(dlq.written))
	}
}

func TestProcessMessageRetriesTransient(t *testing.T) {
	dlq := &mockDLQWriter{}
	calls := 0
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		calls++
		if calls == 1 {
			return errors.New("i/o timeout")
		}
		return nil
	}, dlq, 3)

	if err := consumer.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("message should resolve after a retry, got: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
	if len(dlq.written) != 0 {
		t.Errorf("DLQ must stay untouched, got %d messages", len(dlq.written))
	}
}

func TestProcessMessageTransientExhaustedParked(t *testing.T) {
	dlq := &mockDLQWriter{}
	calls := 0
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		calls++
		return errors.New("connection refused")
	}, dlq, 1)

	if err := consumer.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("exhausted message parked on DLQ must resolve, got: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected initial attempt plus 1 retry, got %d calls", calls)
	}
	if len(dlq.written) != 1 {
		t.Errorf("expected 1 DLQ message, got %d", len(dlq.written))
	}
}

func TestProcessMessageNoDLQDrops(t *testing.T) {
	consumer := testConsumer(t, func(ctx context.Context, msg Message) error {
		return NewPermanentError("undecodable event envelope", nil)
	}, nil, 3)

	if err := consumer.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("without a DLQ the message is dropped and resolved, got: %v", err)
	}
}
