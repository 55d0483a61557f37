package propagation

import (
	"context"
	"errors"

	"slotbook/pkg/kafka"
	"slotbook/pkg/model"
)

const (
	// Topic carrying forwarded slot events to the participant ledgers.
	EventsTopic = "participant-slot-events"

	EventsDLQTopic = "participant-slot-events-dlq"
)

var ErrChannelClosed = errors.New("propagation channel is closed")

// KafkaChannel publishes envelopes keyed by ledger entity key, so all
// events for one (slot, participant) share a partition and arrive in
// publish order.
type KafkaChannel struct {
	producer *kafka.Producer
}

func NewKafkaChannel(producer *kafka.Producer) *KafkaChannel {
	return &KafkaChannel{producer: producer}
}

func (c *KafkaChannel) Publish(ctx context.Context, env model.Envelope) error {
	evt, err := env.Decode()
	if err != nil {
		return err
	}

	msg, err := kafka.NewMessage(model.LedgerKey(evt.Slot(), evt.Participant().ID), env)
	if err != nil {
		return err
	}
	msg = msg.WithHeader(kafka.HeaderEventType, env.Type).
		WithHeader(kafka.HeaderEventID, env.EventID).
		WithHeader(kafka.HeaderSource, "slots")

	return c.producer.Publish(ctx, msg)
}

func (c *KafkaChannel) Close() error {
	return c.producer.Close()
}
