// Package consumer bridges the propagation channel into the ledger
// service: each transport message carries one slot-aggregate event
// envelope, keyed by the ledger it addresses.
package consumer

import (
	"context"

	"slotbook/internal/ledgers/service"
	"slotbook/pkg/kafka"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type EventConsumer struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewEventConsumer(service service.LedgerService, log *logger.Logger) *EventConsumer {
	return &EventConsumer{
		service: service,
		log:     log,
	}
}

// Handle implements kafka.MessageHandler. Malformed payloads are
// permanent failures and go straight to the DLQ; everything else is
// retried, which is safe because ledger transitions are idempotent.
func (c *EventConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	var env model.Envelope
	if err := msg.DecodeValue(&env); err != nil {
		c.log.Error("Discarding undecodable event message",
			"key", msg.Key,
			"offset", msg.Offset,
			"error", err,
		)
		return kafka.NewPermanentError("undecodable event envelope", err)
	}

	evt, err := env.Decode()
	if err != nil {
		c.log.Error("Discarding event with unknown payload",
			"key", msg.Key,
			"type", env.Type,
			"error", err,
		)
		return kafka.NewPermanentError("unknown event payload", err)
	}

	if err := service.VerifyAddress(msg.Key, evt); err != nil {
		c.log.Error("Discarding misaddressed event",
			"key", msg.Key,
			"event_id", env.EventID,
			"error", err,
		)
		return kafka.NewPermanentError("misaddressed event", err)
	}

	state, err := c.service.ApplyForwarded(ctx, env)
	if err != nil {
		return err
	}

	c.log.Debug("Forwarded event applied",
		"slot_id", state.SlotID,
		"participant_id", state.ParticipantID,
		"status", state.Status,
		"event_id", env.EventID,
	)
	return nil
}
