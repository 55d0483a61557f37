package projector

import (
	"context"
	"fmt"

	"slotbook/internal/readmodel/repository"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

// Projector maintains the queryable slot-row table from ledger events.
// A row exists while the participant is engaged with the slot (available
// or booked) and is removed when the engagement ends. All writes are
// idempotent so redelivered events converge on the same table.
type Projector struct {
	repo repository.SlotRowRepository
	log  *logger.Logger
}

func NewProjector(repo repository.SlotRowRepository, log *logger.Logger) *Projector {
	return &Projector{
		repo: repo,
		log:  log,
	}
}

func (p *Projector) ProcessEvent(ctx context.Context, evt model.Event) error {
	switch e := evt.(type) {
	case model.ParticipantMarkedAvailable:
		return p.upsert(ctx, model.SlotRow{
			SlotID:        e.SlotID,
			ParticipantID: e.ParticipantID,
			Role:          e.Role,
			Status:        model.StatusAvailable,
		})
	case model.ParticipantBooked:
		return p.upsert(ctx, model.SlotRow{
			SlotID:        e.SlotID,
			ParticipantID: e.ParticipantID,
			Role:          e.Role,
			BookingID:     e.BookingID,
			Status:        model.StatusBooked,
		})
	case model.ParticipantUnmarkedAvailable:
		return p.delete(ctx, e.SlotID, e.ParticipantID)
	case model.ParticipantCanceled:
		return p.delete(ctx, e.SlotID, e.ParticipantID)
	}
	return fmt.Errorf("unhandled event type: %s", evt.EventType())
}

func (p *Projector) upsert(ctx context.Context, row model.SlotRow) error {
	if err := p.repo.Upsert(ctx, row); err != nil {
		return err
	}

	p.log.Debug("Slot row projected",
		"slot_id", row.SlotID,
		"participant_id", row.ParticipantID,
		"status", row.Status,
	)
	return nil
}

func (p *Projector) delete(ctx context.Context, slotID, participantID string) error {
	if err := p.repo.Delete(ctx, slotID, participantID); err != nil {
		return err
	}

	p.log.Debug("Slot row removed",
		"slot_id", slotID,
		"participant_id", participantID,
	)
	return nil
}
