package service

import (
	"context"
	"fmt"

	ledgerserrors "slotbook/internal/ledgers/errors"
	"slotbook/internal/ledgers/ledger"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/entity"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

// Sink receives every event a ledger persists, after the append is
// durable. The read-model projector is the production sink.
type Sink interface {
	ProcessEvent(ctx context.Context, evt model.Event) error
}

type LedgerService interface {
	// ApplyForwarded applies one forwarded slot-aggregate event to the
	// ledger it addresses. Safe under redelivery and reordering across
	// independent event types.
	ApplyForwarded(ctx context.Context, env model.Envelope) (model.LedgerState, error)

	// Standalone commands for ad-hoc use; production traffic arrives
	// through ApplyForwarded.
	MarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error
	UnmarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error
	Book(ctx context.Context, slotID, participantID string, role model.Role, bookingID string) error
	Cancel(ctx context.Context, slotID, participantID string, role model.Role, bookingID string) error

	Get(ctx context.Context, slotID, participantID string) (model.LedgerState, error)
}

type ledgerService struct {
	runtime *entity.Runtime[ledger.State]
	sinks   []Sink
	log     *logger.Logger
}

func NewLedgerService(store eventstore.Store, log *logger.Logger, sinks ...Sink) LedgerService {
	return &ledgerService{
		runtime: entity.NewRuntime[ledger.State](store, ledger.Behavior{}, log),
		sinks:   sinks,
		log:     log,
	}
}

func (s *ledgerService) ApplyForwarded(ctx context.Context, env model.Envelope) (model.LedgerState, error) {
	evt, err := env.Decode()
	if err != nil {
		return model.LedgerState{}, apperrors.InvalidInput(err.Error())
	}
	return s.apply(ctx, evt)
}

// VerifyAddress guards against a transport message keyed for one ledger
// carrying a payload that belongs to another.
func VerifyAddress(transportKey string, evt model.Event) error {
	if transportKey == "" {
		return nil
	}
	if derived := model.LedgerKey(evt.Slot(), evt.Participant().ID); derived != transportKey {
		return fmt.Errorf("%w: keyed %s, payload %s", ledgerserrors.ErrWrongParticipant, transportKey, derived)
	}
	return nil
}

// apply persists the event in the ledger's own log and fans it out to
// the sinks. The transition itself cannot reject: the slot aggregate
// already made the decision, the ledger only mirrors it.
func (s *ledgerService) apply(ctx context.Context, evt model.Event) (model.LedgerState, error) {
	key := model.LedgerKey(evt.Slot(), evt.Participant().ID)

	state, _, err := s.runtime.Execute(ctx, key, func(ledger.State) ([]model.Event, error) {
		return []model.Event{evt}, nil
	})
	if err != nil {
		s.log.Error("Failed to persist ledger event",
			"key", key,
			"type", evt.EventType(),
			"error", err,
		)
		return model.LedgerState{}, apperrors.Internal("Failed to persist ledger event", err)
	}

	for _, sink := range s.sinks {
		if err := sink.ProcessEvent(ctx, evt); err != nil {
			// The ledger append is already durable; surfacing the error
			// makes the channel redeliver, and both the ledger and the
			// sink tolerate that.
			return state.LedgerState, apperrors.Internal("Failed to project ledger event", err)
		}
	}

	s.log.Debug("Ledger event applied",
		"slot_id", state.SlotID,
		"participant_id", state.ParticipantID,
		"status", state.Status,
	)
	return state.LedgerState, nil
}

func (s *ledgerService) MarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error {
	_, err := s.apply(ctx, model.ParticipantMarkedAvailable{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          role,
	})
	return err
}

func (s *ledgerService) UnmarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error {
	_, err := s.apply(ctx, model.ParticipantUnmarkedAvailable{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          role,
	})
	return err
}

func (s *ledgerService) Book(ctx context.Context, slotID, participantID string, role model.Role, bookingID string) error {
	_, err := s.apply(ctx, model.ParticipantBooked{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          role,
		BookingID:     bookingID,
	})
	return err
}

func (s *ledgerService) Cancel(ctx context.Context, slotID, participantID string, role model.Role, bookingID string) error {
	_, err := s.apply(ctx, model.ParticipantCanceled{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          role,
		BookingID:     bookingID,
	})
	return err
}

func (s *ledgerService) Get(ctx context.Context, slotID, participantID string) (model.LedgerState, error) {
	state, err := s.runtime.Read(ctx, model.LedgerKey(slotID, participantID))
	if err != nil {
		return model.LedgerState{}, apperrors.Internal("Failed to load participant ledger", err)
	}
	if !state.Initialized {
		appErr := apperrors.NotFoundWithID("Participant ledger", model.LedgerKey(slotID, participantID))
		appErr.Err = ledgerserrors.ErrNotFound
		return model.LedgerState{}, appErr
	}
	return state.LedgerState, nil
}
