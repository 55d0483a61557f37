package ledger

import (
	"strings"

	"slotbook/pkg/model"
)

// Behavior implements the participant-ledger fold for the entity
// runtime. One ledger exists per (slotId, participantId); it mirrors
// that participant's status as decided by the slot aggregate.
//
// Every transition is a deterministic function of the event payload
// alone, so applying the same event twice leaves observable state
// unchanged. That is what makes at-least-once delivery safe: the log
// may hold duplicate records, the state cannot diverge.
type Behavior struct{}

func (Behavior) Empty(key string) State {
	slotID, participantID := splitKey(key)
	return State{
		LedgerState: model.LedgerState{
			SlotID:        slotID,
			ParticipantID: participantID,
		},
	}
}

func (Behavior) Apply(s State, evt model.Event) State {
	switch e := evt.(type) {
	case model.ParticipantMarkedAvailable:
		return s.with(e.Role, model.StatusAvailable, "")
	case model.ParticipantUnmarkedAvailable:
		return s.with(e.Role, model.StatusUnavailable, "")
	case model.ParticipantBooked:
		return s.with(e.Role, model.StatusBooked, e.BookingID)
	case model.ParticipantCanceled:
		// BookingID is kept for correlation; the status alone renders
		// the participant inactive.
		return s.with(e.Role, model.StatusCanceled, e.BookingID)
	}
	return s
}

// State wraps the ledger record and remembers whether any event has
// been applied, so an empty ledger can be told apart from one that was
// ever written.
type State struct {
	model.LedgerState
	Initialized bool
}

func (s State) with(role model.Role, status, bookingID string) State {
	s.Role = role
	s.Status = status
	s.BookingID = bookingID
	s.Initialized = true
	return s
}

func splitKey(key string) (slotID, participantID string) {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}
