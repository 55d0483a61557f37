package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stable wire tags. These identify persisted events for the lifetime of
// the log; renaming a Go type must never change its tag.
const (
	TypeMarkedAvailable   = "marked-available"
	TypeUnmarkedAvailable = "unmarked-available"
	TypeBooked            = "participant-booked"
	TypeCanceled          = "participant-canceled"
)

// Event is a persisted domain event. The four concrete types below form
// a closed set; the state-transition folds switch exhaustively over them.
type Event interface {
	EventType() string
	Slot() string
	Participant() Participant
}

// ParticipantMarkedAvailable records that a participant entered the
// slot's availability pool.
type ParticipantMarkedAvailable struct {
	SlotID        string `json:"slot_id"`
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`
}

func (e ParticipantMarkedAvailable) EventType() string { return TypeMarkedAvailable }
func (e ParticipantMarkedAvailable) Slot() string      { return e.SlotID }
func (e ParticipantMarkedAvailable) Participant() Participant {
	return Participant{ID: e.ParticipantID, Role: e.Role}
}

// ParticipantUnmarkedAvailable records that a participant left the
// availability pool without being booked.
type ParticipantUnmarkedAvailable struct {
	SlotID        string `json:"slot_id"`
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`
}

func (e ParticipantUnmarkedAvailable) EventType() string { return TypeUnmarkedAvailable }
func (e ParticipantUnmarkedAvailable) Slot() string      { return e.SlotID }
func (e ParticipantUnmarkedAvailable) Participant() Participant {
	return Participant{ID: e.ParticipantID, Role: e.Role}
}

// ParticipantBooked records that a participant was taken out of the pool
// by a booking. A successful booking persists exactly one of these per role.
type ParticipantBooked struct {
	SlotID        string `json:"slot_id"`
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`
	BookingID     string `json:"booking_id"`
}

func (e ParticipantBooked) EventType() string { return TypeBooked }
func (e ParticipantBooked) Slot() string      { return e.SlotID }
func (e ParticipantBooked) Participant() Participant {
	return Participant{ID: e.ParticipantID, Role: e.Role}
}

// ParticipantCanceled records that a booking released a participant back
// into the pool. A cancellation persists exactly one of these per role.
type ParticipantCanceled struct {
	SlotID        string `json:"slot_id"`
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`
	BookingID     string `json:"booking_id"`
}

func (e ParticipantCanceled) EventType() string { return TypeCanceled }
func (e ParticipantCanceled) Slot() string      { return e.SlotID }
func (e ParticipantCanceled) Participant() Participant {
	return Participant{ID: e.ParticipantID, Role: e.Role}
}

// Envelope is the persisted and transported form of an event: the typed
// payload plus log position and delivery metadata.
type Envelope struct {
	Key        string          `json:"key" bson:"key"`
	Seq        int64           `json:"seq" bson:"seq"`
	Type       string          `json:"type" bson:"type"`
	Data       json.RawMessage `json:"data" bson:"data"`
	EventID    string          `json:"event_id" bson:"event_id"`
	RecordedAt time.Time       `json:"recorded_at" bson:"recorded_at"`
}

func Wrap(key string, seq int64, eventID string, recordedAt time.Time, evt Event) (Envelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s event: %w", evt.EventType(), err)
	}
	return Envelope{
		Key:        key,
		Seq:        seq,
		Type:       evt.EventType(),
		Data:       data,
		EventID:    eventID,
		RecordedAt: recordedAt,
	}, nil
}

// Decode returns the typed event carried by the envelope. Unknown tags
// are an error: the event set only grows during deliberate schema
// evolution, and silently skipping records would corrupt replay.
func (env Envelope) Decode() (Event, error) {
	switch env.Type {
	case TypeMarkedAvailable:
		var e ParticipantMarkedAvailable
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", env.Type, err)
		}
		return e, nil
	case TypeUnmarkedAvailable:
		var e ParticipantUnmarkedAvailable
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", env.Type, err)
		}
		return e, nil
	case TypeBooked:
		var e ParticipantBooked
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", env.Type, err)
		}
		return e, nil
	case TypeCanceled:
		var e ParticipantCanceled
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", env.Type, err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown event type tag: %q", env.Type)
}
