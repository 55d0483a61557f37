package model

import (
	"strings"
	"testing"
	"time"
)

// The tags below are persisted in event logs and Kafka topics. Changing
// any of them breaks replay of existing data, so they are pinned here.
func TestWireTagsArePinned(t *testing.T) {
	tags := map[Event]string{
		ParticipantMarkedAvailable{}:   "marked-available",
		ParticipantUnmarkedAvailable{}: "unmarked-available",
		ParticipantBooked{}:            "participant-booked",
		ParticipantCanceled{}:          "participant-canceled",
	}
	for evt, want := range tags {
		if got := evt.EventType(); got != want {
			t.Errorf("%T tag changed: got %q, want %q", evt, got, want)
		}
	}
}

func TestWrapAndDecode(t *testing.T) {
	recorded := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	evt := ParticipantBooked{
		SlotID:        "slot-1",
		ParticipantID: "s1",
		Role:          RoleStudent,
		BookingID:     "b-1",
	}

	env, err := Wrap("slot-1", 4, "evt-1", recorded, evt)
	if err != nil {
		t.Fatal(err)
	}
	if env.Key != "slot-1" || env.Seq != 4 || env.EventID != "evt-1" {
		t.Errorf("envelope metadata wrong: %+v", env)
	}
	if env.Type != TypeBooked {
		t.Errorf("expected tag %s, got %s", TypeBooked, env.Type)
	}
	if !env.RecordedAt.Equal(recorded) {
		t.Errorf("recorded_at changed: %v", env.RecordedAt)
	}

	decoded, err := env.Decode()
	if err != nil {
		t.Fatal(err)
	}
	booked, ok := decoded.(ParticipantBooked)
	if !ok {
		t.Fatalf("expected ParticipantBooked, got %T", decoded)
	}
	if booked != evt {
		t.Errorf("roundtrip changed payload: got %+v, want %+v", booked, evt)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	env := Envelope{Type: "participant-promoted", Data: []byte(`{}`)}
	_, err := env.Decode()
	if err == nil {
		t.Fatal("unknown tag must fail, not be skipped")
	}
	if !strings.Contains(err.Error(), "participant-promoted") {
		t.Errorf("error should name the tag: %v", err)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	env := Envelope{Type: TypeMarkedAvailable, Data: []byte(`{"slot_id":`)}
	if _, err := env.Decode(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEventAccessors(t *testing.T) {
	evt := ParticipantCanceled{SlotID: "slot-9", ParticipantID: "i1", Role: RoleInstructor, BookingID: "b-2"}
	if evt.Slot() != "slot-9" {
		t.Errorf("Slot() = %s", evt.Slot())
	}
	p := evt.Participant()
	if p.ID != "i1" || p.Role != RoleInstructor {
		t.Errorf("Participant() = %+v", p)
	}
}

func TestLedgerKey(t *testing.T) {
	if got := LedgerKey("slot-1", "s1"); got != "slot-1/s1" {
		t.Errorf("LedgerKey = %q", got)
	}
}
