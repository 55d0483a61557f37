package aggregate

import (
	"errors"
	"testing"

	slotserrors "slotbook/internal/slots/errors"
	"slotbook/pkg/model"
)

func student(id string) model.Participant {
	return model.Participant{ID: id, Role: model.RoleStudent}
}

func aircraft(id string) model.Participant {
	return model.Participant{ID: id, Role: model.RoleAircraft}
}

func instructor(id string) model.Participant {
	return model.Participant{ID: id, Role: model.RoleInstructor}
}

// applyAll folds events into state the way the runtime would.
func applyAll(s State, events []model.Event) State {
	b := Behavior{}
	for _, evt := range events {
		s = b.Apply(s, evt)
	}
	return s
}

func readyState(t *testing.T) State {
	t.Helper()
	s := Behavior{}.Empty("slot-1")
	for _, p := range []model.Participant{student("s1"), aircraft("a1"), instructor("i1")} {
		events, err := s.MarkAvailable(p)
		if err != nil {
			t.Fatalf("MarkAvailable(%v) failed: %v", p, err)
		}
		s = applyAll(s, events)
	}
	return s
}

func TestMarkAvailable(t *testing.T) {
	s := Behavior{}.Empty("slot-1")

	events, err := s.MarkAvailable(student("s1"))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType() != model.TypeMarkedAvailable {
		t.Errorf("expected %s, got %s", model.TypeMarkedAvailable, events[0].EventType())
	}

	s = applyAll(s, events)
	if _, ok := s.Available[student("s1")]; !ok {
		t.Error("participant should be in the availability pool after apply")
	}
}

func TestMarkAvailableDuplicate(t *testing.T) {
	s := Behavior{}.Empty("slot-1")
	events, _ := s.MarkAvailable(student("s1"))
	s = applyAll(s, events)

	if _, err := s.MarkAvailable(student("s1")); !errors.Is(err, slotserrors.ErrAlreadyAvailable) {
		t.Errorf("expected ErrAlreadyAvailable, got %v", err)
	}
}

func TestUnmarkAvailable(t *testing.T) {
	s := Behavior{}.Empty("slot-1")
	events, _ := s.MarkAvailable(student("s1"))
	s = applyAll(s, events)

	events, err := s.UnmarkAvailable(student("s1"))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	s = applyAll(s, events)
	if len(s.Available) != 0 {
		t.Error("pool should be empty after unmark")
	}
}

func TestUnmarkAvailableNotPresent(t *testing.T) {
	s := Behavior{}.Empty("slot-1")
	if _, err := s.UnmarkAvailable(student("s1")); !errors.Is(err, slotserrors.ErrNotAvailable) {
		t.Errorf("expected ErrNotAvailable, got %v", err)
	}
}

func TestBookEmitsOneEventPerRole(t *testing.T) {
	s := readyState(t)

	events, err := s.Book("s1", "a1", "i1", "b1")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	seen := make(map[model.Role]string)
	for _, evt := range events {
		booked, ok := evt.(model.ParticipantBooked)
		if !ok {
			t.Fatalf("expected ParticipantBooked, got %T", evt)
		}
		if booked.BookingID != "b1" {
			t.Errorf("expected booking id b1, got %s", booked.BookingID)
		}
		seen[booked.Role] = booked.ParticipantID
	}
	if seen[model.RoleStudent] != "s1" || seen[model.RoleAircraft] != "a1" || seen[model.RoleInstructor] != "i1" {
		t.Errorf("wrong participants per role: %v", seen)
	}
}

func TestBookRemovesParticipantsFromPool(t *testing.T) {
	s := readyState(t)
	events, _ := s.Book("s1", "a1", "i1", "b1")
	s = applyAll(s, events)

	if len(s.Available) != 0 {
		t.Errorf("pool should be empty after booking, got %d entries", len(s.Available))
	}
	booking, ok := s.Bookings["b1"]
	if !ok {
		t.Fatal("booking b1 should exist")
	}
	if booking.StudentID != "s1" || booking.AircraftID != "a1" || booking.InstructorID != "i1" {
		t.Errorf("wrong booking contents: %+v", booking)
	}
}

func TestBookRejections(t *testing.T) {
	tests := []struct {
		name         string
		prepare      func(t *testing.T) State
		studentID    string
		aircraftID   string
		instructorID string
		bookingID    string
		wantErr      error
	}{
		{
			name:         "missing one participant",
			prepare:      readyState,
			studentID:    "s1",
			aircraftID:   "a2",
			instructorID: "i1",
			bookingID:    "b1",
			wantErr:      slotserrors.ErrParticipantsUnavailable,
		},
		{
			name: "empty slot",
			prepare: func(t *testing.T) State {
				return Behavior{}.Empty("slot-1")
			},
			studentID:    "s1",
			aircraftID:   "a1",
			instructorID: "i1",
			bookingID:    "b1",
			wantErr:      slotserrors.ErrParticipantsUnavailable,
		},
		{
			name: "id available under a different role",
			prepare: func(t *testing.T) State {
				s := Behavior{}.Empty("slot-1")
				// x1 joins the pool as a student only.
				for _, p := range []model.Participant{student("x1"), aircraft("a1"), instructor("i1")} {
					events, err := s.MarkAvailable(p)
					if err != nil {
						t.Fatal(err)
					}
					s = applyAll(s, events)
				}
				return s
			},
			studentID:    "s1",
			aircraftID:   "x1",
			instructorID: "i1",
			bookingID:    "b1",
			wantErr:      slotserrors.ErrParticipantsUnavailable,
		},
		{
			name: "duplicate booking id",
			prepare: func(t *testing.T) State {
				s := readyState(t)
				events, err := s.Book("s1", "a1", "i1", "b1")
				if err != nil {
					t.Fatal(err)
				}
				return applyAll(s, events)
			},
			studentID:    "s1",
			aircraftID:   "a1",
			instructorID: "i1",
			bookingID:    "b1",
			wantErr:      slotserrors.ErrBookingExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.prepare(t)
			before := len(s.Available)

			events, err := s.Book(tt.studentID, tt.aircraftID, tt.instructorID, tt.bookingID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if events != nil {
				t.Error("rejection must not emit events")
			}
			if len(s.Available) != before {
				t.Error("rejection must not change the pool")
			}
		})
	}
}

func TestBookedParticipantCannotBeUnmarked(t *testing.T) {
	s := readyState(t)
	events, _ := s.Book("s1", "a1", "i1", "b1")
	s = applyAll(s, events)

	if _, err := s.UnmarkAvailable(student("s1")); !errors.Is(err, slotserrors.ErrNotAvailable) {
		t.Errorf("expected ErrNotAvailable for booked participant, got %v", err)
	}
}

func TestCancelRestoresPool(t *testing.T) {
	s := readyState(t)
	events, _ := s.Book("s1", "a1", "i1", "b1")
	s = applyAll(s, events)

	events, err := s.Cancel("b1")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	s = applyAll(s, events)

	if len(s.Bookings) != 0 {
		t.Error("booking should be gone after cancel")
	}
	for _, p := range []model.Participant{student("s1"), aircraft("a1"), instructor("i1")} {
		if _, ok := s.Available[p]; !ok {
			t.Errorf("%v should be back in the pool after cancel", p)
		}
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	s := readyState(t)
	if _, err := s.Cancel("nope"); !errors.Is(err, slotserrors.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

// A participant must never be both available and booked: replay any
// command sequence and check the invariant after every event.
func TestAvailableAndBookedAreDisjoint(t *testing.T) {
	s := readyState(t)
	events, _ := s.Book("s1", "a1", "i1", "b1")

	for _, evt := range events {
		s = Behavior{}.Apply(s, evt)
		for id := range s.Bookings {
			b := s.Bookings[id]
			for _, role := range model.Roles {
				p := model.Participant{ID: b.IDForRole(role), Role: role}
				if p.ID == "" {
					continue
				}
				if _, ok := s.Available[p]; ok {
					t.Fatalf("%v is both booked and available", p)
				}
			}
		}
	}
}

// Replaying the same log from Empty must land on the same state, and
// Apply must not mutate its input.
func TestReplayDeterminism(t *testing.T) {
	var log []model.Event
	s := Behavior{}.Empty("slot-1")

	step := func(events []model.Event, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		log = append(log, events...)
		s = applyAll(s, events)
	}

	step(s.MarkAvailable(student("s1")))
	step(s.MarkAvailable(aircraft("a1")))
	step(s.MarkAvailable(instructor("i1")))
	step(s.Book("s1", "a1", "i1", "b1"))
	step(s.Cancel("b1"))
	step(s.MarkAvailable(student("s2")))
	step(s.Book("s2", "a1", "i1", "b2"))

	replayed := applyAll(Behavior{}.Empty("slot-1"), log)

	if len(replayed.Available) != len(s.Available) {
		t.Fatalf("replayed pool has %d entries, live has %d", len(replayed.Available), len(s.Available))
	}
	for p := range s.Available {
		if _, ok := replayed.Available[p]; !ok {
			t.Errorf("replayed state missing %v", p)
		}
	}
	if len(replayed.Bookings) != len(s.Bookings) {
		t.Fatalf("replayed bookings %d, live %d", len(replayed.Bookings), len(s.Bookings))
	}
	for id, b := range s.Bookings {
		if replayed.Bookings[id] != b {
			t.Errorf("booking %s differs after replay: %+v vs %+v", id, replayed.Bookings[id], b)
		}
	}

	// Replaying a second time from the same log must also agree.
	again := applyAll(Behavior{}.Empty("slot-1"), log)
	if len(again.Available) != len(replayed.Available) || len(again.Bookings) != len(replayed.Bookings) {
		t.Error("second replay disagrees with the first")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := readyState(t)
	poolBefore := len(s.Available)

	events, _ := s.Book("s1", "a1", "i1", "b1")
	_ = applyAll(s, events)

	if len(s.Available) != poolBefore {
		t.Error("Apply mutated its input state")
	}
	if len(s.Bookings) != 0 {
		t.Error("Apply mutated input bookings")
	}
}

func TestSnapshotSortsAvailable(t *testing.T) {
	s := Behavior{}.Empty("slot-1")
	for _, p := range []model.Participant{instructor("i9"), student("s1"), aircraft("a5")} {
		events, _ := s.MarkAvailable(p)
		s = applyAll(s, events)
	}

	snap := s.Snapshot()
	if len(snap.Available) != 3 {
		t.Fatalf("expected 3 available, got %d", len(snap.Available))
	}
	for i := 1; i < len(snap.Available); i++ {
		if snap.Available[i-1].ID > snap.Available[i].ID {
			t.Errorf("snapshot not sorted: %v", snap.Available)
		}
	}
}
