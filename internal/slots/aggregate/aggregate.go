package aggregate

import (
	"sort"

	slotserrors "slotbook/internal/slots/errors"
	"slotbook/pkg/model"
)

// State is the authoritative per-slot state: the availability pool and
// the active bookings. A participant is never in both at once.
type State struct {
	SlotID    string
	Available map[model.Participant]struct{}
	Bookings  map[string]model.Booking
}

// Behavior implements the slot aggregate's event fold for the entity
// runtime. Apply is pure: it returns a fresh State and never mutates
// its input, so replaying any log prefix from Empty reproduces the
// exact same (available, bookings) pair.
type Behavior struct{}

func (Behavior) Empty(key string) State {
	return State{
		SlotID:    key,
		Available: make(map[model.Participant]struct{}),
		Bookings:  make(map[string]model.Booking),
	}
}

func (Behavior) Apply(s State, evt model.Event) State {
	next := s.clone()
	switch e := evt.(type) {
	case model.ParticipantMarkedAvailable:
		next.Available[e.Participant()] = struct{}{}
	case model.ParticipantUnmarkedAvailable:
		delete(next.Available, e.Participant())
	case model.ParticipantBooked:
		delete(next.Available, e.Participant())
		booking := next.Bookings[e.BookingID]
		switch e.Role {
		case model.RoleStudent:
			booking.StudentID = e.ParticipantID
		case model.RoleAircraft:
			booking.AircraftID = e.ParticipantID
		case model.RoleInstructor:
			booking.InstructorID = e.ParticipantID
		}
		next.Bookings[e.BookingID] = booking
	case model.ParticipantCanceled:
		delete(next.Bookings, e.BookingID)
		next.Available[e.Participant()] = struct{}{}
	}
	return next
}

func (s State) clone() State {
	next := State{
		SlotID:    s.SlotID,
		Available: make(map[model.Participant]struct{}, len(s.Available)),
		Bookings:  make(map[string]model.Booking, len(s.Bookings)),
	}
	for p := range s.Available {
		next.Available[p] = struct{}{}
	}
	for id, b := range s.Bookings {
		next.Bookings[id] = b
	}
	return next
}

// MarkAvailable admits a participant to the availability pool.
func (s State) MarkAvailable(p model.Participant) ([]model.Event, error) {
	if _, ok := s.Available[p]; ok {
		return nil, slotserrors.ErrAlreadyAvailable
	}
	return []model.Event{model.ParticipantMarkedAvailable{
		SlotID:        s.SlotID,
		ParticipantID: p.ID,
		Role:          p.Role,
	}}, nil
}

// UnmarkAvailable withdraws a participant from the pool. A booked
// participant is not in the pool, so withdrawing it rejects; freeing it
// requires canceling the booking.
func (s State) UnmarkAvailable(p model.Participant) ([]model.Event, error) {
	if _, ok := s.Available[p]; !ok {
		return nil, slotserrors.ErrNotAvailable
	}
	return []model.Event{model.ParticipantUnmarkedAvailable{
		SlotID:        s.SlotID,
		ParticipantID: p.ID,
		Role:          p.Role,
	}}, nil
}

// Book reserves one participant per required role under bookingID.
// The (id, role) pair must match exactly: an id available as a student
// cannot fill the aircraft position. Rejection persists nothing.
func (s State) Book(studentID, aircraftID, instructorID, bookingID string) ([]model.Event, error) {
	if _, taken := s.Bookings[bookingID]; taken {
		return nil, slotserrors.ErrBookingExists
	}

	booking := model.Booking{
		StudentID:    studentID,
		AircraftID:   aircraftID,
		InstructorID: instructorID,
	}
	for _, role := range model.Roles {
		p := model.Participant{ID: booking.IDForRole(role), Role: role}
		if _, ok := s.Available[p]; !ok {
			return nil, slotserrors.ErrParticipantsUnavailable
		}
	}

	events := make([]model.Event, 0, len(model.Roles))
	for _, role := range model.Roles {
		events = append(events, model.ParticipantBooked{
			SlotID:        s.SlotID,
			ParticipantID: booking.IDForRole(role),
			Role:          role,
			BookingID:     bookingID,
		})
	}
	return events, nil
}

// Cancel releases all three participants of a booking back to the pool.
func (s State) Cancel(bookingID string) ([]model.Event, error) {
	booking, ok := s.Bookings[bookingID]
	if !ok {
		return nil, slotserrors.ErrBookingNotFound
	}

	events := make([]model.Event, 0, len(model.Roles))
	for _, role := range model.Roles {
		events = append(events, model.ParticipantCanceled{
			SlotID:        s.SlotID,
			ParticipantID: booking.IDForRole(role),
			Role:          role,
			BookingID:     bookingID,
		})
	}
	return events, nil
}

// Snapshot renders the state for queries, with available participants in
// a stable order.
func (s State) Snapshot() model.Timeslot {
	available := make([]model.Participant, 0, len(s.Available))
	for p := range s.Available {
		available = append(available, p)
	}
	sort.Slice(available, func(i, j int) bool {
		if available[i].ID != available[j].ID {
			return available[i].ID < available[j].ID
		}
		return available[i].Role < available[j].Role
	})

	bookings := make(map[string]model.Booking, len(s.Bookings))
	for id, b := range s.Bookings {
		bookings[id] = b
	}

	return model.Timeslot{Available: available, Bookings: bookings}
}
