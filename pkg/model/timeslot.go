package model

// Booking pins exactly one participant id per required role.
type Booking struct {
	StudentID    string `json:"student_id"`
	AircraftID   string `json:"aircraft_id"`
	InstructorID string `json:"instructor_id"`
}

// IDForRole returns the participant id the booking holds for a role.
func (b Booking) IDForRole(r Role) string {
	switch r {
	case RoleStudent:
		return b.StudentID
	case RoleAircraft:
		return b.AircraftID
	case RoleInstructor:
		return b.InstructorID
	}
	return ""
}

// Timeslot is a read-only snapshot of one slot aggregate: who is
// currently available and which bookings are active.
type Timeslot struct {
	Available []Participant      `json:"available"`
	Bookings  map[string]Booking `json:"bookings"`
}

// Ledger statuses. The ledger mirrors the slot aggregate's view of one
// participant; it is derived state, never consulted for booking decisions.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusBooked      = "booked"
	StatusCanceled    = "canceled"
)

// LedgerState is the per-(slot, participant) mirror maintained from
// forwarded slot events.
type LedgerState struct {
	SlotID        string `json:"slot_id" bson:"slot_id"`
	ParticipantID string `json:"participant_id" bson:"participant_id"`
	Role          Role   `json:"role" bson:"role"`
	Status        string `json:"status" bson:"status"`
	BookingID     string `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
}

// SlotRow is one row of the queryable read model. Only currently-active
// statuses (available, booked) surface as rows; unmarked and canceled
// participants have their row removed.
type SlotRow struct {
	SlotID        string `json:"slot_id" bson:"slot_id"`
	ParticipantID string `json:"participant_id" bson:"participant_id"`
	Role          Role   `json:"role" bson:"role"`
	BookingID     string `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Status        string `json:"status" bson:"status"`
}
