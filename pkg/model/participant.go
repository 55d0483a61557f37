package model

import "fmt"

// Role identifies which of the required booking positions a participant fills.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAircraft   Role = "aircraft"
	RoleInstructor Role = "instructor"
)

// Roles lists every role a booking must cover, in canonical order.
var Roles = []Role{RoleStudent, RoleAircraft, RoleInstructor}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAircraft, RoleInstructor:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown participant role: %q", s)
	}
	return r, nil
}

// Participant is an entity that can be marked available for a slot.
// Identity is the (ID, Role) pair: the same physical id under two
// different roles counts as two distinct participants.
type Participant struct {
	ID   string `json:"id" bson:"id"`
	Role Role   `json:"role" bson:"role"`
}

func (p Participant) Key() string {
	return p.ID + ":" + string(p.Role)
}

// LedgerKey returns the participant-ledger entity key for a slot.
// Ledgers are keyed by (slotId, participantId) only; the role rides
// along in the event payload.
func LedgerKey(slotID, participantID string) string {
	return slotID + "/" + participantID
}
