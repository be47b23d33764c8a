package model

import "time"

// RSVPStatus is a guest's attendance response.
type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPConfirmed RSVPStatus = "confirmed"
	RSVPDeclined  RSVPStatus = "declined"
)

// Valid reports whether s is one of the known RSVP statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPConfirmed, RSVPDeclined:
		return true
	}
	return false
}

// Guest represents a wedding guest record as stored in the `guests`
// table. Every guest belongs to exactly one couple (UserID). The
// plus-one fields are only meaningful while HasPlusOne is true; their
// consistency is maintained by DeriveGuestFields, which every write
// path must apply before persisting.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owning couple's user id.
//  Name            – full name of the guest.
//  Email           – contact email, may be empty.
//  Phone           – contact phone, may be empty.
//  RSVPStatus      – pending | confirmed | declined.
//  Dietary         – dietary restrictions free text.
//  HasPlusOne      – whether the guest brings a companion.
//  PlusOneName     – companion name (nullable).
//  PlusOneDietary  – companion dietary restrictions (nullable).
//  PlusOneRSVP     – companion status, mirrors RSVPStatus (nullable).
//  TableID         – assigned table, null when unassigned.
//  InvitationToken – opaque token used by the public RSVP form.
type Guest struct {
	ID              uint64      `json:"id"`
	UserID          uint64      `json:"-"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	RSVPStatus      RSVPStatus  `json:"rsvp_status"`
	Dietary         string      `json:"dietary_restrictions"`
	HasPlusOne      bool        `json:"has_plus_one"`
	PlusOneName     *string     `json:"plus_one_name"`
	PlusOneDietary  *string     `json:"plus_one_dietary_restrictions"`
	PlusOneRSVP     *RSVPStatus `json:"plus_one_rsvp_status"`
	TableID         *uint64     `json:"table_id"`
	InvitationToken string      `json:"invitation_token,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SeatsRequired returns how many seats the guest occupies at a table:
// one for the guest plus one for a companion.
func (g Guest) SeatsRequired() int {
	if g.HasPlusOne {
		return 2
	}
	return 1
}

// DeriveGuestFields recomputes the dependent plus-one fields from the
// primary fields and returns the shaped guest. The rules:
//
//   - without a plus-one the companion name and dietary text are
//     cleared and the companion status resets to pending;
//   - a declined guest carries no companion data at all (all three
//     plus-one fields become null);
//   - otherwise the companion status mirrors the guest's status, since
//     it is not independently settable.
//
// Handlers apply this on every guest write so that direct API calls
// cannot produce a companion state the roster UI could never reach.
func DeriveGuestFields(g Guest) Guest {
	if !g.HasPlusOne {
		g.PlusOneName = nil
		g.PlusOneDietary = nil
		pending := RSVPPending
		g.PlusOneRSVP = &pending
		return g
	}
	if g.RSVPStatus == RSVPDeclined {
		g.PlusOneName = nil
		g.PlusOneDietary = nil
		g.PlusOneRSVP = nil
		return g
	}
	mirror := g.RSVPStatus
	g.PlusOneRSVP = &mirror
	return g
}
