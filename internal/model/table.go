package model

import (
	"errors"
	"time"
)

// Table is a reception table with a fixed number of seats.
type Table struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"-"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrGuestNotConfirmed is returned when a guest without a confirmed
// RSVP is being placed at a table.
var ErrGuestNotConfirmed = errors.New("guest is not confirmed")

// ErrTableFull is returned when an assignment would exceed the table's
// capacity.
var ErrTableFull = errors.New("table is full")

// CheckAssignment decides whether guest g may be seated at table t,
// given the seats currently occupied at t. Occupied seats are counted
// over confirmed guests already assigned to the table, one seat each
// plus one for a companion; declined or pending guests hold no seats.
//
// Only confirmed guests are eligible. A guest already assigned to this
// exact table is exempt from the capacity check: its own seats are part
// of the occupied count and re-confirming the same table must not be
// blocked by them.
func CheckAssignment(t Table, g Guest, occupied int) error {
	if g.RSVPStatus != RSVPConfirmed {
		return ErrGuestNotConfirmed
	}
	if g.TableID != nil && *g.TableID == t.ID {
		return nil
	}
	if occupied+g.SeatsRequired() > t.Capacity {
		return ErrTableFull
	}
	return nil
}
