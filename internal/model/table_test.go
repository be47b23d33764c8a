package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopspring/decimal"
)

func uptr(v uint64) *uint64 { return &v }

func TestCheckAssignment_RejectsUnconfirmed(t *testing.T) {
	table := Table{ID: 1, Capacity: 8}
	for _, status := range []RSVPStatus{RSVPPending, RSVPDeclined} {
		g := Guest{RSVPStatus: status}
		assert.ErrorIs(t, CheckAssignment(table, g, 0), ErrGuestNotConfirmed)
	}
}

func TestCheckAssignment_Capacity(t *testing.T) {
	table := Table{ID: 1, Capacity: 4}

	// 3 of 4 seats taken, single guest fits
	g := Guest{RSVPStatus: RSVPConfirmed}
	assert.NoError(t, CheckAssignment(table, g, 3))

	// 3 of 4 seats taken, guest with companion needs 2
	g.HasPlusOne = true
	assert.ErrorIs(t, CheckAssignment(table, g, 3), ErrTableFull)

	// exactly filling the table is allowed
	assert.NoError(t, CheckAssignment(table, g, 2))
}

func TestCheckAssignment_SelfExempt(t *testing.T) {
	table := Table{ID: 7, Capacity: 2}
	// guest with companion already occupies both seats of its own table;
	// re-confirming the same table must not be blocked
	g := Guest{RSVPStatus: RSVPConfirmed, HasPlusOne: true, TableID: uptr(7)}
	assert.NoError(t, CheckAssignment(table, g, 2))

	// but moving to a different full table is
	g.TableID = uptr(3)
	assert.ErrorIs(t, CheckAssignment(table, g, 2), ErrTableFull)
}

func TestAvailableBalance(t *testing.T) {
	paid := decimal.NewFromInt(100000)
	withdrawn := decimal.NewFromInt(50000)
	// floor(100000*0.94) - 50000 = 44000
	assert.True(t, AvailableBalance(paid, withdrawn).Equal(decimal.NewFromInt(44000)))

	// never negative
	assert.True(t, AvailableBalance(decimal.NewFromInt(10), decimal.NewFromInt(100)).IsZero())

	// fee is floored, not rounded: 99 * 0.94 = 93.06 -> 93
	assert.True(t, AvailableBalance(decimal.NewFromInt(99), decimal.Zero).Equal(decimal.NewFromInt(93)))
}
