package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestDeriveGuestFields_MirrorsPlusOneStatus(t *testing.T) {
	g := Guest{
		Name:        "Ana Pérez",
		RSVPStatus:  RSVPConfirmed,
		HasPlusOne:  true,
		PlusOneName: str("Luis"),
	}
	got := DeriveGuestFields(g)
	require.NotNil(t, got.PlusOneRSVP)
	assert.Equal(t, RSVPConfirmed, *got.PlusOneRSVP)
	assert.Equal(t, str("Luis"), got.PlusOneName)

	g.RSVPStatus = RSVPPending
	got = DeriveGuestFields(g)
	require.NotNil(t, got.PlusOneRSVP)
	assert.Equal(t, RSVPPending, *got.PlusOneRSVP)
}

func TestDeriveGuestFields_TogglePlusOneOffClears(t *testing.T) {
	confirmed := RSVPConfirmed
	g := Guest{
		RSVPStatus:     RSVPConfirmed,
		HasPlusOne:     false,
		PlusOneName:    str("Luis"),
		PlusOneDietary: str("vegetariano"),
		PlusOneRSVP:    &confirmed,
	}
	got := DeriveGuestFields(g)
	assert.Nil(t, got.PlusOneName)
	assert.Nil(t, got.PlusOneDietary)
	require.NotNil(t, got.PlusOneRSVP)
	assert.Equal(t, RSVPPending, *got.PlusOneRSVP)
}

func TestDeriveGuestFields_DeclineClearsCompanion(t *testing.T) {
	g := Guest{
		RSVPStatus:     RSVPDeclined,
		HasPlusOne:     true,
		PlusOneName:    str("Luis"),
		PlusOneDietary: str("sin gluten"),
	}
	got := DeriveGuestFields(g)
	assert.Nil(t, got.PlusOneName)
	assert.Nil(t, got.PlusOneDietary)
	assert.Nil(t, got.PlusOneRSVP)
}

func TestSeatsRequired(t *testing.T) {
	assert.Equal(t, 1, Guest{}.SeatsRequired())
	assert.Equal(t, 2, Guest{HasPlusOne: true}.SeatsRequired())
}
