package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

func strPtr(s string) *string { return &s }

func TestGuestReqApplyShapesCompanion(t *testing.T) {
	req := guestReq{
		Name:        "Ana Rojas",
		RSVPStatus:  "confirmed",
		HasPlusOne:  true,
		PlusOneName: strPtr("Luis"),
	}
	g, err := req.apply(model.Guest{UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, model.RSVPConfirmed, g.RSVPStatus)
	require.NotNil(t, g.PlusOneRSVP)
	assert.Equal(t, model.RSVPConfirmed, *g.PlusOneRSVP)

	// dropping the plus-one clears the companion fields
	req.HasPlusOne = false
	g, err = req.apply(g)
	require.NoError(t, err)
	assert.Nil(t, g.PlusOneName)
	assert.Nil(t, g.PlusOneDietary)
	require.NotNil(t, g.PlusOneRSVP)
	assert.Equal(t, model.RSVPPending, *g.PlusOneRSVP)
}

func TestGuestReqApplyDeclinedDropsCompanion(t *testing.T) {
	req := guestReq{
		Name:        "Pedro Soto",
		RSVPStatus:  "declined",
		HasPlusOne:  true,
		PlusOneName: strPtr("Carla"),
	}
	g, err := req.apply(model.Guest{})
	require.NoError(t, err)
	assert.True(t, g.HasPlusOne)
	assert.Nil(t, g.PlusOneName)
	assert.Nil(t, g.PlusOneDietary)
	assert.Nil(t, g.PlusOneRSVP)
}

func TestGuestReqApplyValidation(t *testing.T) {
	_, err := guestReq{Name: "  "}.apply(model.Guest{})
	assert.Error(t, err)

	_, err = guestReq{Name: "Ana", RSVPStatus: "maybe"}.apply(model.Guest{})
	assert.Error(t, err)

	// empty status defaults to pending
	g, err := guestReq{Name: "Ana"}.apply(model.Guest{})
	require.NoError(t, err)
	assert.Equal(t, model.RSVPPending, g.RSVPStatus)
}

func TestGiftReference(t *testing.T) {
	id, ok := giftReference("gift:42")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, ref := range []string{"", "gift:", "gift:0", "gift:abc", "publication:42"} {
		_, ok := giftReference(ref)
		assert.False(t, ok, ref)
	}
}

func TestStorageKeyFromURL(t *testing.T) {
	url := "https://cdn.example.com/bucket/7/image/abc123.jpg"
	assert.Equal(t, "7/image/abc123.jpg", storageKeyFromURL(url, 7, "image"))
	assert.Equal(t, "", storageKeyFromURL(url, 7, "audio"))
	assert.Equal(t, "", storageKeyFromURL("", 7, "image"))
}
