package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/invitame/wedding-invitation-service/internal/cache"
	"github.com/invitame/wedding-invitation-service/internal/repository"
	"github.com/invitame/wedding-invitation-service/internal/storage"
)

// AccountHandler owns the couple's profile and account deletion.
// Deletion purges every owned table in dependency order, then the media
// objects, then the account row itself.
type AccountHandler struct {
	Users       *repository.UserRepo
	Tokens      *repository.TokenRepo
	Guests      *repository.GuestRepo
	Tables      *repository.TableRepo
	Landing     *repository.LandingRepo
	Wishes      *repository.WishListRepo
	Withdrawals *repository.WithdrawalRepo
	Payments    *repository.PaymentRepo
	Media       storage.MediaStore
	Roster      *cache.Roster
	Log         zerolog.Logger
}

type profileReq struct {
	GroomName    string `json:"groom_name"`
	BrideName    string `json:"bride_name"`
	Country      string `json:"country"`
	Language     string `json:"language"`
	ProfileImage string `json:"profile_image"`
}

// UpdateProfile saves the couple's display profile.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	u.GroomName = strings.TrimSpace(req.GroomName)
	u.BrideName = strings.TrimSpace(req.BrideName)
	u.Country = strings.TrimSpace(req.Country)
	u.Language = strings.TrimSpace(req.Language)
	u.ProfileImage = strings.TrimSpace(req.ProfileImage)
	if err := h.Users.UpdateProfile(ctx, &u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteAccount removes everything the couple owns. The purges run in
// dependency order so no orphaned references survive; media removal is
// best effort and only logged when it fails.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 6*dbTimeout)
	defer cancel()

	// guests reference tables, so they go first
	purges := []struct {
		name string
		fn   func(context.Context, uint64) error
	}{
		{"guests", h.Guests.PurgeOwner},
		{"tables", h.Tables.PurgeOwner},
		{"landing", h.Landing.PurgeOwner},
		{"wish list", h.Wishes.PurgeOwner},
		{"withdrawals", h.Withdrawals.PurgeOwner},
		{"payments", h.Payments.PurgeOwner},
		{"refresh tokens", h.Tokens.PurgeOwner},
	}
	for _, p := range purges {
		if err := p.fn(ctx, uid); err != nil {
			h.Log.Error().Err(err).Str("step", p.name).Uint64("user_id", uid).Msg("account purge failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete account failed"})
		}
	}

	if h.Media != nil {
		if err := h.Media.RemovePrefix(ctx, fmt.Sprintf("%d/", uid)); err != nil {
			h.Log.Warn().Err(err).Uint64("user_id", uid).Msg("media purge failed")
		}
	}

	if err := h.Users.DeleteByID(ctx, uid); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete account failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}
