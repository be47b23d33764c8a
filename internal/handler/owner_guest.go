package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/invitame/wedding-invitation-service/internal/cache"
	"github.com/invitame/wedding-invitation-service/internal/config"
	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/queue"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// GuestHandler bundles dependencies for the guest roster endpoints.
type GuestHandler struct {
	Cfg    config.Config
	Guests *repository.GuestRepo
	Roster *cache.Roster
}

func NewGuestHandler(cfg config.Config, g *repository.GuestRepo, roster *cache.Roster) *GuestHandler {
	return &GuestHandler{Cfg: cfg, Guests: g, Roster: roster}
}

type guestReq struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	RSVPStatus     string  `json:"rsvp_status"`
	Dietary        string  `json:"dietary_restrictions"`
	HasPlusOne     bool    `json:"has_plus_one"`
	PlusOneName    *string `json:"plus_one_name"`
	PlusOneDietary *string `json:"plus_one_dietary_restrictions"`
}

// apply copies the request onto a guest and reshapes the dependent
// plus-one fields. The companion status is never taken from the body:
// it is derived from the guest's own status.
func (req guestReq) apply(g model.Guest) (model.Guest, error) {
	g.Name = strings.TrimSpace(req.Name)
	if g.Name == "" {
		return model.Guest{}, fmt.Errorf("name is required")
	}
	status := model.RSVPStatus(req.RSVPStatus)
	if req.RSVPStatus == "" {
		status = model.RSVPPending
	}
	if !status.Valid() {
		return model.Guest{}, fmt.Errorf("invalid rsvp_status %q", req.RSVPStatus)
	}
	g.Email = strings.TrimSpace(req.Email)
	g.Phone = strings.TrimSpace(req.Phone)
	g.RSVPStatus = status
	g.Dietary = req.Dietary
	g.HasPlusOne = req.HasPlusOne
	g.PlusOneName = req.PlusOneName
	g.PlusOneDietary = req.PlusOneDietary
	return model.DeriveGuestFields(g), nil
}

// List returns the couple's guests. The listing is served from the
// roster cache when warm.
func (h *GuestHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if payload, ok := h.Roster.GetGuests(ctx, uid); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}
	guests, err := h.Guests.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list guests failed"})
	}
	if guests == nil {
		guests = []model.Guest{}
	}
	resp := echo.Map{"guests": guests}
	if payload, err := jsonBytes(resp); err == nil {
		h.Roster.SetGuests(ctx, uid, payload)
	}
	return c.JSON(http.StatusOK, resp)
}

// Create adds a guest with a fresh invitation token.
func (h *GuestHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	g, err := req.apply(model.Guest{UserID: uid})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	g.InvitationToken = uuid.NewString()

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Guests.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create guest failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusCreated, g)
}

// Update edits a guest. Table assignment is not editable here; the
// table endpoints own it so the capacity check cannot be bypassed.
func (h *GuestHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	g, err := h.Guests.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load guest failed"})
	}
	g, err = req.apply(g)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	// a guest who is no longer confirmed loses their seat
	if g.RSVPStatus != model.RSVPConfirmed {
		g.TableID = nil
	}
	if err := h.Guests.Update(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update guest failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusOK, g)
}

// Delete removes a guest.
func (h *GuestHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Guests.DeleteByIDAndOwner(ctx, id, uid); err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete guest failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}

// Invite queues the guest's invitation email carrying the personal RSVP
// link. Delivery happens asynchronously through the email worker.
func (h *GuestHandler) Invite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	g, err := h.Guests.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load guest failed"})
	}
	if strings.TrimSpace(g.Email) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "guest has no email"})
	}

	link := strings.TrimRight(h.Cfg.PublicBaseURL, "/") + "/rsvp/" + g.InvitationToken
	event := queue.EmailQueuedEvent{
		Kind:     queue.EmailKindInvitation,
		UserID:   uid,
		GuestID:  g.ID,
		To:       g.Email,
		Subject:  "Estás invitado a nuestra boda",
		Body:     fmt.Sprintf("Hola %s, confirma tu asistencia aquí: %s", g.Name, link),
		QueuedAt: nowRFC3339(),
	}
	if err := queue.PublishEmail(ctx, event); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "queue invitation failed"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"queued": true, "guest_id": g.ID})
}
