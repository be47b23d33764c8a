package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/invitame/wedding-invitation-service/internal/cache"
	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// RSVPHandler serves the guest's personal RSVP form, reached through
// the invitation token, with no session of any kind.
type RSVPHandler struct {
	Guests  *repository.GuestRepo
	Landing *repository.LandingRepo
	Roster  *cache.Roster
}

func NewRSVPHandler(g *repository.GuestRepo, l *repository.LandingRepo, roster *cache.Roster) *RSVPHandler {
	return &RSVPHandler{Guests: g, Landing: l, Roster: roster}
}

// rsvpView is what the form shows the guest: their own data, nothing
// about the rest of the roster.
type rsvpView struct {
	Name           string  `json:"name"`
	RSVPStatus     string  `json:"rsvp_status"`
	Dietary        string  `json:"dietary_restrictions"`
	HasPlusOne     bool    `json:"has_plus_one"`
	PlusOneName    *string `json:"plus_one_name"`
	PlusOneDietary *string `json:"plus_one_dietary_restrictions"`
}

func toRSVPView(g model.Guest) rsvpView {
	return rsvpView{
		Name:           g.Name,
		RSVPStatus:     string(g.RSVPStatus),
		Dietary:        g.Dietary,
		HasPlusOne:     g.HasPlusOne,
		PlusOneName:    g.PlusOneName,
		PlusOneDietary: g.PlusOneDietary,
	}
}

// rsvpEvent is the event summary shown next to the form so the guest
// knows what they are answering about.
type rsvpEvent struct {
	GroomName     string `json:"groom_name"`
	BrideName     string `json:"bride_name"`
	EventDate     string `json:"event_date"`
	CeremonyTime  string `json:"ceremony_time"`
	CeremonyPlace string `json:"ceremony_location"`
	PartyTime     string `json:"party_time"`
	PartyPlace    string `json:"party_location"`
}

// Get returns the guest's current answers for pre-filling the form,
// along with the couple's event summary when a landing page exists.
func (h *RSVPHandler) Get(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	g, err := h.Guests.GetByToken(ctx, token)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invitation failed"})
	}
	resp := echo.Map{"guest": toRSVPView(g)}
	if l, err := h.Landing.GetByOwner(ctx, g.UserID); err == nil {
		resp["event"] = rsvpEvent{
			GroomName:     l.GroomName,
			BrideName:     l.BrideName,
			EventDate:     l.EventDate,
			CeremonyTime:  l.CeremonyTime,
			CeremonyPlace: l.CeremonyPlace,
			PartyTime:     l.PartyTime,
			PartyPlace:    l.PartyPlace,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type rsvpSubmitReq struct {
	RSVPStatus     string  `json:"rsvp_status"`
	Dietary        string  `json:"dietary_restrictions"`
	HasPlusOne     bool    `json:"has_plus_one"`
	PlusOneName    *string `json:"plus_one_name"`
	PlusOneDietary *string `json:"plus_one_dietary_restrictions"`
}

// Submit records the guest's answer. The companion fields pass through
// the same shaping as the owner's roster edits, so a declined guest
// cannot smuggle in companion data.
func (h *RSVPHandler) Submit(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	}
	var req rsvpSubmitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.RSVPStatus(req.RSVPStatus)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rsvp_status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	g, err := h.Guests.GetByToken(ctx, token)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invitation failed"})
	}

	g.RSVPStatus = status
	g.Dietary = req.Dietary
	g.HasPlusOne = req.HasPlusOne
	g.PlusOneName = req.PlusOneName
	g.PlusOneDietary = req.PlusOneDietary
	g = model.DeriveGuestFields(g)

	if err := h.Guests.UpdateRSVP(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save answer failed"})
	}
	// the couple's dashboard should see the change on its next fetch
	h.Roster.Invalidate(ctx, g.UserID)
	return c.JSON(http.StatusOK, toRSVPView(g))
}
