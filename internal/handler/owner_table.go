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

// TableHandler bundles dependencies for the reception-table endpoints.
type TableHandler struct {
	Tables *repository.TableRepo
	Guests *repository.GuestRepo
	Roster *cache.Roster
}

func NewTableHandler(t *repository.TableRepo, g *repository.GuestRepo, roster *cache.Roster) *TableHandler {
	return &TableHandler{Tables: t, Guests: g, Roster: roster}
}

type tableReq struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (req tableReq) validate() (string, bool) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "name is required", false
	}
	if req.Capacity < 1 {
		return "capacity must be at least 1", false
	}
	return "", true
}

// List returns the couple's tables with occupied seat counts, served
// from the roster cache when warm.
func (h *TableHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if payload, ok := h.Roster.GetTables(ctx, uid); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}
	tables, err := h.Tables.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tables failed"})
	}
	if tables == nil {
		tables = []repository.TableWithOccupancy{}
	}
	resp := echo.Map{"tables": tables}
	if payload, err := jsonBytes(resp); err == nil {
		h.Roster.SetTables(ctx, uid, payload)
	}
	return c.JSON(http.StatusOK, resp)
}

// Create adds a table.
func (h *TableHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	t := model.Table{UserID: uid, Name: strings.TrimSpace(req.Name), Capacity: req.Capacity}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Tables.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create table failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusCreated, t)
}

// Update edits a table's name and capacity. Shrinking the capacity
// below the current occupancy is allowed; the roster simply shows the
// table over capacity until the couple moves someone.
func (h *TableHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	t, err := h.Tables.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load table failed"})
	}
	t.Name = strings.TrimSpace(req.Name)
	t.Capacity = req.Capacity
	if err := h.Tables.Update(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update table failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusOK, t)
}

// Delete removes a table after unseating its guests one by one. The
// cascade is a sequence of independent updates; a failure partway
// leaves the already-unseated guests unseated, which the next delete
// attempt picks up where it left off.
func (h *TableHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if _, err := h.Tables.GetByIDAndOwner(ctx, id, uid); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load table failed"})
	}
	seated, err := h.Guests.ListByTable(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list seated guests failed"})
	}
	for _, g := range seated {
		if err := h.Guests.Assign(ctx, g.ID, uid, nil); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unassign guest failed"})
		}
	}
	if err := h.Tables.Delete(ctx, id, uid); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete table failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}

type assignReq struct {
	GuestID uint64 `json:"guest_id"`
}

// AssignGuest seats a confirmed guest (and companion) at the table if
// the remaining capacity allows it.
func (h *TableHandler) AssignGuest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tableID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil || req.GuestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	t, err := h.Tables.GetByIDAndOwner(ctx, tableID, uid)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load table failed"})
	}
	g, err := h.Guests.GetByIDAndOwner(ctx, req.GuestID, uid)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load guest failed"})
	}
	occupied, err := h.Tables.OccupiedSeats(ctx, tableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "occupancy query failed"})
	}
	if err := model.CheckAssignment(t, g, occupied); err != nil {
		switch err {
		case model.ErrGuestNotConfirmed:
			return c.JSON(http.StatusConflict, echo.Map{"error": "only confirmed guests can be seated"})
		case model.ErrTableFull:
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is full"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assignment check failed"})
	}
	if err := h.Guests.Assign(ctx, g.ID, uid, &tableID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign guest failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"guest_id": g.ID, "table_id": tableID})
}

// UnassignGuest removes a guest from their table. Always allowed, even
// for guests who are no longer confirmed.
func (h *TableHandler) UnassignGuest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	guestID, err := paramID(c, "guestId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Guests.Assign(ctx, guestID, uid, nil); err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unassign guest failed"})
	}
	h.Roster.Invalidate(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"guest_id": guestID, "table_id": nil})
}
