package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/invitame/wedding-invitation-service/internal/queue"
	"github.com/invitame/wedding-invitation-service/internal/reminder"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// ReminderHandler sends templated reminder emails to selected guests.
type ReminderHandler struct {
	Guests  *repository.GuestRepo
	Tables  *repository.TableRepo
	Landing *repository.LandingRepo
	Log     zerolog.Logger
}

func NewReminderHandler(g *repository.GuestRepo, t *repository.TableRepo,
	l *repository.LandingRepo, log zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{Guests: g, Tables: t, Landing: l, Log: log}
}

type reminderReq struct {
	GuestIDs []uint64 `json:"guest_ids"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// Send renders the template once per guest and queues each email
// separately. Failures are counted per guest and never abort the
// batch, so one bounced address does not hold the rest hostage.
func (h *ReminderHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reminderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.GuestIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_ids required"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Recordatorio de nuestra boda"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 6*dbTimeout)
	defer cancel()

	// one landing read feeds every guest's replacements
	landing, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil && err != repository.ErrLandingNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}

	tableNames := map[uint64]string{}
	sent, failed := 0, 0
	for _, gid := range req.GuestIDs {
		g, err := h.Guests.GetByIDAndOwner(ctx, gid, uid)
		if err != nil {
			failed++
			continue
		}
		if strings.TrimSpace(g.Email) == "" {
			failed++
			continue
		}
		tableName := ""
		if g.TableID != nil {
			name, ok := tableNames[*g.TableID]
			if !ok {
				if t, err := h.Tables.GetByIDAndOwner(ctx, *g.TableID, uid); err == nil {
					name = t.Name
				}
				tableNames[*g.TableID] = name
			}
			tableName = name
		}
		repl := reminder.BuildReplacements(g, tableName, landing)
		event := queue.EmailQueuedEvent{
			Kind:     queue.EmailKindReminder,
			UserID:   uid,
			GuestID:  g.ID,
			To:       g.Email,
			Subject:  reminder.Substitute(subject, repl),
			Body:     reminder.Substitute(req.Message, repl),
			QueuedAt: nowRFC3339(),
		}
		if err := queue.PublishEmail(ctx, event); err != nil {
			h.Log.Warn().Err(err).Uint64("guest_id", g.ID).Msg("reminder enqueue failed")
			failed++
			continue
		}
		sent++
	}

	return c.JSON(http.StatusOK, echo.Map{"sent": sent, "failed": failed})
}
