package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/invitame/wedding-invitation-service/internal/config"
	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/payment"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// WebhookHandler receives payment notifications from the checkout
// provider. Notifications carry only identifiers; the verdict itself is
// re-read from the provider so a forged body cannot mark anything paid.
type WebhookHandler struct {
	Cfg      config.PaymentConfig
	Payments *repository.PaymentRepo
	Wishes   *repository.WishListRepo
	Provider *payment.Client
	Log      zerolog.Logger
}

func NewWebhookHandler(cfg config.PaymentConfig, p *repository.PaymentRepo,
	w *repository.WishListRepo, provider *payment.Client, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{Cfg: cfg, Payments: p, Wishes: w, Provider: provider, Log: log}
}

type webhookReq struct {
	PreferenceID      string `json:"preference_id"`
	ExternalReference string `json:"external_reference"`
}

// Receive handles one provider notification. The shared secret header
// gates the endpoint; duplicate notifications are harmless because the
// handler only writes the status it just read back.
func (h *WebhookHandler) Receive(c echo.Context) error {
	secret := c.Request().Header.Get("X-Webhook-Secret")
	if h.Cfg.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.Cfg.WebhookSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Provider == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
	}
	var req webhookReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.PreferenceID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "preference_id required"})
	}

	status, err := h.Provider.Status(c.Request().Context(), req.PreferenceID)
	if err != nil {
		h.Log.Warn().Err(err).Str("preference_id", req.PreferenceID).Msg("webhook status lookup failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "status lookup failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Payments.UpdateStatusByPreference(ctx, req.PreferenceID, status); err != nil {
		if err == repository.ErrPaymentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown preference"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record status failed"})
	}

	// gift payments flip the wish-list item once the verdict is terminal
	if itemID, ok := giftReference(req.ExternalReference); ok && model.TerminalPaymentStatus(status) {
		if err := h.Wishes.MarkPaid(ctx, itemID, status); err != nil {
			h.Log.Warn().Err(err).Uint64("item_id", itemID).Msg("mark gift paid failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

// giftReference parses an external reference of the form gift:<id>.
func giftReference(ref string) (uint64, bool) {
	const prefix = "gift:"
	if !strings.HasPrefix(ref, prefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(ref, prefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
