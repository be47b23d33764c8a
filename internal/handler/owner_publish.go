package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/invitame/wedding-invitation-service/internal/config"
	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/payment"
	"github.com/invitame/wedding-invitation-service/internal/publish"
	"github.com/invitame/wedding-invitation-service/internal/repository"
	"github.com/invitame/wedding-invitation-service/internal/utils"
)

// PublishHandler drives the publication checkout: it opens a checkout
// preference with the provider, records the payment, and hands the
// status poll to a per-couple watcher. The watcher's check function
// owns the side effect of actually publishing the page once the
// payment is approved.
type PublishHandler struct {
	Cfg      config.Config
	Payments *repository.PaymentRepo
	Landing  *repository.LandingRepo
	Users    *repository.UserRepo
	Provider *payment.Client
	Watchers *publish.Registry
	Log      zerolog.Logger

	baseCtx context.Context // outlives requests; watcher loops run on it
}

func NewPublishHandler(baseCtx context.Context, cfg config.Config, p *repository.PaymentRepo,
	l *repository.LandingRepo, u *repository.UserRepo, provider *payment.Client,
	watchers *publish.Registry, log zerolog.Logger) *PublishHandler {
	return &PublishHandler{
		Cfg: cfg, Payments: p, Landing: l, Users: u,
		Provider: provider, Watchers: watchers, Log: log, baseCtx: baseCtx,
	}
}

// Checkout opens a publication checkout session and starts the status
// watcher. The response carries the provider URL the couple pays at.
func (h *PublishHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Provider == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	l, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil {
		if err == repository.ErrLandingNotFound {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "save a landing page before publishing"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}
	if l.Published() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "landing page is already published"})
	}
	paid, err := h.Payments.HasApproved(ctx, uid, model.PaymentTypePublication)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment lookup failed"})
	}
	if paid {
		// the page just has not been stamped live yet; a re-check will do it
		return c.JSON(http.StatusConflict, echo.Map{"error": "publication already paid"})
	}

	price, err := decimal.NewFromString(h.Cfg.Payment.PublishPrice)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid publish price configured"})
	}
	pref, err := h.Provider.CreatePreference(c.Request().Context(), payment.CreatePreferenceRequest{
		Title:             "Publicación de invitación digital",
		Amount:            price,
		Currency:          h.Cfg.Payment.Currency,
		ExternalReference: fmt.Sprintf("publication:%d", uid),
	})
	if err != nil {
		if err == payment.ErrTimeout {
			return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "payment provider timed out"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "create checkout failed"})
	}

	p := model.Payment{
		UserID:       uid,
		Type:         model.PaymentTypePublication,
		Status:       model.PaymentPending,
		PreferenceID: pref.ID,
	}
	if err := h.Payments.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}

	w := publish.NewWatcher(h.checkFunc(uid, pref.ID), h.Log.With().Uint64("user_id", uid).Logger())
	h.Watchers.Set(uid, w)
	w.Start(h.baseCtx)

	return c.JSON(http.StatusCreated, echo.Map{
		"preference_id": pref.ID,
		"init_point":    pref.InitPoint,
		"state":         w.State(),
	})
}

// Status reports the watcher state. Reading the status also kicks the
// running loop so a couple returning from the payment window sees a
// fresh verdict without waiting for the next tick.
func (h *PublishHandler) Status(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	w := h.Watchers.Get(uid)
	if w == nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
		defer cancel()
		l, err := h.Landing.GetByOwner(ctx, uid)
		if err == nil && l.Published() {
			return c.JSON(http.StatusOK, echo.Map{"state": publish.StateSuccess, "slug": l.Slug})
		}
		return c.JSON(http.StatusOK, echo.Map{"state": publish.StateIdle})
	}
	w.Kick()
	return c.JSON(http.StatusOK, echo.Map{"state": w.State(), "attempts": w.Attempts()})
}

// Recheck handles the couple's "I already paid" action: one immediate
// check, resetting the attempt counter when the watcher had given up.
func (h *PublishHandler) Recheck(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	w := h.Watchers.Get(uid)
	if w == nil {
		// server restarted since checkout; rebuild from the payment row
		ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
		defer cancel()
		p, err := h.Payments.LatestByOwnerAndType(ctx, uid, model.PaymentTypePublication)
		if err != nil {
			if err == repository.ErrPaymentNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "no publication checkout in flight"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
		}
		if h.Provider == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
		}
		w = publish.NewWatcher(h.checkFunc(uid, p.PreferenceID), h.Log.With().Uint64("user_id", uid).Logger())
		h.Watchers.Set(uid, w)
	}
	state := w.Recheck(h.baseCtx)
	return c.JSON(http.StatusOK, echo.Map{"state": state, "attempts": w.Attempts()})
}

// checkFunc builds the watcher's status check for one checkout. Each
// call asks the provider for the payment's verdict, mirrors it onto the
// payment row, and publishes the page the first time the verdict reads
// approved.
func (h *PublishHandler) checkFunc(uid uint64, preferenceID string) publish.CheckFunc {
	return func(ctx context.Context) (publish.CheckResult, error) {
		status, err := h.Provider.Status(ctx, preferenceID)
		if err != nil {
			return publish.CheckResult{}, err
		}
		dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
		defer cancel()
		if err := h.Payments.UpdateStatusByPreference(dbCtx, preferenceID, status); err != nil {
			h.Log.Warn().Err(err).Str("preference_id", preferenceID).Msg("payment status write failed")
		}

		l, err := h.Landing.GetByOwner(dbCtx, uid)
		if err != nil {
			return publish.CheckResult{}, err
		}
		if status == model.PaymentApproved && !l.Published() {
			if err := h.publishPage(dbCtx, uid, l); err != nil {
				if err != repository.ErrAlreadyPublished {
					return publish.CheckResult{PaymentStatus: status}, err
				}
			}
			l, err = h.Landing.GetByOwner(dbCtx, uid)
			if err != nil {
				return publish.CheckResult{}, err
			}
		}
		return publish.CheckResult{PaymentStatus: status, Published: l.Published()}, nil
	}
}

// publishPage derives a slug from the couple's names and stamps the
// page live. Slug collisions get a numeric suffix; after a handful of
// tries the last error comes back.
func (h *PublishHandler) publishPage(ctx context.Context, uid uint64, l model.LandingPage) error {
	groom, bride := l.GroomName, l.BrideName
	if groom == "" && bride == "" {
		if u, err := h.Users.GetByID(ctx, uid); err == nil {
			groom, bride = u.GroomName, u.BrideName
		}
	}
	base := utils.DeriveSlug(groom, bride)
	var err error
	for i := 0; i < 5; i++ {
		slug := base
		if i > 0 {
			slug = fmt.Sprintf("%s-%d", base, i+1)
		}
		err = h.Landing.Publish(ctx, uid, slug)
		if err != repository.ErrSlugTaken {
			return err
		}
	}
	return err
}
