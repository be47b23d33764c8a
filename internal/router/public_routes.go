package router

import (
	"github.com/labstack/echo/v4"

	"github.com/invitame/wedding-invitation-service/internal/handler"
)

// PublicMiddleware carries the middleware applied to visitor-facing
// routes: a Redis response cache for the read endpoints and a token
// bucket rate limit for everything.
type PublicMiddleware struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterPublic registers the unauthenticated microsite endpoints.
// These are the routes wedding guests hit, so they carry the rate
// limiter; the two read endpoints additionally sit behind the response
// cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, r *handler.RSVPHandler,
	w *handler.WebhookHandler, mw PublicMiddleware) {
	g := e.Group("", mw.RateLimit)

	g.GET("/invitacion/:slug", p.Invitation, mw.Cache)
	g.GET("/ejemplos/:template", p.Example, mw.Cache)
	g.POST("/invitacion/:slug/gifts/:id/checkout", p.GiftCheckout)
	g.POST("/contact", p.Contact)

	g.GET("/rsvp/:token", r.Get)
	g.POST("/rsvp/:token", r.Submit)

	// provider notifications are authenticated by shared secret, not JWT
	e.POST("/webhooks/payments", w.Receive)
}
