package router

import (
	"github.com/labstack/echo/v4"

	"github.com/invitame/wedding-invitation-service/internal/handler"
	"github.com/invitame/wedding-invitation-service/internal/middleware"
)

// OwnerHandlers groups everything the couple's dashboard talks to.
type OwnerHandlers struct {
	Guests   *handler.GuestHandler
	Tables   *handler.TableHandler
	Landing  *handler.LandingHandler
	Publish  *handler.PublishHandler
	Reminder *handler.ReminderHandler
	WishList *handler.WishListHandler
	Account  *handler.AccountHandler
}

// RegisterOwner registers the couple-scoped endpoints under /v1. Every
// route requires a valid JWT; the handlers scope all queries by the
// token's user id.
func RegisterOwner(e *echo.Echo, h OwnerHandlers, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Guests ----
	g.GET("/guests", h.Guests.List)
	g.POST("/guests", h.Guests.Create)
	g.PUT("/guests/:id", h.Guests.Update)
	g.DELETE("/guests/:id", h.Guests.Delete)
	g.POST("/guests/:id/invite", h.Guests.Invite)

	// ---- Tables ----
	g.GET("/tables", h.Tables.List)
	g.POST("/tables", h.Tables.Create)
	g.PUT("/tables/:id", h.Tables.Update)
	g.DELETE("/tables/:id", h.Tables.Delete)
	g.POST("/tables/:id/guests", h.Tables.AssignGuest)
	g.DELETE("/tables/guests/:guestId", h.Tables.UnassignGuest)

	// ---- Landing page ----
	g.GET("/landing", h.Landing.Get)
	g.PUT("/landing", h.Landing.Save)
	g.POST("/landing/media", h.Landing.UploadMedia)
	g.DELETE("/landing/media", h.Landing.DeleteMedia)

	// ---- Publication ----
	g.POST("/publish/checkout", h.Publish.Checkout)
	g.GET("/publish/status", h.Publish.Status)
	g.POST("/publish/check", h.Publish.Recheck)

	// ---- Reminders ----
	g.POST("/reminders", h.Reminder.Send)

	// ---- Wish list & withdrawals ----
	g.GET("/wishlist", h.WishList.List)
	g.PUT("/wishlist", h.WishList.Save)
	g.GET("/withdrawals", h.WishList.ListWithdrawals)
	g.POST("/withdrawals", h.WishList.Withdraw)

	// ---- Account ----
	g.PUT("/profile", h.Account.UpdateProfile)
	g.DELETE("/account", h.Account.DeleteAccount)
}
