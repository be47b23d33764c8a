package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// WishListHandler bundles dependencies for the gift registry and the
// withdrawal endpoints.
type WishListHandler struct {
	Wishes      *repository.WishListRepo
	Withdrawals *repository.WithdrawalRepo
}

func NewWishListHandler(w *repository.WishListRepo, wd *repository.WithdrawalRepo) *WishListHandler {
	return &WishListHandler{Wishes: w, Withdrawals: wd}
}

// balance computes the couple's withdrawable amount from current rows.
func (h *WishListHandler) balance(ctx context.Context, uid uint64) (total, paid, withdrawn, available decimal.Decimal, err error) {
	total, paid, err = h.Wishes.TotalsByOwner(ctx, uid)
	if err != nil {
		return
	}
	withdrawn, err = h.Withdrawals.SumByOwner(ctx, uid)
	if err != nil {
		return
	}
	available = model.AvailableBalance(paid, withdrawn)
	return
}

// List returns the wish-list with the money summary.
func (h *WishListHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Wishes.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list wish list failed"})
	}
	if items == nil {
		items = []model.WishListItem{}
	}
	total, paid, withdrawn, available, err := h.balance(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "balance query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":             items,
		"total":             total,
		"total_paid":        paid,
		"total_withdrawn":   withdrawn,
		"available_balance": available,
	})
}

type wishItemReq struct {
	ID    uint64           `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Icon  string           `json:"icon"`
}

type saveWishListReq struct {
	Items []wishItemReq `json:"items"`
}

// Save replaces the couple's wish-list with the submitted one. Items
// that keep their id keep their row, so paid state survives edits.
func (h *WishListHandler) Save(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req saveWishListReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	items := make([]model.WishListItem, 0, len(req.Items))
	for _, it := range req.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every item needs a name"})
		}
		if it.Price != nil && it.Price.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price cannot be negative"})
		}
		items = append(items, model.WishListItem{ID: it.ID, UserID: uid, Name: name, Price: it.Price, Icon: it.Icon})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Wishes.SaveAll(ctx, uid, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save wish list failed"})
	}
	saved, err := h.Wishes.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list wish list failed"})
	}
	if saved == nil {
		saved = []model.WishListItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": saved})
}

type withdrawReq struct {
	Amount decimal.Decimal `json:"amount"`
}

// Withdraw requests a payout of collected gift money. The amount must
// fit inside the available balance: floor of paid gifts less the
// platform fee, minus everything already requested.
func (h *WishListHandler) Withdraw(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	_, _, _, available, err := h.balance(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "balance query failed"})
	}
	if req.Amount.GreaterThan(available) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":             "amount exceeds available balance",
			"available_balance": available,
		})
	}
	w := model.Withdrawal{UserID: uid, Amount: req.Amount, Status: model.WithdrawalPending}
	if err := h.Withdrawals.Create(ctx, &w); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create withdrawal failed"})
	}
	return c.JSON(http.StatusCreated, w)
}

// ListWithdrawals returns the couple's payout history, newest first.
func (h *WishListHandler) ListWithdrawals(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Withdrawals.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list withdrawals failed"})
	}
	if list == nil {
		list = []model.Withdrawal{}
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawals": list})
}
