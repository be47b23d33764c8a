package repository // repository defines data access for the gift wish-list

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// ErrWishItemNotFound is returned when a wish-list item lookup yields no rows.
var ErrWishItemNotFound = errors.New("wish list item not found")

// WishListRepo provides methods to work with wish-list items.
type WishListRepo struct {
	db *sql.DB
}

// NewWishListRepo constructs a WishListRepo with the given DB handle.
func NewWishListRepo(db *sql.DB) *WishListRepo {
	return &WishListRepo{db: db}
}

const wishColumns = `id, user_id, name, price, icon, paid, payment_status, created_at, updated_at`

func scanWishItem(rs rowScanner) (model.WishListItem, error) {
	var (
		w     model.WishListItem
		price decimal.NullDecimal
	)
	err := rs.Scan(&w.ID, &w.UserID, &w.Name, &price, &w.Icon, &w.Paid, &w.PaymentStatus,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return model.WishListItem{}, err
	}
	if price.Valid {
		p := price.Decimal
		w.Price = &p
	}
	return w, nil
}

func priceArg(p *decimal.Decimal) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// ListByOwner returns the couple's wish-list ordered by insertion.
func (r *WishListRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.WishListItem, error) {
	q := `SELECT ` + wishColumns + ` FROM wish_list_items WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WishListItem
	for rows.Next() {
		w, err := scanWishItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetByID retrieves a single wish-list item without owner scoping. Used
// by the payment webhook, which has no session.
func (r *WishListRepo) GetByID(ctx context.Context, id uint64) (model.WishListItem, error) {
	q := `SELECT ` + wishColumns + ` FROM wish_list_items WHERE id = ? LIMIT 1`
	w, err := scanWishItem(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.WishListItem{}, ErrWishItemNotFound
	}
	return w, err
}

// SaveAll reconciles the couple's persisted wish-list with the submitted
// one, keeping row identity stable: items carrying a known id are
// updated in place, the rest are inserted, and persisted items missing
// from the submission are deleted. Saving an unchanged list twice
// therefore reuses the same rows instead of duplicating them. Paid
// state is owned by the payment webhook and never written here.
func (r *WishListRepo) SaveAll(ctx context.Context, ownerID uint64, items []model.WishListItem) error {
	existing, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	current := make(map[uint64]bool, len(existing))
	for _, ex := range existing {
		current[ex.ID] = true
	}
	keep := make(map[uint64]bool, len(items))
	for i := range items {
		it := &items[i]
		if it.ID != 0 && current[it.ID] {
			keep[it.ID] = true
			const q = `UPDATE wish_list_items SET name = ?, price = ?, icon = ?
			           WHERE id = ? AND user_id = ?`
			if _, err := r.db.ExecContext(ctx, q, it.Name, priceArg(it.Price), it.Icon, it.ID, ownerID); err != nil {
				return err
			}
			continue
		}
		// Items without an id are new. An id matching no row of the owner
		// (a stale tab, the row deleted elsewhere) takes the same path, so
		// the edit reappears as a fresh row instead of silently vanishing.
		const q = `INSERT INTO wish_list_items (user_id, name, price, icon, paid, payment_status)
		           VALUES (?, ?, ?, ?, FALSE, '')`
		res, err := r.db.ExecContext(ctx, q, ownerID, it.Name, priceArg(it.Price), it.Icon)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		it.ID = uint64(id)
		keep[it.ID] = true
	}
	for _, ex := range existing {
		if !keep[ex.ID] {
			if _, err := r.db.ExecContext(ctx,
				`DELETE FROM wish_list_items WHERE id = ? AND user_id = ?`, ex.ID, ownerID); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkPaid records the provider's verdict for a gift contribution.
func (r *WishListRepo) MarkPaid(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE wish_list_items SET paid = ?, payment_status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status == model.PaymentApproved, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, gErr := r.GetByID(ctx, id); gErr != nil {
			return gErr
		}
	}
	return nil
}

// TotalsByOwner returns the wish-list grand total and the total of paid
// gifts. Unpriced items contribute nothing to either sum.
func (r *WishListRepo) TotalsByOwner(ctx context.Context, ownerID uint64) (total, paid decimal.Decimal, err error) {
	const q = `SELECT COALESCE(SUM(price), 0),
	           COALESCE(SUM(CASE WHEN paid THEN price ELSE 0 END), 0)
	           FROM wish_list_items WHERE user_id = ?`
	err = r.db.QueryRowContext(ctx, q, ownerID).Scan(&total, &paid)
	return total, paid, err
}

// PurgeOwner removes the couple's wish-list. Used by account deletion.
func (r *WishListRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wish_list_items WHERE user_id = ?`, ownerID)
	return err
}
