package repository // repository defines data access for gift withdrawals

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// WithdrawalRepo provides methods to work with withdrawals.
type WithdrawalRepo struct {
	db *sql.DB
}

// NewWithdrawalRepo constructs a WithdrawalRepo with the given DB handle.
func NewWithdrawalRepo(db *sql.DB) *WithdrawalRepo {
	return &WithdrawalRepo{db: db}
}

// Create inserts a withdrawal request. On success the ID is populated.
func (r *WithdrawalRepo) Create(ctx context.Context, w *model.Withdrawal) error {
	const q = `INSERT INTO withdrawals (user_id, amount, status) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, w.UserID, w.Amount, w.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// ListByOwner returns the couple's withdrawals, newest first.
func (r *WithdrawalRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Withdrawal, error) {
	const q = `SELECT id, user_id, amount, status, created_at
	           FROM withdrawals WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Withdrawal
	for rows.Next() {
		var w model.Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SumByOwner returns the total amount across every withdrawal the couple
// has requested, regardless of status. Pending requests reserve balance
// so the same money cannot be withdrawn twice.
func (r *WithdrawalRepo) SumByOwner(ctx context.Context, ownerID uint64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE user_id = ?`, ownerID).Scan(&sum)
	return sum, err
}

// PurgeOwner removes the couple's withdrawals. Used by account deletion.
func (r *WithdrawalRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM withdrawals WHERE user_id = ?`, ownerID)
	return err
}
