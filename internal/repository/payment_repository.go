package repository // repository defines data access for checkout payments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// ErrPaymentNotFound is returned when a payment lookup yields no rows.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides methods to work with payment records.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

const paymentColumns = `id, user_id, type, status, preference_id, created_at, updated_at`

func scanPayment(rs rowScanner) (model.Payment, error) {
	var p model.Payment
	err := rs.Scan(&p.ID, &p.UserID, &p.Type, &p.Status, &p.PreferenceID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a payment record. On success the ID is populated.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (user_id, type, status, preference_id) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.UserID, p.Type, p.Status, p.PreferenceID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByPreference retrieves the payment row for a checkout session.
func (r *PaymentRepo) GetByPreference(ctx context.Context, preferenceID string) (model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE preference_id = ? LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, preferenceID))
	if err == sql.ErrNoRows {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// LatestByOwnerAndType returns the most recent payment of a given type.
func (r *PaymentRepo) LatestByOwnerAndType(ctx context.Context, ownerID uint64, typ string) (model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments
	      WHERE user_id = ? AND type = ? ORDER BY id DESC LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, ownerID, typ))
	if err == sql.ErrNoRows {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// HasApproved reports whether the couple holds an approved payment of
// the given type. The publish flow gates on this.
func (r *PaymentRepo) HasApproved(ctx context.Context, ownerID uint64, typ string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM payments WHERE user_id = ? AND type = ? AND status = ? LIMIT 1`,
		ownerID, typ, model.PaymentApproved).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// UpdateStatusByPreference stores the provider's latest verdict for a
// checkout session. Status checks are read-only against the provider,
// so replaying the same status is harmless.
func (r *PaymentRepo) UpdateStatusByPreference(ctx context.Context, preferenceID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE preference_id = ?`, status, preferenceID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, gErr := r.GetByPreference(ctx, preferenceID); gErr != nil {
			return gErr
		}
	}
	return nil
}

// PurgeOwner removes the couple's payments. Used by account deletion.
func (r *PaymentRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE user_id = ?`, ownerID)
	return err
}
