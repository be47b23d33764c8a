package repository // repository defines data access for reception tables

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// ErrTableNotFound is returned when a table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// TableRepo provides methods to work with reception tables.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// TableWithOccupancy carries a table together with its derived seat
// occupancy for roster views.
type TableWithOccupancy struct {
	model.Table
	Occupied int `json:"occupied_seats"`
}

// Create inserts a table record. On success the table's ID is populated.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (user_id, name, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.UserID, t.Name, t.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByIDAndOwner retrieves a table by id scoped to its owning couple.
func (r *TableRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Table, error) {
	const q = `SELECT id, user_id, name, capacity, created_at, updated_at
	           FROM tables WHERE id = ? AND user_id = ? LIMIT 1`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, id, ownerID).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Table{}, ErrTableNotFound
	}
	return t, err
}

// ListByOwner returns all tables of a couple with their occupied seat
// counts. Occupancy counts confirmed guests only: one seat per guest
// plus one per companion.
func (r *TableRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]TableWithOccupancy, error) {
	const q = `SELECT t.id, t.user_id, t.name, t.capacity, t.created_at, t.updated_at,
	           COALESCE(SUM(CASE WHEN g.rsvp_status = 'confirmed' THEN 1 + g.has_plus_one ELSE 0 END), 0)
	           FROM tables t
	           LEFT JOIN guests g ON g.table_id = t.id
	           WHERE t.user_id = ?
	           GROUP BY t.id
	           ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TableWithOccupancy
	for rows.Next() {
		var t TableWithOccupancy
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Capacity, &t.CreatedAt, &t.UpdatedAt, &t.Occupied); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OccupiedSeats returns the number of seats taken at a table by
// confirmed guests and their companions.
func (r *TableRepo) OccupiedSeats(ctx context.Context, tableID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(1 + has_plus_one), 0) FROM guests
	           WHERE table_id = ? AND rsvp_status = 'confirmed'`
	var n int
	err := r.db.QueryRowContext(ctx, q, tableID).Scan(&n)
	return n, err
}

// Update persists name and capacity scoped by owner.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE tables SET name = ?, capacity = ? WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.ID, t.UserID)
	return err
}

// Delete removes the table row itself. Unassigning the guests seated at
// it happens first, as a sequence of per-guest updates driven by the
// handler; there is deliberately no transaction around the cascade.
func (r *TableRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// PurgeOwner removes every table of a couple. Used by account deletion;
// guests go first, so no table_id references remain.
func (r *TableRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE user_id = ?`, ownerID)
	return err
}
