package repository // repository defines data access for guests

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// ErrGuestNotFound is returned when a guest lookup yields no rows.
var ErrGuestNotFound = errors.New("guest not found")

// GuestRepo provides methods to work with guests in the database.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo constructs a GuestRepo with the given DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

const guestColumns = `id, user_id, name, email, phone, rsvp_status, dietary_restrictions,
	has_plus_one, plus_one_name, plus_one_dietary_restrictions, plus_one_rsvp_status,
	table_id, invitation_token, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanGuest.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGuest(rs rowScanner) (model.Guest, error) {
	var (
		g              model.Guest
		plusOneName    sql.NullString
		plusOneDietary sql.NullString
		plusOneRSVP    sql.NullString
		tableID        sql.NullInt64
	)
	err := rs.Scan(&g.ID, &g.UserID, &g.Name, &g.Email, &g.Phone, &g.RSVPStatus, &g.Dietary,
		&g.HasPlusOne, &plusOneName, &plusOneDietary, &plusOneRSVP,
		&tableID, &g.InvitationToken, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.Guest{}, err
	}
	if plusOneName.Valid {
		g.PlusOneName = &plusOneName.String
	}
	if plusOneDietary.Valid {
		g.PlusOneDietary = &plusOneDietary.String
	}
	if plusOneRSVP.Valid {
		s := model.RSVPStatus(plusOneRSVP.String)
		g.PlusOneRSVP = &s
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		g.TableID = &id
	}
	return g, nil
}

// rsvpString converts the nullable companion status for binding.
func rsvpString(s *model.RSVPStatus) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

// Create inserts a guest record. On success the guest's ID is populated.
func (r *GuestRepo) Create(ctx context.Context, g *model.Guest) error {
	const q = `INSERT INTO guests (user_id, name, email, phone, rsvp_status, dietary_restrictions,
	           has_plus_one, plus_one_name, plus_one_dietary_restrictions, plus_one_rsvp_status,
	           table_id, invitation_token)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, g.UserID, g.Name, g.Email, g.Phone, g.RSVPStatus, g.Dietary,
		g.HasPlusOne, g.PlusOneName, g.PlusOneDietary, rsvpString(g.PlusOneRSVP),
		g.TableID, g.InvitationToken)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByIDAndOwner retrieves a guest by id scoped to its owning couple.
func (r *GuestRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE id = ? AND user_id = ? LIMIT 1`
	g, err := scanGuest(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err == sql.ErrNoRows {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// GetByToken retrieves a guest by its invitation token. Used by the
// public RSVP form, which has no session.
func (r *GuestRepo) GetByToken(ctx context.Context, token string) (model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE invitation_token = ? LIMIT 1`
	g, err := scanGuest(r.db.QueryRowContext(ctx, q, token))
	if err == sql.ErrNoRows {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// ListByOwner returns all guests of a couple ordered by name.
func (r *GuestRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE user_id = ? ORDER BY name`
	return r.list(ctx, q, ownerID)
}

// ListByTable returns all guests currently assigned to the given table.
func (r *GuestRepo) ListByTable(ctx context.Context, tableID uint64) ([]model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE table_id = ? ORDER BY name`
	return r.list(ctx, q, tableID)
}

func (r *GuestRepo) list(ctx context.Context, q string, arg interface{}) ([]model.Guest, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update persists every editable field of a guest scoped by owner.
// The invitation token is immutable after creation.
func (r *GuestRepo) Update(ctx context.Context, g *model.Guest) error {
	const q = `UPDATE guests SET name = ?, email = ?, phone = ?, rsvp_status = ?,
	           dietary_restrictions = ?, has_plus_one = ?, plus_one_name = ?,
	           plus_one_dietary_restrictions = ?, plus_one_rsvp_status = ?, table_id = ?
	           WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, q, g.Name, g.Email, g.Phone, g.RSVPStatus,
		g.Dietary, g.HasPlusOne, g.PlusOneName, g.PlusOneDietary, rsvpString(g.PlusOneRSVP),
		g.TableID, g.ID, g.UserID)
	return err
}

// UpdateRSVP persists the attendance fields a guest may change through
// the public RSVP form. Shaping of the companion fields happens in the
// handler before this call.
func (r *GuestRepo) UpdateRSVP(ctx context.Context, g *model.Guest) error {
	const q = `UPDATE guests SET rsvp_status = ?, dietary_restrictions = ?, has_plus_one = ?,
	           plus_one_name = ?, plus_one_dietary_restrictions = ?, plus_one_rsvp_status = ?
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, g.RSVPStatus, g.Dietary, g.HasPlusOne,
		g.PlusOneName, g.PlusOneDietary, rsvpString(g.PlusOneRSVP), g.ID)
	return err
}

// Assign sets (or clears, when tableID is nil) a guest's table.
func (r *GuestRepo) Assign(ctx context.Context, guestID, ownerID uint64, tableID *uint64) error {
	const q = `UPDATE guests SET table_id = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, tableID, guestID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// either the guest does not exist or the value was unchanged;
		// distinguish by existence so callers get a clean 404
		if _, gErr := r.GetByIDAndOwner(ctx, guestID, ownerID); gErr != nil {
			return gErr
		}
	}
	return err
}

// DeleteByIDAndOwner removes a guest owned by the couple.
func (r *GuestRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// PurgeOwner removes every guest of a couple. Used by account deletion.
func (r *GuestRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE user_id = ?`, ownerID)
	return err
}
