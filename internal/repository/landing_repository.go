package repository // repository defines data access for landing pages

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// ErrLandingNotFound is returned when no landing page exists for the
// requested user or slug.
var ErrLandingNotFound = errors.New("landing page not found")

// ErrSlugTaken is returned when publishing under a slug that another
// couple already uses.
var ErrSlugTaken = errors.New("slug already in use")

// ErrAlreadyPublished is returned when a publish is attempted on a page
// that is already live.
var ErrAlreadyPublished = errors.New("landing page already published")

// LandingRepo provides methods to work with landing pages. A couple has
// at most one page; Upsert enforces that through the user_id unique key.
type LandingRepo struct {
	db *sql.DB
}

// NewLandingRepo constructs a LandingRepo with the given DB handle.
func NewLandingRepo(db *sql.DB) *LandingRepo {
	return &LandingRepo{db: db}
}

const landingColumns = `id, user_id, groom_name, bride_name, welcome_message, template,
	event_date, ceremony_time, ceremony_location, ceremony_address,
	party_time, party_location, party_address, cover_image_url, music_url,
	music_enabled, wish_list_enabled, bank_info_enabled, couple_code, couple_code_enabled,
	bank_name, bank_account_type, bank_account_number, bank_holder_id, bank_email,
	slug, published_at, created_at, updated_at`

func scanLanding(rs rowScanner) (model.LandingPage, error) {
	var (
		l    model.LandingPage
		slug sql.NullString
		pub  sql.NullTime
	)
	err := rs.Scan(&l.ID, &l.UserID, &l.GroomName, &l.BrideName, &l.WelcomeMessage, &l.Template,
		&l.EventDate, &l.CeremonyTime, &l.CeremonyPlace, &l.CeremonyAddress,
		&l.PartyTime, &l.PartyPlace, &l.PartyAddress, &l.CoverImageURL, &l.MusicURL,
		&l.MusicEnabled, &l.WishListEnabled, &l.BankInfoEnabled, &l.CoupleCode, &l.CoupleEnabled,
		&l.BankName, &l.BankAccountType, &l.BankAccount, &l.BankHolderID, &l.BankEmail,
		&slug, &pub, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return model.LandingPage{}, err
	}
	if slug.Valid {
		l.Slug = &slug.String
	}
	if pub.Valid {
		t := pub.Time
		l.PublishedAt = &t
	}
	return l, nil
}

// GetByOwner retrieves the couple's landing page.
func (r *LandingRepo) GetByOwner(ctx context.Context, ownerID uint64) (model.LandingPage, error) {
	q := `SELECT ` + landingColumns + ` FROM landing_pages WHERE user_id = ? LIMIT 1`
	l, err := scanLanding(r.db.QueryRowContext(ctx, q, ownerID))
	if err == sql.ErrNoRows {
		return model.LandingPage{}, ErrLandingNotFound
	}
	return l, err
}

// GetBySlug retrieves a published landing page by slug. Unpublished
// pages are never returned here; the public route treats both cases as
// not found.
func (r *LandingRepo) GetBySlug(ctx context.Context, slug string) (model.LandingPage, error) {
	q := `SELECT ` + landingColumns + ` FROM landing_pages
	      WHERE slug = ? AND published_at IS NOT NULL LIMIT 1`
	l, err := scanLanding(r.db.QueryRowContext(ctx, q, slug))
	if err == sql.ErrNoRows {
		return model.LandingPage{}, ErrLandingNotFound
	}
	return l, err
}

// Upsert writes every form-editable field of the page. Slug and
// published_at are owned by the publish flow and never touched here.
func (r *LandingRepo) Upsert(ctx context.Context, l *model.LandingPage) error {
	const q = `INSERT INTO landing_pages (user_id, groom_name, bride_name, welcome_message, template,
	           event_date, ceremony_time, ceremony_location, ceremony_address,
	           party_time, party_location, party_address, cover_image_url, music_url,
	           music_enabled, wish_list_enabled, bank_info_enabled, couple_code, couple_code_enabled,
	           bank_name, bank_account_type, bank_account_number, bank_holder_id, bank_email)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	           groom_name = VALUES(groom_name), bride_name = VALUES(bride_name),
	           welcome_message = VALUES(welcome_message), template = VALUES(template),
	           event_date = VALUES(event_date), ceremony_time = VALUES(ceremony_time),
	           ceremony_location = VALUES(ceremony_location), ceremony_address = VALUES(ceremony_address),
	           party_time = VALUES(party_time), party_location = VALUES(party_location),
	           party_address = VALUES(party_address), cover_image_url = VALUES(cover_image_url),
	           music_url = VALUES(music_url), music_enabled = VALUES(music_enabled),
	           wish_list_enabled = VALUES(wish_list_enabled), bank_info_enabled = VALUES(bank_info_enabled),
	           couple_code = VALUES(couple_code), couple_code_enabled = VALUES(couple_code_enabled),
	           bank_name = VALUES(bank_name), bank_account_type = VALUES(bank_account_type),
	           bank_account_number = VALUES(bank_account_number), bank_holder_id = VALUES(bank_holder_id),
	           bank_email = VALUES(bank_email)`
	_, err := r.db.ExecContext(ctx, q,
		l.UserID, l.GroomName, l.BrideName, l.WelcomeMessage, l.Template,
		l.EventDate, l.CeremonyTime, l.CeremonyPlace, l.CeremonyAddress,
		l.PartyTime, l.PartyPlace, l.PartyAddress, l.CoverImageURL, l.MusicURL,
		l.MusicEnabled, l.WishListEnabled, l.BankInfoEnabled, l.CoupleCode, l.CoupleEnabled,
		l.BankName, l.BankAccountType, l.BankAccount, l.BankHolderID, l.BankEmail)
	return err
}

// Publish stamps the slug and published_at on an unpublished page.
// A duplicate slug maps to ErrSlugTaken; publishing twice maps to
// ErrAlreadyPublished.
func (r *LandingRepo) Publish(ctx context.Context, ownerID uint64, slug string) error {
	const q = `UPDATE landing_pages SET slug = ?, published_at = NOW()
	           WHERE user_id = ? AND published_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, slug, ownerID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if l, gErr := r.GetByOwner(ctx, ownerID); gErr == nil && l.Published() {
			return ErrAlreadyPublished
		}
		return ErrLandingNotFound
	}
	return nil
}

// SlugExists reports whether any page, published or not, holds the slug.
func (r *LandingRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM landing_pages WHERE slug = ? LIMIT 1`, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// PurgeOwner removes the couple's landing page. Used by account deletion.
func (r *LandingRepo) PurgeOwner(ctx context.Context, ownerID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM landing_pages WHERE user_id = ?`, ownerID)
	return err
}
