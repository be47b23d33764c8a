package model

import "time"

// LandingPage holds everything the public microsite renders for one
// couple. There is at most one row per user; the repository upserts it.
// Slug and PublishedAt stay null until the page is published, which in
// turn requires an approved publication payment.
type LandingPage struct {
	ID              uint64     `json:"id"`
	UserID          uint64     `json:"-"`
	GroomName       string     `json:"groom_name"`
	BrideName       string     `json:"bride_name"`
	WelcomeMessage  string     `json:"welcome_message"`
	Template        string     `json:"template"`
	EventDate       string     `json:"event_date"`
	CeremonyTime    string     `json:"ceremony_time"`
	CeremonyPlace   string     `json:"ceremony_location"`
	CeremonyAddress string     `json:"ceremony_address"`
	PartyTime       string     `json:"party_time"`
	PartyPlace      string     `json:"party_location"`
	PartyAddress    string     `json:"party_address"`
	CoverImageURL   string     `json:"cover_image_url"`
	MusicURL        string     `json:"music_url"`
	MusicEnabled    bool       `json:"music_enabled"`
	WishListEnabled bool       `json:"wish_list_enabled"`
	BankInfoEnabled bool       `json:"bank_info_enabled"`
	CoupleCode      string     `json:"couple_code"`
	CoupleEnabled   bool       `json:"couple_code_enabled"`
	BankName        string     `json:"bank_name"`
	BankAccountType string     `json:"bank_account_type"`
	BankAccount     string     `json:"bank_account_number"`
	BankHolderID    string     `json:"bank_holder_id"`
	BankEmail       string     `json:"bank_email"`
	Slug            *string    `json:"slug"`
	PublishedAt     *time.Time `json:"published_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Published reports whether the microsite is live.
func (l LandingPage) Published() bool {
	return l.PublishedAt != nil && l.Slug != nil && *l.Slug != ""
}
