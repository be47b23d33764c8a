package model

import "time"

// User represents a couple's account as stored in the `users` table.
// Authentication fields follow the refresh-token scheme; the profile
// fields feed the landing-page builder defaults and the slug
// derivation at publish time.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GroomName    string    `json:"groom_name"`
	BrideName    string    `json:"bride_name"`
	Country      string    `json:"country"`
	Language     string    `json:"language"`
	ProfileImage string    `json:"profile_image"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
