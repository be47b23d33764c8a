package model

import "time"

// Payment statuses, mirroring the checkout provider's vocabulary.
const (
	PaymentApproved  = "approved"
	PaymentPending   = "pending"
	PaymentInProcess = "in_process"
	PaymentRejected  = "rejected"
	PaymentCancelled = "cancelled"
)

// Payment types.
const (
	PaymentTypePublication = "publication"
	PaymentTypeGift        = "gift"
)

// Payment records one checkout attempt against the external provider.
// PreferenceID is the provider's handle for the checkout session and
// is what the status poller keys on.
type Payment struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"-"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	PreferenceID string    `json:"preference_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TerminalPaymentStatus reports whether s ends a checkout attempt.
func TerminalPaymentStatus(s string) bool {
	return s == PaymentApproved || s == PaymentRejected || s == PaymentCancelled
}
