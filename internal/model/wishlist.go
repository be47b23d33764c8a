package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishListItem is a single gift on the couple's registry. Guests
// contribute money toward an item through the checkout provider; Paid
// and PaymentStatus are flipped by the provider webhook.
type WishListItem struct {
	ID            uint64           `json:"id"`
	UserID        uint64           `json:"-"`
	Name          string           `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	Icon          string           `json:"icon"`
	Paid          bool             `json:"paid"`
	PaymentStatus string           `json:"payment_status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Withdrawal is a payout of collected gift money to the couple.
type Withdrawal struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Withdrawal statuses.
const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
)

// withdrawalFee is the platform's cut on collected gifts.
var withdrawalFee = decimal.NewFromFloat(0.94)

// AvailableBalance computes how much of the collected gift money can
// still be withdrawn: floor(total paid gifts * 0.94) minus the sum of
// every withdrawal already requested, floored at zero.
func AvailableBalance(totalPaid decimal.Decimal, withdrawn decimal.Decimal) decimal.Decimal {
	avail := totalPaid.Mul(withdrawalFee).Floor().Sub(withdrawn)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}
