package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCanceled  PaymentStatus = "canceled"
)

// Order is an entry of a user's order history. Items is the cart as it was
// when checkout began.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ProviderOrderID string          `json:"provider_order_id"`
	Items           []CartLine      `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	OrderedAt       time.Time       `json:"ordered_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CanTransitionTo reports whether the order may move to next. Only
// pending orders change state.
func (o *Order) CanTransitionTo(next PaymentStatus) bool {
	if o.PaymentStatus != PaymentPending {
		return false
	}
	switch next {
	case PaymentCompleted, PaymentFailed, PaymentCanceled:
		return true
	}
	return false
}
