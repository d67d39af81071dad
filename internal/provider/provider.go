package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider order statuses the checkout flow acts on.
const (
	StatusCreated   = "CREATED"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

// CreateOrderInput holds the parameters for creating a provider order.
type CreateOrderInput struct {
	Amount    decimal.Decimal
	Currency  string
	ReturnURL string
	CancelURL string
}

// CreateOrderResult is the provider's answer to an order creation.
type CreateOrderResult struct {
	ProviderOrderID string
	ApprovalURL     string
	Status          string
}

// CaptureResult is the provider's answer to a capture.
type CaptureResult struct {
	Status    string
	CaptureID string
}

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name recorded as the order's payment method.
	Name() string

	// CreateOrder registers an order the payer must approve at ApprovalURL.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)

	// CaptureOrder collects the funds of an approved order.
	CaptureOrder(ctx context.Context, providerOrderID, payerID string) (*CaptureResult, error)
}
