package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Penlika/CoffeeShopApp/internal/provider"
)

// DeclinedPayerID makes CaptureOrder return a declined status.
const DeclinedPayerID = "DECLINED"

// Provider is a payment provider that approves every order instantly. It
// is intended for development and testing.
type Provider struct {
	mu       sync.Mutex
	captured map[string]bool
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{captured: make(map[string]bool)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateOrder returns a fresh order ID and a fake approval link.
func (p *Provider) CreateOrder(_ context.Context, input provider.CreateOrderInput) (*provider.CreateOrderResult, error) {
	id := "MOCK-" + uuid.NewString()
	return &provider.CreateOrderResult{
		ProviderOrderID: id,
		ApprovalURL:     input.ReturnURL + "?token=" + id + "&PayerID=MOCKPAYER",
		Status:          provider.StatusCreated,
	}, nil
}

// CaptureOrder completes the order unless payerID is DeclinedPayerID.
func (p *Provider) CaptureOrder(_ context.Context, providerOrderID, payerID string) (*provider.CaptureResult, error) {
	if payerID == DeclinedPayerID {
		return &provider.CaptureResult{Status: "DECLINED"}, nil
	}

	p.mu.Lock()
	p.captured[providerOrderID] = true
	p.mu.Unlock()

	return &provider.CaptureResult{
		Status:    provider.StatusCompleted,
		CaptureID: "MOCKCAP-" + uuid.NewString(),
	}, nil
}

// Captured reports whether the order was captured.
func (p *Provider) Captured(providerOrderID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured[providerOrderID]
}
