// Package paypal implements provider.Provider against the PayPal Orders v2
// REST API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/provider"
	"github.com/Penlika/CoffeeShopApp/pkg/httpclient"
)

const (
	name = "PayPal"

	issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

	// tokens are refreshed this long before PayPal says they expire
	tokenExpiryMargin = time.Minute
)

// Config holds the PayPal REST credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Provider talks to PayPal through a retrying, circuit-broken client.
type Provider struct {
	cfg    Config
	http   Doer
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// New creates a PayPal provider.
func New(cfg Config, client Doer, logger *slog.Logger) *Provider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{
		cfg:    cfg,
		http:   client,
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the payment method recorded on orders.
func (p *Provider) Name() string {
	return name
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type createOrderRequest struct {
	Intent             string `json:"intent"`
	PurchaseUnits      []unit `json:"purchase_units"`
	ApplicationContext struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"application_context"`
}

type unit struct {
	Amount amount `json:"amount"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Links         []link `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// token returns a cached access token, fetching a new one through the
// client-credentials grant when it is missing or about to expire.
func (p *Provider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.now().Before(p.expiresAt) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok tokenResponse
	if _, err := p.do(ctx, req, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", httpclient.AsUpstreamError(fmt.Errorf("empty access token"), name)
	}

	p.accessToken = tok.AccessToken
	p.expiresAt = p.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin)
	return p.accessToken, nil
}

// CreateOrder creates a CAPTURE-intent order and returns its approval link.
func (p *Provider) CreateOrder(ctx context.Context, input provider.CreateOrderInput) (*provider.CreateOrderResult, error) {
	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []unit{{Amount: amount{
			CurrencyCode: input.Currency,
			Value:        input.Amount.StringFixed(2),
		}}},
	}
	body.ApplicationContext.ReturnURL = input.ReturnURL
	body.ApplicationContext.CancelURL = input.CancelURL

	var out orderResponse
	if err := p.authorizedJSON(ctx, "/v2/checkout/orders", "", body, &out); err != nil {
		return nil, err
	}

	approval := ""
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			approval = l.Href
			break
		}
	}
	if out.ID == "" || approval == "" {
		return nil, httpclient.AsUpstreamError(fmt.Errorf("order response missing id or approval link"), name)
	}

	p.logger.InfoContext(ctx, "paypal order created",
		slog.String("provider_order_id", out.ID),
		slog.String("status", out.Status),
	)
	return &provider.CreateOrderResult{
		ProviderOrderID: out.ID,
		ApprovalURL:     approval,
		Status:          out.Status,
	}, nil
}

// CaptureOrder captures an approved order. The request ID makes a repeated
// capture of the same approval idempotent on PayPal's side, and an
// ORDER_ALREADY_CAPTURED answer is reported as a completed capture.
func (p *Provider) CaptureOrder(ctx context.Context, providerOrderID, payerID string) (*provider.CaptureResult, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(providerOrderID) + "/capture"
	requestID := providerOrderID + "-" + payerID

	var out orderResponse
	if err := p.authorizedJSON(ctx, path, requestID, struct{}{}, &out); err != nil {
		if httpclient.HasIssue(err, issueAlreadyCaptured) {
			p.logger.InfoContext(ctx, "paypal order was already captured",
				slog.String("provider_order_id", providerOrderID),
			)
			return &provider.CaptureResult{Status: provider.StatusCompleted}, nil
		}
		return nil, err
	}

	result := &provider.CaptureResult{Status: out.Status}
	for _, pu := range out.PurchaseUnits {
		if len(pu.Payments.Captures) > 0 {
			result.CaptureID = pu.Payments.Captures[0].ID
			break
		}
	}

	p.logger.InfoContext(ctx, "paypal order captured",
		slog.String("provider_order_id", providerOrderID),
		slog.String("status", out.Status),
	)
	return result, nil
}

func (p *Provider) authorizedJSON(ctx context.Context, path, requestID string, in, out any) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal paypal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create paypal request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	status, err := p.do(ctx, req, out)
	if status == http.StatusUnauthorized {
		p.invalidateToken()
	}
	return err
}

// do sends req and decodes a 2xx JSON body into out. The status is zero
// when no response arrived.
func (p *Provider) do(ctx context.Context, req *http.Request, out any) (int, error) {
	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return 0, httpclient.AsUpstreamError(err, name)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, httpclient.ParseResponseError(resp, name)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, httpclient.AsUpstreamError(fmt.Errorf("decode paypal response: %w", err), name)
	}
	return resp.StatusCode, nil
}

func (p *Provider) invalidateToken() {
	p.mu.Lock()
	p.accessToken = ""
	p.mu.Unlock()
}
