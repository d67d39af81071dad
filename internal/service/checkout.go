package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/provider"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
	"github.com/Penlika/CoffeeShopApp/pkg/httpclient"
	"github.com/Penlika/CoffeeShopApp/pkg/pagination"
)

// CheckoutConfig holds the payment settings used when creating orders.
type CheckoutConfig struct {
	Currency  string
	ReturnURL string
	CancelURL string
}

// CheckoutResult is a started checkout. The client sends the user to
// ApprovalURL and comes back with the provider order id and payer id.
type CheckoutResult struct {
	Order       *domain.Order `json:"order"`
	ApprovalURL string        `json:"approval_url"`
}

// CheckoutService moves a cart through the payment provider into the
// order history.
type CheckoutService struct {
	carts    repository.CartRepository
	orders   repository.OrderRepository
	provider provider.Provider
	events   EventPublisher
	cfg      CheckoutConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	p provider.Provider,
	events EventPublisher,
	cfg CheckoutConfig,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		provider: p,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Begin creates a provider order for the caller's cart and records it as a
// pending order holding a snapshot of the cart.
func (s *CheckoutService) Begin(ctx context.Context, sess domain.Session) (*CheckoutResult, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	lines, err := s.carts.Lines(ctx, sess.UserID)
	if err != nil {
		return nil, storeError("get cart", "cart", sess.UserID, err)
	}
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	total := domain.CartTotal(lines)
	if !total.IsPositive() {
		return nil, apperrors.InvalidInput("cart total must be greater than zero")
	}

	created, err := s.provider.CreateOrder(ctx, provider.CreateOrderInput{
		Amount:    total,
		Currency:  s.cfg.Currency,
		ReturnURL: s.cfg.ReturnURL,
		CancelURL: s.cfg.CancelURL,
	})
	if err != nil {
		checkoutsTotal.WithLabelValues("begin", "error").Inc()
		return nil, httpclient.AsUpstreamError(err, s.provider.Name())
	}

	now := s.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          sess.UserID,
		ProviderOrderID: created.ProviderOrderID,
		Items:           lines,
		TotalAmount:     total,
		Currency:        s.cfg.Currency,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   s.provider.Name(),
		OrderedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, storeError("create order", "order", created.ProviderOrderID, err)
	}
	checkoutsTotal.WithLabelValues("begin", string(domain.PaymentPending)).Inc()

	s.logger.InfoContext(ctx, "checkout started",
		slog.String("order_id", order.ID),
		slog.String("provider_order_id", order.ProviderOrderID),
		slog.String("user_id", sess.UserID),
		slog.String("total", total.StringFixed(2)),
	)
	return &CheckoutResult{Order: order, ApprovalURL: created.ApprovalURL}, nil
}

// Complete captures an approved order. Completing an order that is already
// completed returns it unchanged. A declined capture marks the order failed
// and returns PaymentFailed.
func (s *CheckoutService) Complete(ctx context.Context, sess domain.Session, providerOrderID, payerID string) (*domain.Order, error) {
	order, err := s.ownedOrder(ctx, sess, providerOrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == domain.PaymentCompleted {
		return order, nil
	}
	if !order.CanTransitionTo(domain.PaymentCompleted) {
		return nil, apperrors.Conflict(fmt.Sprintf("order is already %s", order.PaymentStatus))
	}
	if payerID == "" {
		return nil, apperrors.InvalidInput("payer_id is required")
	}

	captured, err := s.provider.CaptureOrder(ctx, providerOrderID, payerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentFailed) {
			if ferr := s.setStatus(ctx, order, domain.PaymentFailed); ferr != nil {
				return nil, ferr
			}
			checkoutsTotal.WithLabelValues("capture", string(domain.PaymentFailed)).Inc()
			return nil, err
		}
		// The order stays pending so the capture can be retried.
		checkoutsTotal.WithLabelValues("capture", "error").Inc()
		return nil, httpclient.AsUpstreamError(err, s.provider.Name())
	}

	if captured.Status != provider.StatusCompleted {
		if err := s.setStatus(ctx, order, domain.PaymentFailed); err != nil {
			return nil, err
		}
		checkoutsTotal.WithLabelValues("capture", string(domain.PaymentFailed)).Inc()
		s.logger.WarnContext(ctx, "payment not completed",
			slog.String("provider_order_id", providerOrderID),
			slog.String("status", captured.Status),
		)
		return nil, apperrors.PaymentFailed(fmt.Sprintf("payment was not completed (status %s)", captured.Status))
	}

	if err := s.setStatus(ctx, order, domain.PaymentCompleted); err != nil {
		return nil, err
	}
	checkoutsTotal.WithLabelValues("capture", string(domain.PaymentCompleted)).Inc()

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("provider_order_id", providerOrderID),
		slog.String("capture_id", captured.CaptureID),
		slog.String("user_id", sess.UserID),
	)

	// Payment is captured at this point; cart cleanup failures are only logged.
	if err := s.carts.Clear(ctx, sess.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after payment",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
	} else if err := s.events.PublishCartCleared(ctx, sess.UserID); err != nil {
		eventPublishFailures.WithLabelValues(event.TypeCartCleared).Inc()
		s.logger.ErrorContext(ctx, "failed to publish cart cleared event",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
		eventPublishFailures.WithLabelValues(event.TypeOrderPlaced).Inc()
		s.logger.ErrorContext(ctx, "failed to publish order placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}

// Cancel marks a pending order canceled. Canceling twice is a no-op.
func (s *CheckoutService) Cancel(ctx context.Context, sess domain.Session, providerOrderID string) (*domain.Order, error) {
	order, err := s.ownedOrder(ctx, sess, providerOrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == domain.PaymentCanceled {
		return order, nil
	}
	if !order.CanTransitionTo(domain.PaymentCanceled) {
		return nil, apperrors.Conflict(fmt.Sprintf("order is already %s", order.PaymentStatus))
	}
	if err := s.setStatus(ctx, order, domain.PaymentCanceled); err != nil {
		return nil, err
	}
	checkoutsTotal.WithLabelValues("cancel", string(domain.PaymentCanceled)).Inc()

	s.logger.InfoContext(ctx, "checkout canceled",
		slog.String("order_id", order.ID),
		slog.String("provider_order_id", providerOrderID),
	)
	return order, nil
}

// ListOrders returns one page of the caller's order history, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, sess domain.Session, page pagination.Params) (*pagination.Result[domain.Order], error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	orders, total, err := s.orders.ListByUser(ctx, sess.UserID, page.Limit(), page.Offset())
	if err != nil {
		return nil, storeError("list orders", "orders", sess.UserID, err)
	}
	result := pagination.NewResult(orders, total, page)
	return &result, nil
}

// ownedOrder loads an order of the caller. Orders of other users are
// reported as not found.
func (s *CheckoutService) ownedOrder(ctx context.Context, sess domain.Session, providerOrderID string) (*domain.Order, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if providerOrderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	order, err := s.orders.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, storeError("get order", "order", providerOrderID, err)
	}
	if order.UserID != sess.UserID {
		return nil, apperrors.NotFound("order", providerOrderID)
	}
	return order, nil
}

func (s *CheckoutService) setStatus(ctx context.Context, order *domain.Order, status domain.PaymentStatus) error {
	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return storeError("update order status", "order", order.ProviderOrderID, err)
	}
	order.PaymentStatus = status
	order.UpdatedAt = s.now()
	return nil
}
