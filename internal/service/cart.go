package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// CartService implements the per-user cart.
type CartService struct {
	repo   repository.CartRepository
	items  repository.ItemRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(
	repo repository.CartRepository,
	items repository.ItemRepository,
	events EventPublisher,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		repo:   repo,
		items:  items,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the caller's cart. A user without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, sess domain.Session) (*domain.Cart, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	lines, err := s.repo.Lines(ctx, sess.UserID)
	if err != nil {
		return nil, storeError("get cart", "cart", sess.UserID, err)
	}
	cart := domain.NewCart(lines)
	return &cart, nil
}

// AddItem adds one unit of an item in the given size. An empty size picks
// the item's first size. A line holding the same item and size is
// incremented instead of duplicated.
func (s *CartService) AddItem(ctx context.Context, sess domain.Session, ref domain.ItemRef, size string) (*domain.Cart, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, ref)
	if err != nil {
		return nil, storeError("get item", "item", ref.String(), err)
	}
	variant, ok := item.Variant(size)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s is not available in size %q", item.Name, size))
	}

	now := s.now()
	lines, err := s.repo.Mutate(ctx, sess.UserID, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		for i := range lines {
			if lines[i].Matches(ref, variant.Size) {
				lines[i].Increment()
				return lines, nil
			}
		}
		return append(lines, newCartLine(item, variant, now)), nil
	})
	if err != nil {
		cartMutations.WithLabelValues("add", "error").Inc()
		return nil, storeError("add to cart", "cart", sess.UserID, err)
	}
	cartMutations.WithLabelValues("add", "ok").Inc()

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", sess.UserID),
		slog.String("item", ref.String()),
		slog.String("size", variant.Size),
	)
	return s.updated(ctx, sess.UserID, lines), nil
}

// IncrementQuantity adds one unit to a cart line.
func (s *CartService) IncrementQuantity(ctx context.Context, sess domain.Session, lineID string) (*domain.Cart, error) {
	return s.mutateLine(ctx, sess, "increment", lineID, func(line *domain.CartLine) bool {
		line.Increment()
		return false
	})
}

// DecrementQuantity removes one unit from a cart line. The line is deleted
// when its quantity would drop below one.
func (s *CartService) DecrementQuantity(ctx context.Context, sess domain.Session, lineID string) (*domain.Cart, error) {
	return s.mutateLine(ctx, sess, "decrement", lineID, func(line *domain.CartLine) bool {
		return line.Decrement()
	})
}

// RemoveLine deletes a cart line.
func (s *CartService) RemoveLine(ctx context.Context, sess domain.Session, lineID string) (*domain.Cart, error) {
	return s.mutateLine(ctx, sess, "remove", lineID, func(*domain.CartLine) bool {
		return true
	})
}

// ClearCart removes every line from the caller's cart.
func (s *CartService) ClearCart(ctx context.Context, sess domain.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.repo.Clear(ctx, sess.UserID); err != nil {
		cartMutations.WithLabelValues("clear", "error").Inc()
		return storeError("clear cart", "cart", sess.UserID, err)
	}
	cartMutations.WithLabelValues("clear", "ok").Inc()

	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", sess.UserID))
	if err := s.events.PublishCartCleared(ctx, sess.UserID); err != nil {
		eventPublishFailures.WithLabelValues(event.TypeCartCleared).Inc()
		s.logger.ErrorContext(ctx, "failed to publish cart cleared event",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// mutateLine applies op to the line with lineID and deletes the line when
// op reports true.
func (s *CartService) mutateLine(ctx context.Context, sess domain.Session, op, lineID string, apply func(*domain.CartLine) (remove bool)) (*domain.Cart, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}

	lines, err := s.repo.Mutate(ctx, sess.UserID, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		for i := range lines {
			if lines[i].ID != lineID {
				continue
			}
			if apply(&lines[i]) {
				return append(lines[:i:i], lines[i+1:]...), nil
			}
			return lines, nil
		}
		return nil, apperrors.NotFound("cart line", lineID)
	})
	if err != nil {
		cartMutations.WithLabelValues(op, "error").Inc()
		return nil, storeError(op+" cart line", "cart", sess.UserID, err)
	}
	cartMutations.WithLabelValues(op, "ok").Inc()

	s.logger.InfoContext(ctx, "cart line updated",
		slog.String("user_id", sess.UserID),
		slog.String("line_id", lineID),
		slog.String("op", op),
	)
	return s.updated(ctx, sess.UserID, lines), nil
}

func (s *CartService) updated(ctx context.Context, userID string, lines []domain.CartLine) *domain.Cart {
	cart := domain.NewCart(lines)
	if err := s.events.PublishCartUpdated(ctx, userID, cart); err != nil {
		eventPublishFailures.WithLabelValues(event.TypeCartUpdated).Inc()
		s.logger.ErrorContext(ctx, "failed to publish cart updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return &cart
}

func newCartLine(item *domain.Item, variant domain.PriceVariant, now time.Time) domain.CartLine {
	currency := variant.Currency
	if currency == "" {
		currency = domain.DefaultLineCurrency
	}
	return domain.CartLine{
		ID:                uuid.NewString(),
		Kind:              item.Kind,
		ItemID:            item.ID,
		Name:              item.Name,
		ImageURL:          item.ImageURL,
		SpecialIngredient: item.SpecialIngredient,
		Roasted:           item.Roasted,
		Prices: []domain.LinePrice{{
			Size:     variant.Size,
			Price:    variant.Price,
			Quantity: 1,
			Currency: currency,
		}},
		TotalPrice: variant.Price,
		AddedAt:    now,
	}
}
