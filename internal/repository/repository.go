package repository

import (
	"context"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/rating"
)

// ItemRepository reads the catalog. Items are written only by the seeder.
type ItemRepository interface {
	// Get returns the item, or apperrors.ErrNotFound.
	Get(ctx context.Context, ref domain.ItemRef) (*domain.Item, error)

	// List returns items of one kind ordered by name, with the total count.
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, int, error)

	// Names returns the distinct item names of a kind in alphabetical order.
	Names(ctx context.Context, kind domain.ItemKind) ([]string, error)

	// Upsert creates or replaces an item, leaving its rating aggregate intact.
	Upsert(ctx context.Context, item *domain.Item) error
}

// PlanFunc computes a rating change from the item's current comments in
// storage order.
type PlanFunc func(existing []domain.Comment) (rating.Plan, error)

// CommentRepository stores comment records and keeps the item aggregate in
// step with them.
type CommentRepository interface {
	// List returns the item's comments in storage order.
	List(ctx context.Context, ref domain.ItemRef) ([]domain.Comment, error)

	// ApplyRatingChange locks the item, passes its comments to plan and
	// writes the resulting plan, all in one transaction.
	ApplyRatingChange(ctx context.Context, ref domain.ItemRef, plan PlanFunc) (rating.Plan, error)
}

// CartRepository stores one cart per user.
type CartRepository interface {
	// Lines returns the user's cart lines ordered by the time they were added.
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)

	// Mutate applies fn to the current lines and stores the lines it
	// returns. fn may run more than once when another writer interferes.
	Mutate(ctx context.Context, userID string, fn func(lines []domain.CartLine) ([]domain.CartLine, error)) ([]domain.CartLine, error)

	// Clear removes the user's cart.
	Clear(ctx context.Context, userID string) error
}

// FavoriteRepository stores favorite items per user.
type FavoriteRepository interface {
	Add(ctx context.Context, fav *domain.Favorite) error
	Remove(ctx context.Context, userID string, ref domain.ItemRef) error
	// List returns favorites joined with their items, most recent first.
	List(ctx context.Context, userID string) ([]domain.FavoriteItem, error)
}

// OrderRepository stores the order history.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// GetByProviderOrderID returns the order, or apperrors.ErrNotFound.
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	// ListByUser returns the user's orders newest first with the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error)
}

// CardRepository stores one masked card per user.
type CardRepository interface {
	Save(ctx context.Context, card *domain.SavedCard) error
	// Get returns the card, or apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.SavedCard, error)
}
