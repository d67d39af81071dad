// Package service implements the storefront use cases on top of the
// repositories, the payment provider and the domain event producer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// EventPublisher publishes domain events after a successful write.
// *event.Producer satisfies it.
type EventPublisher interface {
	PublishRatingUpdated(ctx context.Context, data event.RatingUpdatedData) error
	PublishCartUpdated(ctx context.Context, userID string, cart domain.Cart) error
	PublishCartCleared(ctx context.Context, userID string) error
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

func requireSession(sess domain.Session) error {
	if sess.Anonymous() {
		return apperrors.Unauthorized("sign in to continue")
	}
	return nil
}

func validateRef(ref domain.ItemRef) error {
	if err := validateKind(ref.Kind); err != nil {
		return err
	}
	if ref.ID == "" {
		return apperrors.InvalidInput("item id is required")
	}
	return nil
}

func validateKind(kind domain.ItemKind) error {
	if _, err := domain.ParseItemKind(string(kind)); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

// storeError maps a repository error to the error returned to callers.
// Application errors pass through, a missing row becomes NotFound for
// resource/id and everything else is reported as StoreUnavailable.
func storeError(op, resource, id string, err error) error {
	switch {
	case apperrors.IsApp(err):
		return err
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.NotFound(resource, id)
	case errors.Is(err, apperrors.ErrConflict):
		return apperrors.Conflict(fmt.Sprintf("%s was modified concurrently, please retry", resource))
	default:
		return apperrors.StoreUnavailable(apperrors.Wrap(err, op))
	}
}
