package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
)

// FavoriteService manages the caller's favorite items.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	items     repository.ItemRepository
	logger    *slog.Logger
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(favorites repository.FavoriteRepository, items repository.ItemRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		items:     items,
		logger:    logger,
	}
}

// Add marks an existing item as a favorite. Adding it twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, sess domain.Session, ref domain.ItemRef) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	if _, err := s.items.Get(ctx, ref); err != nil {
		return storeError("get item", "item", ref.String(), err)
	}

	fav := &domain.Favorite{
		UserID:    sess.UserID,
		Kind:      ref.Kind,
		ItemID:    ref.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.favorites.Add(ctx, fav); err != nil {
		return storeError("add favorite", "favorite", ref.String(), err)
	}

	s.logger.InfoContext(ctx, "favorite added",
		slog.String("user_id", sess.UserID),
		slog.String("item", ref.String()),
	)
	return nil
}

// Remove unmarks a favorite. Removing a missing favorite is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, sess domain.Session, ref domain.ItemRef) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.favorites.Remove(ctx, sess.UserID, ref); err != nil {
		return storeError("remove favorite", "favorite", ref.String(), err)
	}

	s.logger.InfoContext(ctx, "favorite removed",
		slog.String("user_id", sess.UserID),
		slog.String("item", ref.String()),
	)
	return nil
}

// List returns the caller's favorites, most recent first.
func (s *FavoriteService) List(ctx context.Context, sess domain.Session) ([]domain.FavoriteItem, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	favs, err := s.favorites.List(ctx, sess.UserID)
	if err != nil {
		return nil, storeError("list favorites", "favorites", sess.UserID, err)
	}
	return favs, nil
}
