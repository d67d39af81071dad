package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// CardRepository implements repository.CardRepository using PostgreSQL.
type CardRepository struct {
	pool database.DBTX
}

// NewCardRepository creates a new PostgreSQL-backed saved card repository.
func NewCardRepository(pool database.DBTX) *CardRepository {
	return &CardRepository{pool: pool}
}

// Save stores the user's card, replacing any previous one.
func (r *CardRepository) Save(ctx context.Context, card *domain.SavedCard) error {
	query := `
		INSERT INTO saved_cards (user_id, holder_name, last4, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			holder_name = EXCLUDED.holder_name,
			last4 = EXCLUDED.last4,
			expiry = EXCLUDED.expiry,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, card.UserID, card.HolderName, card.Last4, card.Expiry, card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// Get returns the user's saved card.
func (r *CardRepository) Get(ctx context.Context, userID string) (*domain.SavedCard, error) {
	query := `SELECT user_id, holder_name, last4, expiry, updated_at FROM saved_cards WHERE user_id = $1`

	var c domain.SavedCard
	err := r.pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.HolderName, &c.Last4, &c.Expiry, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &c, nil
}
