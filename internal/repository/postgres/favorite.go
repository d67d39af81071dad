package postgres

import (
	"context"
	"fmt"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
)

// FavoriteRepository implements repository.FavoriteRepository using PostgreSQL.
type FavoriteRepository struct {
	pool database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(pool database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Add marks an item as a favorite. Adding it twice is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, fav *domain.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, kind, item_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, kind, item_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, fav.UserID, fav.Kind, fav.ItemID, fav.CreatedAt); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove unmarks an item. Removing an absent favorite is a no-op.
func (r *FavoriteRepository) Remove(ctx context.Context, userID string, ref domain.ItemRef) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND kind = $2 AND item_id = $3`

	if _, err := r.pool.Exec(ctx, query, userID, ref.Kind, ref.ID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// List returns the user's favorite items, most recently added first.
func (r *FavoriteRepository) List(ctx context.Context, userID string) ([]domain.FavoriteItem, error) {
	query := `
		SELECT i.kind, i.id, i.name, i.description, i.roasted, i.ingredients, i.special_ingredient,
		       i.image_url, i.prices, i.average_rating, i.ratings_count, i.created_at, i.updated_at,
		       f.created_at
		FROM favorites f
		JOIN items i ON i.kind = f.kind AND i.id = f.item_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]domain.FavoriteItem, 0)
	for rows.Next() {
		var (
			fi         domain.FavoriteItem
			pricesJSON []byte
		)
		if err := rows.Scan(
			&fi.Kind, &fi.ID, &fi.Name, &fi.Description, &fi.Roasted, &fi.Ingredients,
			&fi.SpecialIngredient, &fi.ImageURL, &pricesJSON, &fi.AverageRating,
			&fi.RatingsCount, &fi.CreatedAt, &fi.UpdatedAt, &fi.FavoritedAt,
		); err != nil {
			return nil, fmt.Errorf("scan favorite row: %w", err)
		}
		if err := unmarshalPrices(pricesJSON, &fi.Item); err != nil {
			return nil, err
		}
		favorites = append(favorites, fi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite rows: %w", err)
	}
	return favorites, nil
}
