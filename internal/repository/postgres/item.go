package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

const itemColumns = `kind, id, name, description, roasted, ingredients, special_ingredient,
		image_url, prices, average_rating, ratings_count, created_at, updated_at`

// ItemRepository implements repository.ItemRepository using PostgreSQL.
type ItemRepository struct {
	pool database.DBTX
}

// NewItemRepository creates a new PostgreSQL-backed item repository.
func NewItemRepository(pool database.DBTX) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// Get retrieves an item by kind and id.
func (r *ItemRepository) Get(ctx context.Context, ref domain.ItemRef) (_ *domain.Item, err error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE kind = $1 AND id = $2`

	ctx, end := database.TraceQuery(ctx, "GetItem", query)
	defer func() { end(err) }()

	item, err := scanItem(r.pool.QueryRow(ctx, query, ref.Kind, ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns a page of items of one kind ordered by name, along with the
// total number of matches.
func (r *ItemRepository) List(ctx context.Context, filter domain.ItemFilter) (_ []domain.Item, _ int, err error) {
	query := `
		SELECT ` + itemColumns + `, count(*) OVER() AS total_count
		FROM items
		WHERE kind = $1 AND name ILIKE $2 ESCAPE '\'
		ORDER BY name, id
		LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	ctx, end := database.TraceQuery(ctx, "ListItems", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, filter.Kind, containsPattern(filter.Name), limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var totalCount int
	items := make([]domain.Item, 0)

	for rows.Next() {
		var (
			it         domain.Item
			pricesJSON []byte
		)
		if err := rows.Scan(
			&it.Kind, &it.ID, &it.Name, &it.Description, &it.Roasted, &it.Ingredients,
			&it.SpecialIngredient, &it.ImageURL, &pricesJSON, &it.AverageRating,
			&it.RatingsCount, &it.CreatedAt, &it.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan item row: %w", err)
		}
		if err := unmarshalPrices(pricesJSON, &it); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate item rows: %w", err)
	}

	return items, totalCount, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in
// the value. An empty s matches everything.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Names returns the distinct names of all items of a kind.
func (r *ItemRepository) Names(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	query := `SELECT DISTINCT name FROM items WHERE kind = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list item names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan item name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item names: %w", err)
	}
	return names, nil
}

// Upsert creates or replaces the item's catalog fields. The rating
// aggregate of an existing item is left untouched.
func (r *ItemRepository) Upsert(ctx context.Context, item *domain.Item) error {
	prices, err := json.Marshal(item.Prices)
	if err != nil {
		return fmt.Errorf("marshal item prices: %w", err)
	}

	query := `
		INSERT INTO items (kind, id, name, description, roasted, ingredients, special_ingredient,
		                   image_url, prices, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (kind, id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			roasted = EXCLUDED.roasted,
			ingredients = EXCLUDED.ingredients,
			special_ingredient = EXCLUDED.special_ingredient,
			image_url = EXCLUDED.image_url,
			prices = EXCLUDED.prices,
			updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, query,
		item.Kind,
		item.ID,
		item.Name,
		item.Description,
		item.Roasted,
		item.Ingredients,
		item.SpecialIngredient,
		item.ImageURL,
		prices,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		it         domain.Item
		pricesJSON []byte
	)
	if err := row.Scan(
		&it.Kind, &it.ID, &it.Name, &it.Description, &it.Roasted, &it.Ingredients,
		&it.SpecialIngredient, &it.ImageURL, &pricesJSON, &it.AverageRating,
		&it.RatingsCount, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalPrices(pricesJSON, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func unmarshalPrices(data []byte, it *domain.Item) error {
	it.Prices = []domain.PriceVariant{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &it.Prices); err != nil {
		return fmt.Errorf("unmarshal item prices: %w", err)
	}
	return nil
}
