package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

const orderColumns = `id, user_id, provider_order_id, items, total_amount, currency,
		payment_status, payment_method, ordered_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order with its cart snapshot.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.ProviderOrderID,
		itemsJSON,
		o.TotalAmount,
		o.Currency,
		o.PaymentStatus,
		o.PaymentMethod,
		o.OrderedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByProviderOrderID retrieves an order by the payment provider's id.
func (r *OrderRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE provider_order_id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, providerOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateStatus sets the payment status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByUser returns a page of the user's orders, newest first, with the
// total count.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	query := `
		SELECT ` + orderColumns + `, count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY ordered_at DESC, id
		LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o         domain.Order
			itemsJSON []byte
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.ProviderOrderID, &itemsJSON, &o.TotalAmount, &o.Currency,
			&o.PaymentStatus, &o.PaymentMethod, &o.OrderedAt, &o.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if err := unmarshalOrderItems(itemsJSON, &o); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, totalCount, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)
	if err := row.Scan(
		&o.ID, &o.UserID, &o.ProviderOrderID, &itemsJSON, &o.TotalAmount, &o.Currency,
		&o.PaymentStatus, &o.PaymentMethod, &o.OrderedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalOrderItems(itemsJSON, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// unmarshalOrderItems decodes the snapshot through the cart line decoder
// so orders written by older clients read back in canonical form.
func unmarshalOrderItems(data []byte, o *domain.Order) error {
	o.Items = []domain.CartLine{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal order items: %w", err)
	}
	for _, m := range raw {
		o.Items = append(o.Items, domain.DecodeCartLine(m))
	}
	return nil
}
