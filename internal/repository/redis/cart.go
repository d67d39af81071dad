package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

const (
	keyPrefix = "cart:"

	// DefaultMaxRetries bounds the optimistic transaction retries of Mutate.
	DefaultMaxRetries = 5
)

// CartRepository implements repository.CartRepository using one Redis hash
// per user, keyed by line ID.
type CartRepository struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client:     client,
		ttl:        ttl,
		maxRetries: DefaultMaxRetries,
	}
}

func cartKey(userID string) string {
	return keyPrefix + userID
}

// Lines returns the user's cart lines, oldest first. A missing cart is empty.
func (r *CartRepository) Lines(ctx context.Context, userID string) (_ []domain.CartLine, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "CartLines", "HGETALL cart:{user}")
	defer func() { end(err) }()

	return readLines(ctx, r.client, cartKey(userID))
}

// Mutate runs fn over the current lines inside WATCH/MULTI and replaces the
// stored lines with its result. A concurrent write to the same cart aborts
// the transaction; it is retried and eventually reported as a conflict.
func (r *CartRepository) Mutate(
	ctx context.Context,
	userID string,
	fn func(lines []domain.CartLine) ([]domain.CartLine, error),
) (_ []domain.CartLine, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "MutateCart", "WATCH cart:{user} MULTI")
	defer func() { end(err) }()

	key := cartKey(userID)
	var result []domain.CartLine

	txf := func(tx *redis.Tx) error {
		current, err := readLines(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}

		values := make([]any, 0, len(next)*2)
		for _, line := range next {
			data, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("marshal cart line: %w", err)
			}
			values = append(values, line.ID, data)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(values) > 0 {
				pipe.HSet(ctx, key, values...)
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err = r.client.Watch(ctx, txf, key)
		if err == nil {
			sortLines(result)
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}

	return nil, apperrors.ErrConflict
}

// Clear deletes the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readLines(ctx context.Context, c hashReader, key string) ([]domain.CartLine, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(fields))
	for field, value := range fields {
		line, err := domain.DecodeCartLineJSON([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("cart line %s: %w", field, err)
		}
		if line.ID == "" {
			line.ID = field
		}
		lines = append(lines, line)
	}
	sortLines(lines)
	return lines, nil
}

func sortLines(lines []domain.CartLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lines[i].AddedAt.Before(lines[j].AddedAt)
		}
		return lines[i].ID < lines[j].ID
	})
}
