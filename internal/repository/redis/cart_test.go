package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr, client
}

func sampleLine(id string, added time.Time) domain.CartLine {
	return domain.CartLine{
		ID:      id,
		Kind:    domain.KindCoffee,
		ItemID:  "americano",
		Name:    "Americano",
		Prices:  []domain.LinePrice{{Size: "M", Price: 4, Quantity: 1, Currency: "$"}},
		AddedAt: added,
	}
}

func appendLine(line domain.CartLine) func([]domain.CartLine) ([]domain.CartLine, error) {
	return func(lines []domain.CartLine) ([]domain.CartLine, error) {
		return append(lines, line), nil
	}
}

// ---------------------------------------------------------------------------
// Lines
// ---------------------------------------------------------------------------

func TestCartRepository_Lines_Empty(t *testing.T) {
	repo, _, _ := setupTestRedis(t)

	lines, err := repo.Lines(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)
}

func TestCartRepository_Lines_NormalizesLegacyDocuments(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)

	mr.HSet("cart:user-1", "legacy-1", `{"name":"Latte","totalPrice":"5.5"}`)
	mr.HSet("cart:user-1", "legacy-2",
		`{"id":"legacy-2","name":"Mocha","added_at":"2024-01-02T00:00:00Z","prices":{"0":{"size":"L","price":"6","quantity":"2"}}}`)

	lines, err := repo.Lines(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "legacy-1", lines[0].ID, "missing added_at sorts first")
	assert.Equal(t, 5.5, lines[0].Prices[0].Price)
	assert.Equal(t, 1, lines[0].Quantity())

	assert.Equal(t, "L", lines[1].Size())
	assert.Equal(t, 12.0, lines[1].TotalPrice)
}

func TestCartRepository_Lines_CorruptDocument(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	mr.HSet("cart:user-1", "bad", "{")

	_, err := repo.Lines(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestCartRepository_Lines_ConnectionError(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	mr.Close()

	_, err := repo.Lines(context.Background(), "user-1")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Mutate
// ---------------------------------------------------------------------------

func TestCartRepository_Mutate_StoresLinesWithTTL(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Mutate(context.Background(), "user-1", appendLine(sampleLine("b", t0.Add(time.Minute))))
	require.NoError(t, err)
	lines, err := repo.Mutate(context.Background(), "user-1", appendLine(sampleLine("a", t0)))
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ID)
	assert.Equal(t, "b", lines[1].ID)

	assert.Equal(t, 24*time.Hour, mr.TTL("cart:user-1"))

	raw := mr.HGet("cart:user-1", "a")
	var stored domain.CartLine
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "americano", stored.ItemID)
}

func TestCartRepository_Mutate_RemovesDroppedLines(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	t0 := time.Now().UTC()

	_, err := repo.Mutate(context.Background(), "user-1", func([]domain.CartLine) ([]domain.CartLine, error) {
		return []domain.CartLine{sampleLine("a", t0), sampleLine("b", t0)}, nil
	})
	require.NoError(t, err)

	lines, err := repo.Mutate(context.Background(), "user-1", func(lines []domain.CartLine) ([]domain.CartLine, error) {
		return lines[:1], nil
	})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	keys, err := mr.HKeys("cart:user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	_, err = repo.Mutate(context.Background(), "user-1", func([]domain.CartLine) ([]domain.CartLine, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:user-1"))
}

func TestCartRepository_Mutate_FnErrorLeavesCartUntouched(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	_, err := repo.Mutate(context.Background(), "user-1", appendLine(sampleLine("a", time.Now().UTC())))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = repo.Mutate(context.Background(), "user-1", func([]domain.CartLine) ([]domain.CartLine, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	keys, err := mr.HKeys("cart:user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)
}

func TestCartRepository_Mutate_RetriesOnConcurrentWrite(t *testing.T) {
	repo, _, client := setupTestRedis(t)
	ctx := context.Background()

	calls := 0
	lines, err := repo.Mutate(ctx, "user-1", func(lines []domain.CartLine) ([]domain.CartLine, error) {
		calls++
		if calls == 1 {
			// Another device writes between our read and our EXEC.
			data, _ := json.Marshal(sampleLine("other", time.Now().UTC()))
			require.NoError(t, client.HSet(ctx, "cart:user-1", "other", data).Err())
		}
		return append(lines, sampleLine("mine", time.Now().UTC())), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, lines, 2, "the retry sees the concurrent line")
}

func TestCartRepository_Mutate_ConflictAfterRetries(t *testing.T) {
	repo, _, client := setupTestRedis(t)
	ctx := context.Background()

	calls := 0
	_, err := repo.Mutate(ctx, "user-1", func(lines []domain.CartLine) ([]domain.CartLine, error) {
		calls++
		require.NoError(t, client.HSet(ctx, "cart:user-1", "noise", `{"id":"noise"}`).Err())
		return lines, nil
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, DefaultMaxRetries, calls)
}

// ---------------------------------------------------------------------------
// Clear
// ---------------------------------------------------------------------------

func TestCartRepository_Clear(t *testing.T) {
	repo, mr, _ := setupTestRedis(t)
	mr.HSet("cart:user-1", "a", `{"id":"a"}`)

	require.NoError(t, repo.Clear(context.Background(), "user-1"))
	assert.False(t, mr.Exists("cart:user-1"))

	require.NoError(t, repo.Clear(context.Background(), "user-1"), "clearing an empty cart is fine")
}
