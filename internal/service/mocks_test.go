package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/provider"
	"github.com/Penlika/CoffeeShopApp/internal/rating"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Item repository ---

type mockItemRepository struct {
	mock.Mock
}

func (m *mockItemRepository) Get(ctx context.Context, ref domain.ItemRef) (*domain.Item, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *mockItemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Item), args.Int(1), args.Error(2)
}

func (m *mockItemRepository) Names(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockItemRepository) Upsert(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

// --- Comment repository ---

// fakeCommentRepository keeps comments in memory and applies plans the way
// the Postgres repository does.
type fakeCommentRepository struct {
	mu       sync.Mutex
	comments map[domain.ItemRef][]domain.Comment
	items    map[domain.ItemRef]*domain.Item
	err      error
	calls    int
}

func newFakeCommentRepository(items ...*domain.Item) *fakeCommentRepository {
	f := &fakeCommentRepository{
		comments: make(map[domain.ItemRef][]domain.Comment),
		items:    make(map[domain.ItemRef]*domain.Item),
	}
	for _, it := range items {
		f.items[it.Ref()] = it
	}
	return f
}

func (f *fakeCommentRepository) List(_ context.Context, ref domain.ItemRef) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Comment(nil), f.comments[ref]...), nil
}

func (f *fakeCommentRepository) ApplyRatingChange(_ context.Context, ref domain.ItemRef, plan repository.PlanFunc) (rating.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return rating.Plan{}, f.err
	}
	item, ok := f.items[ref]
	if !ok {
		return rating.Plan{}, apperrors.ErrNotFound
	}

	existing := append([]domain.Comment(nil), f.comments[ref]...)
	p, err := plan(existing)
	if err != nil || !p.Changed {
		return p, err
	}

	stored := f.comments[ref]
	if p.Upsert != nil {
		replaced := false
		for i := range stored {
			if stored[i].ID == p.Upsert.ID {
				stored[i] = *p.Upsert
				replaced = true
			}
		}
		if !replaced {
			stored = append(stored, *p.Upsert)
		}
	}
	if p.DeleteID != "" {
		kept := stored[:0]
		for _, c := range stored {
			if c.ID != p.DeleteID {
				kept = append(kept, c)
			}
		}
		stored = kept
	}
	f.comments[ref] = stored
	item.AverageRating = p.Summary.AverageRating
	item.RatingsCount = p.Summary.RatingsCount
	return p, nil
}

// --- Cart repository ---

// fakeCartRepository keeps carts in memory. Mutate runs fn once per call,
// or returns err when set.
type fakeCartRepository struct {
	mu    sync.Mutex
	carts map[string][]domain.CartLine
	err   error
}

func newFakeCartRepository() *fakeCartRepository {
	return &fakeCartRepository{carts: make(map[string][]domain.CartLine)}
}

func (f *fakeCartRepository) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.CartLine(nil), f.carts[userID]...), nil
}

func (f *fakeCartRepository) Mutate(_ context.Context, userID string, fn func([]domain.CartLine) ([]domain.CartLine, error)) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	next, err := fn(append([]domain.CartLine(nil), f.carts[userID]...))
	if err != nil {
		return nil, err
	}
	f.carts[userID] = next
	return append([]domain.CartLine(nil), next...), nil
}

func (f *fakeCartRepository) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.carts, userID)
	return nil
}

// --- Favorite repository ---

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, fav *domain.Favorite) error {
	return m.Called(ctx, fav).Error(0)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID string, ref domain.ItemRef) error {
	return m.Called(ctx, userID, ref).Error(0)
}

func (m *mockFavoriteRepository) List(ctx context.Context, userID string) ([]domain.FavoriteItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FavoriteItem), args.Error(1)
}

// --- Order repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error) {
	args := m.Called(ctx, providerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Card repository ---

type mockCardRepository struct {
	mock.Mock
}

func (m *mockCardRepository) Save(ctx context.Context, card *domain.SavedCard) error {
	return m.Called(ctx, card).Error(0)
}

func (m *mockCardRepository) Get(ctx context.Context, userID string) (*domain.SavedCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedCard), args.Error(1)
}

// --- Event publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishRatingUpdated(ctx context.Context, data event.RatingUpdatedData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEventPublisher) PublishCartUpdated(ctx context.Context, userID string, cart domain.Cart) error {
	return m.Called(ctx, userID, cart).Error(0)
}

func (m *mockEventPublisher) PublishCartCleared(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockEventPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

// --- Payment provider ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string {
	return "PayPal"
}

func (m *mockProvider) CreateOrder(ctx context.Context, input provider.CreateOrderInput) (*provider.CreateOrderResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CreateOrderResult), args.Error(1)
}

func (m *mockProvider) CaptureOrder(ctx context.Context, providerOrderID, payerID string) (*provider.CaptureResult, error) {
	args := m.Called(ctx, providerOrderID, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CaptureResult), args.Error(1)
}
