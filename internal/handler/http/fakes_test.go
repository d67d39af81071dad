package http

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/rating"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// In-memory repositories backing the real services in handler tests.

type memStore struct {
	mu        sync.Mutex
	items     map[domain.ItemRef]*domain.Item
	comments  map[domain.ItemRef][]domain.Comment
	carts     map[string][]domain.CartLine
	favorites map[string][]domain.Favorite
	orders    map[string]*domain.Order
	cards     map[string]*domain.SavedCard
}

func newMemStore(items ...domain.Item) *memStore {
	s := &memStore{
		items:     make(map[domain.ItemRef]*domain.Item),
		comments:  make(map[domain.ItemRef][]domain.Comment),
		carts:     make(map[string][]domain.CartLine),
		favorites: make(map[string][]domain.Favorite),
		orders:    make(map[string]*domain.Order),
		cards:     make(map[string]*domain.SavedCard),
	}
	for i := range items {
		it := items[i]
		s.items[it.Ref()] = &it
	}
	return s
}

type memItems struct{ *memStore }

func (m memItems) Get(_ context.Context, ref domain.ItemRef) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[ref]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m memItems) List(_ context.Context, f domain.ItemFilter) ([]domain.Item, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Item
	for _, it := range m.items {
		if it.Kind == f.Kind && strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
			all = append(all, *it)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if f.Offset >= total {
		return []domain.Item{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return all[f.Offset:end], total, nil
}

func (m memItems) Names(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	items, _, err := m.List(ctx, domain.ItemFilter{Kind: kind, Limit: 1000})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names, nil
}

func (m memItems) Upsert(_ context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items[item.Ref()] = &cp
	return nil
}

type memComments struct{ *memStore }

func (m memComments) List(_ context.Context, ref domain.ItemRef) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Comment(nil), m.comments[ref]...), nil
}

func (m memComments) ApplyRatingChange(_ context.Context, ref domain.ItemRef, plan repository.PlanFunc) (rating.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[ref]
	if !ok {
		return rating.Plan{}, apperrors.ErrNotFound
	}
	p, err := plan(append([]domain.Comment(nil), m.comments[ref]...))
	if err != nil || !p.Changed {
		return p, err
	}
	var kept []domain.Comment
	for _, c := range m.comments[ref] {
		if c.ID == p.DeleteID || (p.Upsert != nil && c.ID == p.Upsert.ID) {
			continue
		}
		kept = append(kept, c)
	}
	if p.Upsert != nil {
		kept = append(kept, *p.Upsert)
	}
	m.comments[ref] = kept
	item.AverageRating = p.Summary.AverageRating
	item.RatingsCount = p.Summary.RatingsCount
	return p, nil
}

type memCarts struct{ *memStore }

func (m memCarts) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.carts[userID]...), nil
}

func (m memCarts) Mutate(_ context.Context, userID string, fn func([]domain.CartLine) ([]domain.CartLine, error)) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(append([]domain.CartLine(nil), m.carts[userID]...))
	if err != nil {
		return nil, err
	}
	m.carts[userID] = next
	return append([]domain.CartLine(nil), next...), nil
}

func (m memCarts) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

type memFavorites struct{ *memStore }

func (m memFavorites) Add(_ context.Context, fav *domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.favorites[fav.UserID] {
		if f.Kind == fav.Kind && f.ItemID == fav.ItemID {
			return nil
		}
	}
	m.favorites[fav.UserID] = append(m.favorites[fav.UserID], *fav)
	return nil
}

func (m memFavorites) Remove(_ context.Context, userID string, ref domain.ItemRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Favorite
	for _, f := range m.favorites[userID] {
		if f.Kind != ref.Kind || f.ItemID != ref.ID {
			kept = append(kept, f)
		}
	}
	m.favorites[userID] = kept
	return nil
}

func (m memFavorites) List(_ context.Context, userID string) ([]domain.FavoriteItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.FavoriteItem, 0)
	favs := m.favorites[userID]
	for i := len(favs) - 1; i >= 0; i-- {
		ref := domain.ItemRef{Kind: favs[i].Kind, ID: favs[i].ItemID}
		if it, ok := m.items[ref]; ok {
			out = append(out, domain.FavoriteItem{Item: *it, FavoritedAt: favs[i].CreatedAt})
		}
	}
	return out, nil
}

type memOrders struct{ *memStore }

func (m memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ProviderOrderID] = &cp
	return nil
}

func (m memOrders) GetByProviderOrderID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m memOrders) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			o.PaymentStatus = status
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m memOrders) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.After(out[j].OrderedAt) })
	total := len(out)
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

type memCards struct{ *memStore }

func (m memCards) Save(_ context.Context, c *domain.SavedCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.cards[c.UserID] = &cp
	return nil
}

func (m memCards) Get(_ context.Context, userID string) (*domain.SavedCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type nopEvents struct{}

func (nopEvents) PublishRatingUpdated(context.Context, event.RatingUpdatedData) error { return nil }
func (nopEvents) PublishCartUpdated(context.Context, string, domain.Cart) error      { return nil }
func (nopEvents) PublishCartCleared(context.Context, string) error                   { return nil }
func (nopEvents) PublishOrderPlaced(context.Context, *domain.Order) error            { return nil }
