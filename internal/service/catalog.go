package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	"github.com/Penlika/CoffeeShopApp/pkg/pagination"
)

// AllCategory is the catch-all category shown before the item names.
const AllCategory = "All"

// CatalogService serves read-only catalog queries.
type CatalogService struct {
	items  repository.ItemRepository
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(items repository.ItemRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		items:  items,
		logger: logger,
	}
}

// ListItems returns one page of items of a kind ordered by name, optionally
// filtered by a case-insensitive name substring. The AllCategory chip
// applies no filter.
func (s *CatalogService) ListItems(ctx context.Context, kind domain.ItemKind, name string, page pagination.Params) (*pagination.Result[domain.Item], error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if strings.EqualFold(name, AllCategory) {
		name = ""
	}

	items, total, err := s.items.List(ctx, domain.ItemFilter{
		Kind:   kind,
		Name:   name,
		Limit:  page.Limit(),
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, storeError("list items", "items", string(kind), err)
	}

	result := pagination.NewResult(items, total, page)
	return &result, nil
}

// GetItem returns a single item.
func (s *CatalogService) GetItem(ctx context.Context, ref domain.ItemRef) (*domain.Item, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	item, err := s.items.Get(ctx, ref)
	if err != nil {
		return nil, storeError("get item", "item", ref.String(), err)
	}
	return item, nil
}

// ListCategories returns "All" followed by the distinct item names of kind.
func (s *CatalogService) ListCategories(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	names, err := s.items.Names(ctx, kind)
	if err != nil {
		return nil, storeError("list item names", "items", string(kind), err)
	}
	return append([]string{AllCategory}, names...), nil
}
