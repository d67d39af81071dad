package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
	"github.com/Penlika/CoffeeShopApp/pkg/pagination"
)

func TestListItems_Paginates(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())

	want := domain.ItemFilter{Kind: domain.KindCoffee, Name: "latte", Limit: 2, Offset: 2}
	items.On("List", mock.Anything, want).Return([]domain.Item{*newLatte()}, 3, nil)

	res, err := svc.ListItems(context.Background(), domain.KindCoffee, " latte ", pagination.Params{Page: 2, PerPage: 2})
	require.NoError(t, err)

	assert.Len(t, res.Data, 1)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
	items.AssertExpectations(t)
}

func TestListItems_AllCategoryIsNoFilter(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())

	want := domain.ItemFilter{Kind: domain.KindCoffee, Name: "", Limit: 20, Offset: 0}
	items.On("List", mock.Anything, want).Return([]domain.Item{*newLatte()}, 1, nil)

	for _, name := range []string{AllCategory, " all "} {
		res, err := svc.ListItems(context.Background(), domain.KindCoffee, name, pagination.DefaultParams())
		require.NoError(t, err)
		assert.Len(t, res.Data, 1)
	}
	items.AssertNumberOfCalls(t, "List", 2)
}

func TestListItems_UnknownKind(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())

	_, err := svc.ListItems(context.Background(), "pastry", "", pagination.DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), `unknown item kind "pastry"`)
	items.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListItems_StoreFailure(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())
	items.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("pool closed"))

	_, err := svc.ListItems(context.Background(), domain.KindTea, "", pagination.DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "list items: pool closed")
}

func TestGetItem(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())
	items.On("Get", mock.Anything, latteRef).Return(newLatte(), nil)
	missing := domain.ItemRef{Kind: domain.KindCoffee, ID: "C404"}
	items.On("Get", mock.Anything, missing).Return(nil, apperrors.ErrNotFound)

	item, err := svc.GetItem(context.Background(), latteRef)
	require.NoError(t, err)
	assert.Equal(t, "Cappuccino", item.Name)

	_, err = svc.GetItem(context.Background(), missing)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestListCategories_PrefixesAll(t *testing.T) {
	items := new(mockItemRepository)
	svc := NewCatalogService(items, newTestLogger())
	items.On("Names", mock.Anything, domain.KindCoffee).Return([]string{"Americano", "Cappuccino"}, nil)

	got, err := svc.ListCategories(context.Background(), domain.KindCoffee)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Americano", "Cappuccino"}, got)
}
