package usecase_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type categoryRepoMock struct{ mock.Mock }

func (m *categoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Category)
	return list, args.Error(1)
}

func (m *categoryRepoMock) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *categoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Category)
	return out, args.Error(1)
}

func newCatalogUsecase() (*usecase.CatalogUsecase, *categoryRepoMock, *productRepoMock, *cacheMock) {
	categories := new(categoryRepoMock)
	products := new(productRepoMock)
	cache := new(cacheMock)
	return usecase.NewCatalogUsecase(categories, products, cache, zap.NewNop()), categories, products, cache
}

func TestCatalogUsecase_ListCategories_CacheHit(t *testing.T) {
	uc, categories, _, cache := newCatalogUsecase()
	cache.On("Get", mock.Anything, "categories", mock.Anything).
		Run(func(args mock.Arguments) {
			dst := args.Get(2).(*[]model.Category)
			*dst = []model.Category{{ID: 1, Slug: "skincare"}}
		}).
		Return(true)

	list, err := uc.ListCategories(context.Background())
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "skincare", list[0].Slug)
	categories.AssertNotCalled(t, "List", mock.Anything)
}

func TestCatalogUsecase_ListCategories_CacheMiss_Fills(t *testing.T) {
	uc, categories, _, cache := newCatalogUsecase()
	want := []model.Category{{ID: 1, Slug: "skincare"}, {ID: 2, Slug: "maquiagem"}}
	cache.On("Get", mock.Anything, "categories", mock.Anything).Return(false)
	categories.On("List", mock.Anything).Return(want, nil)
	cache.On("Set", mock.Anything, "categories", want).Return()

	list, err := uc.ListCategories(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, want, list)
	cache.AssertExpectations(t)
}

func TestCatalogUsecase_ListCategories_StoreFailure_NotCached(t *testing.T) {
	uc, categories, _, cache := newCatalogUsecase()
	cache.On("Get", mock.Anything, "categories", mock.Anything).Return(false)
	categories.On("List", mock.Anything).Return(nil, errors.New("db down"))

	list, err := uc.ListCategories(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, list)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogUsecase_ListProducts_Validation(t *testing.T) {
	uc, _, products, _ := newCatalogUsecase()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertKind(t, err, usecase.ErrValidation, 400)

	_, err = uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 101})
	assertKind(t, err, usecase.ErrValidation, 400)

	_, err = uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "name"})
	assertKind(t, err, usecase.ErrValidation, 400)

	products.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCatalogUsecase_ListProducts_StoreFailure_ReturnsEmpty(t *testing.T) {
	uc, _, products, _ := newCatalogUsecase()
	products.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("db down"))

	out, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 2, Limit: 10})
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 10, out.Limit)
}

func TestCatalogUsecase_Search_EmptyQuery(t *testing.T) {
	uc, _, products, _ := newCatalogUsecase()

	list, err := uc.Search(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Empty(t, list)
	products.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogUsecase_Search(t *testing.T) {
	uc, _, products, _ := newCatalogUsecase()
	products.On("Search", mock.Anything, "sérum", 20).Return([]model.Product{{ID: 10, Name: "Sérum Vitamina C"}}, nil)

	list, err := uc.Search(context.Background(), " sérum ")
	assert.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogUsecase_GetProductBySlug_NotFound(t *testing.T) {
	uc, _, products, _ := newCatalogUsecase()
	products.On("FindBySlug", mock.Anything, "nope").Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.GetProductBySlug(context.Background(), "nope")
	assertKind(t, err, usecase.ErrNotFound, 404)
}

func TestCatalogUsecase_ListByCategorySlug(t *testing.T) {
	uc, categories, products, _ := newCatalogUsecase()
	categories.On("FindBySlug", mock.Anything, "skincare").Return(model.Category{ID: 3, Slug: "skincare"}, nil)
	products.On("List", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.CategoryID != nil && *q.CategoryID == 3 && q.Page == 1 && q.Limit == 20
	})).Return([]model.Product{{ID: 10}}, int64(1), nil)

	out, err := uc.ListByCategorySlug(context.Background(), "skincare", 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), out.Category.ID)
	assert.Equal(t, int64(1), out.Total)
}

func TestCatalogUsecase_ListFeatured_CachesResult(t *testing.T) {
	uc, _, products, cache := newCatalogUsecase()
	want := []model.Product{{ID: 10, Rating: 48}}
	cache.On("Get", mock.Anything, "products:featured", mock.Anything).Return(false)
	products.On("ListFeatured", mock.Anything, 8).Return(want, nil)
	cache.On("Set", mock.Anything, "products:featured", want).Return()

	list, err := uc.ListFeatured(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, want, list)
	cache.AssertExpectations(t)
}
