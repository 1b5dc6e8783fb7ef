package usecase_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newCartUsecase() (*usecase.CartUsecase, *cartItemRepoMock, *productRepoMock) {
	items := new(cartItemRepoMock)
	products := new(productRepoMock)
	return usecase.NewCartUsecase(items, products, pricing.DefaultPolicy(), zap.NewNop()), items, products
}

func TestCartUsecase_GetCart_Totals(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("ListByUserID", mock.Anything, int64(2)).Return([]model.CartItem{
		{ID: 1, ProductID: 10, Quantity: 2, Product: &model.Product{ID: 10, Name: "Sérum", Price: 4990, Stock: 8}},
		{ID: 2, ProductID: 11, Quantity: 1, Product: &model.Product{ID: 11, Name: "Batom", Price: 2990, Stock: 1}},
	}, nil)

	out, err := uc.GetCart(context.Background(), 2)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(3), out.ItemCount)
	assert.Equal(t, int64(12970), out.Subtotal)
	assert.Equal(t, int64(1500), out.Shipping)
	assert.Equal(t, int64(14470), out.Total)
	assert.True(t, out.Items[0].Available)
	assert.Equal(t, int64(9980), out.Items[0].Subtotal)
}

func TestCartUsecase_GetCart_DeletedProduct_NotCounted(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("ListByUserID", mock.Anything, int64(2)).Return([]model.CartItem{
		{ID: 1, ProductID: 10, Quantity: 1, Product: &model.Product{ID: 10, Name: "Sérum", Price: 16000}},
		{ID: 2, ProductID: 12, Quantity: 3},
	}, nil)

	out, err := uc.GetCart(context.Background(), 2)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.False(t, out.Items[1].Available)
	assert.Equal(t, int64(1), out.ItemCount)
	assert.Equal(t, int64(16000), out.Subtotal)
	assert.Equal(t, int64(0), out.Shipping)
}

func TestCartUsecase_GetCart_Empty_ZeroShipping(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("ListByUserID", mock.Anything, int64(2)).Return([]model.CartItem{}, nil)

	out, err := uc.GetCart(context.Background(), 2)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
	assert.Equal(t, int64(0), out.Shipping)
}

func TestCartUsecase_GetCart_StoreFailure_ReturnsEmpty(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("ListByUserID", mock.Anything, int64(2)).Return(nil, errors.New("db down"))

	out, err := uc.GetCart(context.Background(), 2)
	assert.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
}

func TestCartUsecase_GetCart_Unauthorized(t *testing.T) {
	uc, items, _ := newCartUsecase()

	_, err := uc.GetCart(context.Background(), 0)
	assertKind(t, err, usecase.ErrUnauthorized, 401)
	items.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_DefaultQuantityOne(t *testing.T) {
	uc, items, products := newCartUsecase()
	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Price: 4990}, nil)
	items.On("AddQuantity", mock.Anything, int64(2), int64(10), int64(1)).Return(nil)
	items.On("ListByUserID", mock.Anything, int64(2)).Return([]model.CartItem{
		{ID: 1, ProductID: 10, Quantity: 1, Product: &model.Product{ID: 10, Price: 4990}},
	}, nil)

	out, err := uc.AddToCart(context.Background(), 2, usecase.AddCartInput{ProductID: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.ItemCount)
	items.AssertExpectations(t)
}

func TestCartUsecase_AddToCart_UnknownProduct(t *testing.T) {
	uc, items, products := newCartUsecase()
	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AddToCart(context.Background(), 2, usecase.AddCartInput{ProductID: 10, Quantity: 2})
	assertKind(t, err, usecase.ErrNotFound, 404)
	items.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_StoreFailure_Unavailable(t *testing.T) {
	uc, items, products := newCartUsecase()
	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10}, nil)
	items.On("AddQuantity", mock.Anything, int64(2), int64(10), int64(1)).Return(errors.New("db down"))

	_, err := uc.AddToCart(context.Background(), 2, usecase.AddCartInput{ProductID: 10, Quantity: 1})
	assertKind(t, err, usecase.ErrStoreUnavailable, 503)
}

func TestCartUsecase_UpdateCartItem_QuantityBelowOne(t *testing.T) {
	uc, items, _ := newCartUsecase()

	_, err := uc.UpdateCartItem(context.Background(), 2, 1, usecase.UpdateCartItemInput{Quantity: 0})
	assertKind(t, err, usecase.ErrValidation, 400)
	items.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_UpdateCartItem_OtherUsersLine_NotFound(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("UpdateQuantity", mock.Anything, int64(2), int64(99), int64(3)).Return(repo.ErrNotFound)

	_, err := uc.UpdateCartItem(context.Background(), 2, 99, usecase.UpdateCartItemInput{Quantity: 3})
	assertKind(t, err, usecase.ErrNotFound, 404)
}

func TestCartUsecase_RemoveCartItem(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("DeleteByID", mock.Anything, int64(2), int64(1)).Return(nil)
	items.On("ListByUserID", mock.Anything, int64(2)).Return([]model.CartItem{}, nil)

	out, err := uc.RemoveCartItem(context.Background(), 2, 1)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestCartUsecase_ClearCart(t *testing.T) {
	uc, items, _ := newCartUsecase()
	items.On("ClearByUserID", mock.Anything, int64(2)).Return(nil)

	assert.NoError(t, uc.ClearCart(context.Background(), 2))
	items.AssertExpectations(t)
}
