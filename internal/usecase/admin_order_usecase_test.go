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

type adminOrderFixture struct {
	uc         *usecase.AdminOrderUsecase
	orders     *orderRepoMock
	orderItems *orderItemRepoMock
	products   *productRepoMock
	audit      *auditRepoMock
}

func newAdminOrderFixture() *adminOrderFixture {
	f := &adminOrderFixture{
		orders:     new(orderRepoMock),
		orderItems: new(orderItemRepoMock),
		products:   new(productRepoMock),
		audit:      new(auditRepoMock),
	}
	f.uc = usecase.NewAdminOrderUsecase(f.orders, f.orderItems, f.products, f.audit, zap.NewNop())
	return f
}

func TestAdminOrderUsecase_Dashboard(t *testing.T) {
	f := newAdminOrderFixture()
	f.products.On("Count", mock.Anything).Return(int64(24), nil)
	f.orders.On("Stats", mock.Anything).Return(repo.OrderStats{TotalOrders: 3, TotalRevenue: 15470, PendingOrders: 1}, nil)

	out, err := f.uc.Dashboard(context.Background(), adminActor)
	assert.NoError(t, err)
	assert.Equal(t, int64(24), out.TotalProducts)
	assert.Equal(t, int64(3), out.TotalOrders)
	assert.Equal(t, int64(1), out.PendingOrders)
	assert.Equal(t, "R$ 154,70", out.TotalRevenueDisplay)
}

func TestAdminOrderUsecase_Dashboard_StoreFailure_Zeroes(t *testing.T) {
	f := newAdminOrderFixture()
	f.products.On("Count", mock.Anything).Return(int64(0), errors.New("db down"))
	f.orders.On("Stats", mock.Anything).Return(nil, errors.New("db down"))

	out, err := f.uc.Dashboard(context.Background(), adminActor)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.TotalOrders)
}

func TestAdminOrderUsecase_Dashboard_Forbidden(t *testing.T) {
	f := newAdminOrderFixture()

	_, err := f.uc.Dashboard(context.Background(), userActor)
	assertKind(t, err, usecase.ErrUnauthorized, 403)
	f.orders.AssertNotCalled(t, "Stats", mock.Anything)
}

func TestAdminOrderUsecase_List_Validation(t *testing.T) {
	f := newAdminOrderFixture()
	ctx := context.Background()

	_, err := f.uc.List(ctx, adminActor, usecase.AdminOrderListInput{Page: 1, Limit: 20, Status: "lost"})
	assertKind(t, err, usecase.ErrValidation, 400)

	_, err = f.uc.List(ctx, adminActor, usecase.AdminOrderListInput{Page: 1, Limit: 20, From: "yesterday"})
	assertKind(t, err, usecase.ErrValidation, 400)

	_, err = f.uc.List(ctx, adminActor, usecase.AdminOrderListInput{Page: 1, Limit: 0})
	assertKind(t, err, usecase.ErrValidation, 400)

	f.orders.AssertNotCalled(t, "ListAdmin", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_List_Filters(t *testing.T) {
	f := newAdminOrderFixture()
	uid := int64(2)
	f.orders.On("ListAdmin", mock.Anything, mock.MatchedBy(func(q repo.AdminOrderListFilter) bool {
		return q.Status == "paid" &&
			q.Q == "BR123" &&
			q.UserID != nil && *q.UserID == 2 &&
			q.From != nil && q.To == nil
	})).Return([]model.Order{{ID: 9, UserID: 2, Status: model.OrderStatusPaid}}, int64(1), nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{}, nil)

	out, err := f.uc.List(context.Background(), adminActor, usecase.AdminOrderListInput{
		Page: 1, Limit: 20, Status: "paid", Q: " BR123 ", UserID: &uid, From: "2026-01-01T00:00:00Z",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
}

func TestAdminOrderUsecase_ListAuditLogs_NormalizesFilter(t *testing.T) {
	f := newAdminOrderFixture()
	f.audit.On("List", mock.Anything, mock.MatchedBy(func(q repo.AuditLogFilter) bool {
		return q.Action != nil && *q.Action == model.AuditActionUpdateStock &&
			q.ResourceType != nil && *q.ResourceType == model.AuditResourceProduct &&
			q.Limit == 50
	})).Return([]model.AuditLog{{ID: 1}}, nil)

	logs, err := f.uc.ListAuditLogs(context.Background(), adminActor, usecase.AuditLogListInput{
		Action: "update_stock", ResourceType: "Product", Limit: 50,
	})
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
}
