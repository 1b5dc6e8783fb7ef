package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos
// =====================

// WithinTx の中で渡す repos を固定する
type txManagerMock struct {
	mock.Mock
	repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.repos)
}

type txReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	reviews    repo.ReviewRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposMock) Products() repo.ProductRepository     { return r.products }
func (r *txReposMock) Reviews() repo.ReviewRepository       { return r.reviews }
func (r *txReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

// DB が振ったつもりの時刻
var storedOrderTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Return には採番される ID を渡す。成功時は gorm と同じく ID と時刻を埋めて返す
func (m *orderRepoMock) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	if err := args.Error(1); err != nil {
		return model.Order{}, err
	}
	order.ID = args.Get(0).(int64)
	order.CreatedAt, order.UpdatedAt = storedOrderTime, storedOrderTime
	return order, nil
}

func (m *orderRepoMock) UpdateStatus(ctx context.Context, orderID int64, upd repo.OrderStatusUpdate) error {
	args := m.Called(ctx, orderID, upd)
	return args.Error(0)
}

func (m *orderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Stats(ctx context.Context) (repo.OrderStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(repo.OrderStats)
	return s, args.Error(1)
}

type orderItemRepoMock struct{ mock.Mock }

func (m *orderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *orderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type cartItemRepoMock struct{ mock.Mock }

func (m *cartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *cartItemRepoMock) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *cartItemRepoMock) AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *cartItemRepoMock) UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) error {
	args := m.Called(ctx, userID, cartItemID, qty)
	return args.Error(0)
}

func (m *cartItemRepoMock) DeleteByID(ctx context.Context, userID int64, cartItemID int64) error {
	args := m.Called(ctx, userID, cartItemID)
	return args.Error(0)
}

func (m *cartItemRepoMock) ClearByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type inventoryRepoMock struct{ mock.Mock }

func (m *inventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *inventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *inventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *inventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

func (m *productRepoMock) Search(ctx context.Context, q string, limit int) ([]model.Product, error) {
	args := m.Called(ctx, q, limit)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *productRepoMock) UpdateRating(ctx context.Context, id int64, rating int, reviewCount int) error {
	args := m.Called(ctx, id, rating, reviewCount)
	return args.Error(0)
}

func (m *productRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type reviewRepoMock struct{ mock.Mock }

func (m *reviewRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	args := m.Called(ctx, productID)
	list, _ := args.Get(0).([]model.Review)
	return list, args.Error(1)
}

func (m *reviewRepoMock) Create(ctx context.Context, r model.Review) (model.Review, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(model.Review)
	return out, args.Error(1)
}

func (m *reviewRepoMock) Aggregate(ctx context.Context, productID int64) (repo.ReviewAggregate, error) {
	args := m.Called(ctx, productID)
	a, _ := args.Get(0).(repo.ReviewAggregate)
	return a, args.Error(1)
}

type auditRepoMock struct{ mock.Mock }

func (m *auditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *auditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type addressRepoMock struct{ mock.Mock }

func (m *addressRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *addressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *addressRepoMock) FindForUser(ctx context.Context, userID, addressID int64) (model.Address, error) {
	args := m.Called(ctx, userID, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *addressRepoMock) Update(ctx context.Context, a model.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *addressRepoMock) Delete(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

func (m *addressRepoMock) SetDefault(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type refreshTokenRepoMock struct{ mock.Mock }

func (m *refreshTokenRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *refreshTokenRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *refreshTokenRepoMock) MarkUsed(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *refreshTokenRepoMock) Revoke(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *refreshTokenRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *refreshTokenRepoMock) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// =====================
// ports
// =====================

type cacheMock struct{ mock.Mock }

func (m *cacheMock) Get(ctx context.Context, key string, dst any) bool {
	args := m.Called(ctx, key, dst)
	return args.Bool(0)
}

func (m *cacheMock) Set(ctx context.Context, key string, v any) {
	m.Called(ctx, key, v)
}

func (m *cacheMock) Del(ctx context.Context, keys ...string) {
	m.Called(ctx, keys)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishOrderPlaced(ctx context.Context, e event.OrderPlaced) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *publisherMock) PublishOrderStatusChanged(ctx context.Context, e event.OrderStatusChanged) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

var (
	_ repo.OrderRepository        = (*orderRepoMock)(nil)
	_ repo.OrderItemRepository    = (*orderItemRepoMock)(nil)
	_ repo.CartItemRepository     = (*cartItemRepoMock)(nil)
	_ repo.InventoryRepository    = (*inventoryRepoMock)(nil)
	_ repo.ProductRepository      = (*productRepoMock)(nil)
	_ repo.ReviewRepository       = (*reviewRepoMock)(nil)
	_ repo.AuditLogRepository     = (*auditRepoMock)(nil)
	_ repo.AddressRepository      = (*addressRepoMock)(nil)
	_ repo.UserRepository         = (*userRepoMock)(nil)
	_ repo.RefreshTokenRepository = (*refreshTokenRepoMock)(nil)
	_ repo.TransactionManager     = (*txManagerMock)(nil)
	_ usecase.CatalogCache        = (*cacheMock)(nil)
	_ usecase.OrderEventPublisher = (*publisherMock)(nil)
)

// =====================
// helper
// =====================

func assertKind(t *testing.T, err error, kind error, status int) {
	t.Helper()

	assert.Error(t, err)
	assert.True(t, errors.Is(err, kind), "unexpected error: %v", err)

	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok) {
		assert.Equal(t, status, he.Status)
	}
}

var (
	adminActor = usecase.Actor{UserID: 1, Role: model.RoleAdmin}
	userActor  = usecase.Actor{UserID: 2, Role: model.RoleUser}
)
