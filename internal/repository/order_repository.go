package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	//注文ID or 追跡番号
	Q      string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// ステータス更新で書き換える列
type OrderStatusUpdate struct {
	Status        model.OrderStatus
	TrackingCode  *string
	PaymentStatus *model.PaymentStatus
}

type OrderStats struct {
	TotalOrders   int64 `json:"total_orders"`
	TotalRevenue  int64 `json:"total_revenue"`
	PendingOrders int64 `json:"pending_orders"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//行ロック付き（ステータス更新用）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	//保存後の行（ID・created_at 入り）を返す
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, upd OrderStatusUpdate) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Stats(ctx context.Context) (OrderStats, error)
}
