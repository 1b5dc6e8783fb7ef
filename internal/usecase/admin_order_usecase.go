package usecase

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 管理画面（注文一覧・ダッシュボード・監査ログ）
type AdminOrderUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
	auditRepo  repo.AuditLogRepository
	log        *zap.Logger
}

func NewAdminOrderUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	products repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	log *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		orders:     orders,
		orderItems: orderItems,
		products:   products,
		auditRepo:  auditRepo,
		log:        log,
	}
}

// クエリ文字列のまま受ける
type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	Q      string
	UserID *int64
	From   string
	To     string
}

type DashboardOutput struct {
	TotalProducts       int64  `json:"total_products"`
	TotalOrders         int64  `json:"total_orders"`
	TotalRevenue        int64  `json:"total_revenue"`
	TotalRevenueDisplay string `json:"total_revenue_display"`
	PendingOrders       int64  `json:"pending_orders"`
}

// 注文一覧（status / 注文ID・追跡番号 / 期間）
func (u *AdminOrderUsecase) List(ctx context.Context, actor Actor, in AdminOrderListInput) (OrderListOutput, error) {
	if !actor.IsAdmin() {
		return OrderListOutput{}, NewForbiddenError("admin only")
	}
	if in.Page < 1 {
		return OrderListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewValidationError("invalid limit")
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		if _, ok := model.ParseOrderStatus(s); !ok {
			return OrderListOutput{}, NewValidationError("invalid status")
		}
	}

	f := repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: strings.TrimSpace(in.Status),
		Q:      strings.TrimSpace(in.Q),
		UserID: in.UserID,
	}
	var ok bool
	if in.From != "" {
		if f.From, ok = parseDateTimeRFC3339(in.From); !ok {
			return OrderListOutput{}, NewValidationError("invalid from")
		}
	}
	if in.To != "" {
		if f.To, ok = parseDateTimeRFC3339(in.To); !ok {
			return OrderListOutput{}, NewValidationError("invalid to")
		}
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		u.log.Warn("admin order list failed, returning empty list", zap.Error(err))
		return OrderListOutput{Items: []OrderOutput{}, Page: in.Page, Limit: in.Limit}, nil
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			u.log.Warn("order items read failed", zap.Int64("order_id", o.ID), zap.Error(err))
			items = []model.OrderItem{}
		}
		outs = append(outs, toOrderOutput(o, items))
	}

	return OrderListOutput{Items: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 集計に失敗したらゼロで返す
func (u *AdminOrderUsecase) Dashboard(ctx context.Context, actor Actor) (DashboardOutput, error) {
	if !actor.IsAdmin() {
		return DashboardOutput{}, NewForbiddenError("admin only")
	}

	var out DashboardOutput
	if n, err := u.products.Count(ctx); err != nil {
		u.log.Warn("product count failed", zap.Error(err))
	} else {
		out.TotalProducts = n
	}

	if s, err := u.orders.Stats(ctx); err != nil {
		u.log.Warn("order stats failed", zap.Error(err))
	} else {
		out.TotalOrders = s.TotalOrders
		out.TotalRevenue = s.TotalRevenue
		out.PendingOrders = s.PendingOrders
	}
	out.TotalRevenueDisplay = pricing.FormatBRL(out.TotalRevenue)
	return out, nil
}

type AuditLogListInput struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	Limit        int
	Offset       int
}

func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, actor Actor, in AuditLogListInput) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin only")
	}

	f := repo.AuditLogFilter{
		ResourceID: in.ResourceID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		t := model.AuditResourceType(strings.ToLower(rt))
		f.ResourceType = &t
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		u.log.Warn("audit log list failed, returning empty list", zap.Error(err))
		return []model.AuditLog{}, nil
	}
	return logs, nil
}

// 期間パラメータ（RFC3339）
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
