package usecase

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	addresses  repo.AddressRepository
	users      repo.UserRepository
	publisher  OrderEventPublisher
	cache      CatalogCache
	policy     pricing.Policy
	log        *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	publisher OrderEventPublisher,
	cache CatalogCache,
	policy pricing.Policy,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		addresses:  addresses,
		users:      users,
		publisher:  publisher,
		cache:      cache,
		policy:     policy,
		log:        log,
	}
}

type PlaceOrderInput struct {
	AddressID     int64  `json:"address_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=pix credit boleto"`
	Notes         string `json:"notes" validate:"max=1000"`
	//ヘッダ X-Idempotency-Key（任意）
	IdempotencyKey string `json:"-"`
}

type UpdateOrderStatusInput struct {
	Status       string  `json:"status" validate:"required"`
	TrackingCode *string `json:"tracking_code" validate:"omitempty,max=100"`
}

type OrderItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	AddressID       int64             `json:"address_id"`
	Status          string            `json:"status"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	ShippingAddress string            `json:"shipping_address"`
	Subtotal        int64             `json:"subtotal"`
	ShippingCost    int64             `json:"shipping_cost"`
	Total           int64             `json:"total"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentStatus   string            `json:"payment_status"`
	TrackingCode    *string           `json:"tracking_code,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// カート → 注文 → カート空、を1トランザクションで行う
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}
	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !method.Valid() {
		return OrderOutput{}, NewValidationError("invalid payment_method")
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewValidationError("invalid address_id")
	}
	var key *string
	if k := strings.TrimSpace(in.IdempotencyKey); k != "" {
		if len(k) > 255 {
			return OrderOutput{}, NewValidationError("invalid idempotency key")
		}
		key = &k
	}

	//住所の存在確認＋所有チェック（他人の住所は存在しない扱い）
	addr, err := u.addresses.FindForUser(ctx, userID, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewNotFoundError("address not found")
	}
	if err != nil {
		return OrderOutput{}, u.unavailable("place order: find address", err)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return OrderOutput{}, u.unavailable("place order: find user", err)
	}
	if user == nil {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}

	var (
		out      OrderOutput
		replayed bool
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != nil {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, *key)
			if err != nil {
				return u.unavailable("place order: idempotency lookup", err)
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return u.unavailable("place order: list items", err)
				}
				out = toOrderOutput(existing, items)
				replayed = true
				return nil
			}
		}

		cartItems, err := r.CartItems().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return u.unavailable("place order: lock cart", err)
		}
		if len(cartItems) == 0 {
			return NewEmptyCartError()
		}

		//ロック順を揃える（product_id 昇順）
		slices.SortFunc(cartItems, func(a, b model.CartItem) int {
			return cmp.Compare(a.ProductID, b.ProductID)
		})

		//在庫を確定時に減らして、価格をスナップショット
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		lines := make([]pricing.Line, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			if err != nil {
				return u.unavailable("place order: find product", err)
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return u.unavailable("place order: decrease stock", err)
			}
			if !ok {
				return NewOutOfStockError(p.Name)
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductImage: p.PrimaryImage(),
				Price:        p.Price,
				Quantity:     ci.Quantity,
				Subtotal:     p.Price * ci.Quantity,
			})
			lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: ci.Quantity})
		}

		totals := u.policy.Compute(lines)

		order := model.Order{
			UserID:          userID,
			AddressID:       addr.ID,
			CustomerName:    addr.Name,
			CustomerEmail:   user.Email,
			CustomerPhone:   addr.Phone,
			ShippingAddress: addr.Format(),
			Status:          model.OrderStatusPending,
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.Shipping,
			Total:           totals.Total,
			PaymentMethod:   method,
			PaymentStatus:   model.PaymentStatusPending,
			Notes:           strings.TrimSpace(in.Notes),
			IdempotencyKey:  key,
		}
		stored, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrConflict) {
			//同じキーの注文が同時に入った
			return NewConflictError("duplicate order request")
		}
		if err != nil {
			return u.unavailable("place order: create order", err)
		}
		orderID := stored.ID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return u.unavailable("place order: create items", err)
		}

		//カートを空に（失敗しても注文は残す）
		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			u.log.Warn("cart clear failed after order placed",
				zap.Int64("order_id", orderID), zap.Int64("user_id", userID), zap.Error(err))
		}

		out = toOrderOutput(stored, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if !replayed {
		//在庫が変わったので featured を捨てる
		u.cache.Del(ctx, cacheKeyFeatured)
		u.publishPlaced(ctx, out)
	}
	return out, nil
}

// 管理者なら全件、それ以外は自分の注文（読み取り失敗は空で返す）
func (u *OrderUsecase) List(ctx context.Context, actor Actor, page, limit int) (OrderListOutput, error) {
	if actor.UserID <= 0 {
		return OrderListOutput{}, NewUnauthorizedError("unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var (
		orders []model.Order
		total  int64
		err    error
	)
	if actor.IsAdmin() {
		orders, total, err = u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{Page: page, Limit: limit})
	} else {
		orders, total, err = u.orders.ListByUserID(ctx, actor.UserID, page, limit)
	}
	if err != nil {
		u.log.Warn("order list failed, returning empty list", zap.Int64("user_id", actor.UserID), zap.Error(err))
		return OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}, nil
	}

	return OrderListOutput{
		Items: u.withItems(ctx, orders),
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// 他人の注文は存在しない扱い（管理者は全件見られる）
func (u *OrderUsecase) GetByID(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			u.log.Warn("order read failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return OrderOutput{}, NewNotFoundError("order not found")
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return OrderOutput{}, NewNotFoundError("order not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		u.log.Warn("order items read failed", zap.Int64("order_id", orderID), zap.Error(err))
		return OrderOutput{}, NewNotFoundError("order not found")
	}
	return toOrderOutput(o, items), nil
}

// ステータス更新（管理者のみ）。cancelled なら在庫を戻す
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actor Actor, orderID int64, in UpdateOrderStatusInput) error {
	if actor.UserID <= 0 {
		return NewUnauthorizedError("unauthorized")
	}
	if !actor.IsAdmin() {
		return NewForbiddenError("admin only")
	}
	if orderID <= 0 {
		return NewValidationError("invalid id")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return NewValidationError("invalid status")
	}
	var tracking *string
	if in.TrackingCode != nil {
		if t := strings.TrimSpace(*in.TrackingCode); t != "" {
			tracking = &t
		}
	}

	var (
		changed bool
		before  model.Order
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return u.unavailable("update status: find order", err)
		}
		before = o

		// すでに同じなら何もしない
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewInvalidTransitionError(string(o.Status), string(next))
		}

		upd := repo.OrderStatusUpdate{Status: next, TrackingCode: tracking}
		if next == model.OrderStatusPaid {
			paid := model.PaymentStatusPaid
			upd.PaymentStatus = &paid
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, upd); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("order not found")
			}
			return u.unavailable("update status", err)
		}

		//キャンセルは在庫戻し
		if next == model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return u.unavailable("update status: list items", err)
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						u.log.Warn("restock skipped, product gone", zap.Int64("product_id", it.ProductID))
						continue
					}
					return u.unavailable("update status: restock", err)
				}
			}
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   statusJSON(o.Status, o.TrackingCode),
			AfterJSON:    statusJSON(next, firstNonNil(tracking, o.TrackingCode)),
			CreatedAt:    time.Now(),
		}); err != nil {
			return u.unavailable("update status: audit log", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		if next == model.OrderStatusCancelled {
			u.cache.Del(ctx, cacheKeyFeatured)
		}
		e := event.OrderStatusChanged{
			OrderID:   orderID,
			UserID:    before.UserID,
			From:      string(before.Status),
			To:        string(next),
			ChangedBy: actor.UserID,
			ChangedAt: time.Now(),
		}
		if t := firstNonNil(tracking, before.TrackingCode); t != nil {
			e.TrackingCode = *t
		}
		if err := u.publisher.PublishOrderStatusChanged(ctx, e); err != nil {
			u.log.Warn("publish order.status_changed failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

func (u *OrderUsecase) withItems(ctx context.Context, orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			u.log.Warn("order items read failed", zap.Int64("order_id", o.ID), zap.Error(err))
			items = []model.OrderItem{}
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs
}

func (u *OrderUsecase) publishPlaced(ctx context.Context, o OrderOutput) {
	items := make([]event.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, event.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		})
	}
	e := event.OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingCost:  o.ShippingCost,
		Total:         o.Total,
		TotalDisplay:  pricing.FormatBRL(o.Total),
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.CreatedAt,
	}
	if err := u.publisher.PublishOrderPlaced(ctx, e); err != nil {
		u.log.Warn("publish order.placed failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}
	u.log.Info("order placed", zap.Int64("order_id", o.ID), zap.String("total", e.TotalDisplay))
}

func (u *OrderUsecase) unavailable(op string, err error) error {
	u.log.Error(op+" failed", zap.Error(err))
	return NewStoreUnavailableError()
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Image:     it.ProductImage,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		AddressID:       o.AddressID,
		Status:          string(o.Status),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		TrackingCode:    o.TrackingCode,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}

func statusJSON(s model.OrderStatus, tracking *string) string {
	m := map[string]any{"status": s}
	if tracking != nil {
		m["tracking_code"] = *tracking
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
