package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 前進のみ。cancelled は終端以外から。
var orderStatusFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	if st == OrderStatusCancelled {
		return st, true
	}
	return st, st.flowIndex() >= 0
}

func (s OrderStatus) flowIndex() int {
	for i, st := range orderStatusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 遷移可能か（同じステータスは呼び出し側で no-op 扱い）
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, to := s.flowIndex(), next.flowIndex()
	if from < 0 || to < 0 {
		return false
	}
	return to > from
}

type PaymentMethod string

const (
	PaymentMethodPix    PaymentMethod = "pix"
	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodBoleto PaymentMethod = "boleto"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCredit, PaymentMethodBoleto:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Order struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64 `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	AddressID int64 `gorm:"not null" json:"address_id"`

	//注文時点の顧客情報（住所の後編集に影響されない）
	CustomerName    string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail   string `gorm:"type:varchar(320)" json:"customer_email"`
	CustomerPhone   string `gorm:"type:varchar(30)" json:"customer_phone"`
	ShippingAddress string `gorm:"type:text;not null" json:"shipping_address"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	Subtotal     int64 `gorm:"not null" json:"subtotal"`
	ShippingCost int64 `gorm:"not null" json:"shipping_cost"`
	Total        int64 `gorm:"not null" json:"total"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	TrackingCode  *string       `gorm:"type:varchar(100);index" json:"tracking_code,omitempty"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`

	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
