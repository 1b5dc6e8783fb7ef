package event

import "time"

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price"`
	Subtotal  int64 `json:"subtotal"`
}

type OrderPlaced struct {
	OrderID       int64       `json:"order_id"`
	UserID        int64       `json:"user_id"`
	Items         []OrderItem `json:"items"`
	Subtotal      int64       `json:"subtotal"`
	ShippingCost  int64       `json:"shipping_cost"`
	Total         int64       `json:"total"`
	TotalDisplay  string      `json:"total_display"`
	PaymentMethod string      `json:"payment_method"`
	PlacedAt      time.Time   `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID      int64     `json:"order_id"`
	UserID       int64     `json:"user_id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	TrackingCode string    `json:"tracking_code,omitempty"`
	ChangedBy    int64     `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"`
}
