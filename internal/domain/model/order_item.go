package model

import "time"

// 注文明細。作成後は変更しない。
type OrderItem struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64     `gorm:"not null;index" json:"order_id"`
	ProductID    int64     `gorm:"not null;index" json:"product_id"`
	ProductName  string    `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductImage string    `gorm:"type:text" json:"product_image"`
	Price        int64     `gorm:"not null" json:"price"`
	Quantity     int64     `gorm:"not null" json:"quantity"`
	Subtotal     int64     `gorm:"not null" json:"subtotal"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
