package model

import "time"

// カートの明細
// (user_id, product_id) で1行。追加は数量加算。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_product;index" json:"product_id"`
	Quantity  int64     `gorm:"not null;check:chk_cart_items_quantity,quantity >= 1" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	//一覧時のみ（現在の商品）
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
