package model

import "time"

// 商品レビュー（rating は 1〜5）
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	ImageURL  string    `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
