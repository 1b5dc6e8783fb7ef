package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  int64  `gorm:"not null;index" json:"category_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	//金額はすべて最小単位（R$ の1/100）
	Price          int64  `gorm:"not null;check:chk_products_price,price >= 0" json:"price"`
	CompareAtPrice *int64 `json:"compare_at_price,omitempty"`
	Stock          int64  `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`

	Brand    string                      `gorm:"type:varchar(100)" json:"brand"`
	ImageURL string                      `gorm:"type:text" json:"image_url"`
	Images   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Featured bool                        `gorm:"not null;default:false;index" json:"featured"`

	//星×10（0〜50）
	Rating      int `gorm:"not null;default:0" json:"rating"`
	ReviewCount int `gorm:"not null;default:0" json:"review_count"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 注文スナップショット用の代表画像
func (p Product) PrimaryImage() string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
