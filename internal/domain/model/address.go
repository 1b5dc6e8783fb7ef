package model

import (
	"fmt"
	"strings"
	"time"
)

// 配送先住所（ブラジル形式）
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//通り名・番地・補足
	Street     string `gorm:"type:varchar(255);not null" json:"street"`
	Number     string `gorm:"type:varchar(20);not null" json:"number"`
	Complement string `gorm:"type:varchar(255)" json:"complement"`

	//地区
	Neighborhood string `gorm:"type:varchar(255);not null" json:"neighborhood"`

	City string `gorm:"type:varchar(255);not null" json:"city"`

	//州（SPなど2文字）
	State string `gorm:"type:char(2);not null" json:"state"`

	//CEP
	ZipCode string `gorm:"type:varchar(10);not null" json:"zip_code"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 注文に保存する1行表記
func (a Address) Format() string {
	line := fmt.Sprintf("%s, %s", a.Street, a.Number)
	if c := strings.TrimSpace(a.Complement); c != "" {
		line += " - " + c
	}
	return fmt.Sprintf("%s, %s, %s/%s, CEP %s", line, a.Neighborhood, a.City, a.State, a.ZipCode)
}
