package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const LoginMethodPassword = "password"

type User struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`
	//外部ID
	OpenID       string `gorm:"column:open_id;type:varchar(64);uniqueIndex;not null"`
	Name         string `gorm:"type:varchar(255)"`
	Email        string `gorm:"type:varchar(320);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	LoginMethod  string `gorm:"type:varchar(64);not null;default:'password'"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'user'"`
	TokenVersion int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastSignedIn *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
