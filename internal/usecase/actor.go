package usecase

import "storefront/internal/domain/model"

// 認証済みの呼び出し元（ロールはリクエストごとにDBから読んだ値）
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
