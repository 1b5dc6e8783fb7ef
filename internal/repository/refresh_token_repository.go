package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 平文は保存しない（token_hash のみ）
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	//見つからなければ ErrNotFound
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	//未使用かつ未失効のときだけ成功。それ以外は ErrNotFound
	MarkUsed(ctx context.Context, tokenID string) error
	Revoke(ctx context.Context, tokenID string) error
	DeleteAllByUserID(ctx context.Context, userID int64) error
	DeleteByID(ctx context.Context, tokenID string) error
}
