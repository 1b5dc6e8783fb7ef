package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// 同時に2回来ても片方だけ成功する（条件付き UPDATE）
func (r *refreshTokenGormRepository) MarkUsed(ctx context.Context, tokenID string) error {
	return r.stamp(ctx, tokenID, "used_at", "used_at IS NULL AND revoked_at IS NULL")
}

func (r *refreshTokenGormRepository) Revoke(ctx context.Context, tokenID string) error {
	return r.stamp(ctx, tokenID, "revoked_at", "revoked_at IS NULL")
}

func (r *refreshTokenGormRepository) stamp(ctx context.Context, tokenID, column, cond string) error {
	res := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ?", tokenID).
		Where(cond).
		Update(column, time.Now())
	return affectedOrNotFound(res)
}

func (r *refreshTokenGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

func (r *refreshTokenGormRepository) DeleteByID(ctx context.Context, tokenID string) error {
	return affectedOrNotFound(r.db.WithContext(ctx).Where("id = ?", tokenID).Delete(&model.RefreshToken{}))
}
