package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 住所はすべて user_id で絞る。他人の住所は ErrNotFound
type AddressRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindForUser(ctx context.Context, userID, addressID int64) (model.Address, error)

	// ユーザー最初の住所か IsDefault のときは default にする
	Create(ctx context.Context, address model.Address) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	Delete(ctx context.Context, userID, addressID int64) error
	SetDefault(ctx context.Context, userID, addressID int64) error
}
