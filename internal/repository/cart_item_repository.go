package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	//現在の商品をProductに詰めて返す
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	//ロックして取得（注文確定用）
	ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス（1文のupsert）
	AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) error
	//所有者一致の行だけ更新・削除。無ければ ErrNotFound
	UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, userID int64, cartItemID int64) error
	ClearByUserID(ctx context.Context, userID int64) error
}
