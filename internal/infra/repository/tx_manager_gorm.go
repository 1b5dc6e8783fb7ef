package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// tx 上の *gorm.DB に束ねた repository 一式
type txRepos struct {
	tx *gorm.DB
}

func (r txRepos) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r txRepos) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r txRepos) CartItems() repo.CartItemRepository   { return NewCartItemGormRepository(r.tx) }
func (r txRepos) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r txRepos) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }
func (r txRepos) Reviews() repo.ReviewRepository       { return NewReviewGormRepository(r.tx) }
func (r txRepos) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fn がエラーを返せば rollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{tx: tx})
	})
}
