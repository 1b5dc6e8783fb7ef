package usecase

import (
	"context"

	"storefront/internal/domain/event"
)

// カタログ読み取りのキャッシュ（ミス・障害は false）
type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
	Del(ctx context.Context, keys ...string)
}

// 注文イベントの送信（コミット後、失敗しても注文は戻さない）
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, e event.OrderPlaced) error
	PublishOrderStatusChanged(ctx context.Context, e event.OrderStatusChanged) error
}

const (
	cacheKeyCategories = "categories"
	cacheKeyFeatured   = "products:featured"
)
