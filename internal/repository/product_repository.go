package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	CategoryID *int64
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	//featured=true を rating 降順
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
	//name / description の部分一致
	Search(ctx context.Context, q string, limit int) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//行ロック付き（レビュー集計の更新用）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//レビュー集計の反映
	UpdateRating(ctx context.Context, id int64, rating int, reviewCount int) error
	Count(ctx context.Context) (int64, error)
}
