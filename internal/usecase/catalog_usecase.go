package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	featuredLimit = 8
	searchLimit   = 20
)

// 公開カタログ（読み取りのみ。失敗は空 or 404）
type CatalogUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
	cache      CatalogCache
	log        *zap.Logger
}

func NewCatalogUsecase(
	categories repo.CategoryRepository,
	products repo.ProductRepository,
	cache CatalogCache,
	log *zap.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		categories: categories,
		products:   products,
		cache:      cache,
		log:        log,
	}
}

type ListProductsInput struct {
	Page       int
	Limit      int
	CategoryID *int64
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CategoryProductsOutput struct {
	Category model.Category `json:"category"`
	ProductListOutput
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if u.cache.Get(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	list, err := u.categories.List(ctx)
	if err != nil {
		u.log.Warn("category list failed, returning empty list", zap.Error(err))
		return []model.Category{}, nil
	}
	u.cache.Set(ctx, cacheKeyCategories, list)
	return list, nil
}

func (u *CatalogUsecase) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Category{}, NewValidationError("invalid slug")
	}
	c, err := u.categories.FindBySlug(ctx, slug)
	if err != nil {
		u.warnRead("category read failed", err)
		return model.Category{}, NewNotFoundError("category not found")
	}
	return c, nil
}

func (u *CatalogUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewValidationError("invalid limit")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "rating":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		CategoryID: in.CategoryID,
		Sort:       in.Sort,
	})
	if err != nil {
		u.log.Warn("product list failed, returning empty list", zap.Error(err))
		return ProductListOutput{Items: []model.Product{}, Page: in.Page, Limit: in.Limit}, nil
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// おすすめ（rating 降順で8件）
func (u *CatalogUsecase) ListFeatured(ctx context.Context) ([]model.Product, error) {
	var cached []model.Product
	if u.cache.Get(ctx, cacheKeyFeatured, &cached) {
		return cached, nil
	}

	items, err := u.products.ListFeatured(ctx, featuredLimit)
	if err != nil {
		u.log.Warn("featured list failed, returning empty list", zap.Error(err))
		return []model.Product{}, nil
	}
	u.cache.Set(ctx, cacheKeyFeatured, items)
	return items, nil
}

// 部分一致のみ。空クエリは空
func (u *CatalogUsecase) Search(ctx context.Context, q string) ([]model.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Product{}, nil
	}
	if len(q) > 100 {
		return nil, NewValidationError("q too long")
	}

	items, err := u.products.Search(ctx, q, searchLimit)
	if err != nil {
		u.log.Warn("product search failed, returning empty list", zap.Error(err))
		return []model.Product{}, nil
	}
	return items, nil
}

func (u *CatalogUsecase) ListByCategorySlug(ctx context.Context, slug string, page, limit int) (CategoryProductsOutput, error) {
	c, err := u.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return CategoryProductsOutput{}, err
	}
	list, err := u.ListProducts(ctx, ListProductsInput{Page: page, Limit: limit, CategoryID: &c.ID})
	if err != nil {
		return CategoryProductsOutput{}, err
	}
	return CategoryProductsOutput{Category: c, ProductListOutput: list}, nil
}

func (u *CatalogUsecase) GetProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Product{}, NewValidationError("invalid slug")
	}
	p, err := u.products.FindBySlug(ctx, slug)
	if err != nil {
		u.warnRead("product read failed", err)
		return model.Product{}, NewNotFoundError("product not found")
	}
	return p, nil
}

func (u *CatalogUsecase) warnRead(msg string, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		return
	}
	u.log.Warn(msg, zap.Error(err))
}
