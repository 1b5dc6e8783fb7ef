package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// 管理者の商品操作（作成・更新・削除・在庫）
type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	cache       CatalogCache
	log         *zap.Logger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	cache CatalogCache,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		cache:       cache,
		log:         log,
	}
}

type AdminProductInput struct {
	CategoryID     int64    `json:"category_id" validate:"required,gt=0"`
	Name           string   `json:"name" validate:"required,max=255"`
	Slug           string   `json:"slug" validate:"required,max=255"`
	Description    string   `json:"description"`
	Price          int64    `json:"price" validate:"gte=0"`
	CompareAtPrice *int64   `json:"compare_at_price" validate:"omitempty,gte=0"`
	Stock          int64    `json:"stock" validate:"gte=0"`
	Brand          string   `json:"brand" validate:"max=100"`
	ImageURL       string   `json:"image_url" validate:"omitempty,url"`
	Images         []string `json:"images" validate:"dive,url"`
	Featured       bool     `json:"featured"`
}

type AdminStockInput struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name required")
	}
	if !slugPattern.MatchString(strings.TrimSpace(in.Slug)) {
		return NewValidationError("invalid slug")
	}
	if in.CategoryID <= 0 {
		return NewValidationError("invalid category_id")
	}
	if in.Price < 0 {
		return NewValidationError("price must be >= 0")
	}
	if in.CompareAtPrice != nil && *in.CompareAtPrice < 0 {
		return NewValidationError("compare_at_price must be >= 0")
	}
	if in.Stock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	return nil
}

func (in AdminProductInput) toModel() model.Product {
	images := datatypes.JSONSlice[string]{}
	for _, s := range in.Images {
		if s = strings.TrimSpace(s); s != "" {
			images = append(images, s)
		}
	}
	return model.Product{
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Slug:           strings.TrimSpace(in.Slug),
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		Stock:          in.Stock,
		Brand:          strings.TrimSpace(in.Brand),
		ImageURL:       strings.TrimSpace(in.ImageURL),
		Images:         images,
		Featured:       in.Featured,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actor Actor, in AdminProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, NewForbiddenError("admin only")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, in.toModel())
		if errors.Is(err, repo.ErrConflict) {
			return NewConflictError("slug already exists")
		}
		if err != nil {
			return u.unavailable("create product", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			AfterJSON:    toJSON(p),
			CreatedAt:    time.Now(),
		}); err != nil {
			return u.unavailable("create product: audit log", err)
		}

		created = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.cache.Del(ctx, cacheKeyFeatured)
	return created, nil
}

// 在庫は AdminUpdateInventory で変える
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actor Actor, productID int64, in AdminProductInput) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin only")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return u.unavailable("update product: find", err)
		}

		after := in.toModel()
		after.ID = productID
		after.Stock = before.Stock

		err = r.Products().Update(ctx, after)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if errors.Is(err, repo.ErrConflict) {
			return NewConflictError("slug already exists")
		}
		if err != nil {
			return u.unavailable("update product", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return u.unavailable("update product: audit log", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.cache.Del(ctx, cacheKeyFeatured)
	return nil
}

// 論理削除（注文明細のスナップショットは残る）
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, actor Actor, productID int64) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin only")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Products().SoftDelete(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return u.unavailable("delete product", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			CreatedAt:    time.Now(),
		}); err != nil {
			return u.unavailable("delete product: audit log", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.cache.Del(ctx, cacheKeyFeatured)
	return nil
}

// 在庫の上書き＋履歴＋監査ログ
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, actor Actor, productID int64, in AdminStockInput) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin only")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if in.Stock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return NewValidationError("reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return u.unavailable("update stock: find", err)
		}

		if err := r.Inventory().SetStock(ctx, productID, in.Stock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return u.unavailable("update stock", err)
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: actor.UserID,
			StockBefore: p.Stock,
			StockAfter:  in.Stock,
			Delta:       in.Stock - p.Stock,
			Reason:      reason,
		}); err != nil {
			return u.unavailable("update stock: adjustment", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(map[string]int64{"stock": p.Stock}),
			AfterJSON:    toJSON(map[string]int64{"stock": in.Stock}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return u.unavailable("update stock: audit log", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.cache.Del(ctx, cacheKeyFeatured)
	return nil
}

func (u *ProductUsecase) unavailable(op string, err error) error {
	u.log.Error(op+" failed", zap.Error(err))
	return NewStoreUnavailableError()
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
