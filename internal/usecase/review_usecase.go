package usecase

import (
	"context"
	"errors"
	"math"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type ReviewUsecase struct {
	tx       repo.TransactionManager
	reviews  repo.ReviewRepository
	products repo.ProductRepository
	cache    CatalogCache
	log      *zap.Logger
}

func NewReviewUsecase(
	tx repo.TransactionManager,
	reviews repo.ReviewRepository,
	products repo.ProductRepository,
	cache CatalogCache,
	log *zap.Logger,
) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, reviews: reviews, products: products, cache: cache, log: log}
}

type CreateReviewInput struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"max=2000"`
	ImageURL string `json:"image_url" validate:"omitempty,url,max=2048"`
}

// 新しい順
func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	if productID <= 0 {
		return nil, NewValidationError("invalid product id")
	}
	list, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		u.log.Warn("review list failed, returning empty list", zap.Int64("product_id", productID), zap.Error(err))
		return []model.Review{}, nil
	}
	return list, nil
}

// レビュー作成と商品の評価（星×10・件数）の再計算を同じトランザクションで
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, productID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewUnauthorizedError("unauthorized")
	}
	if productID <= 0 {
		return model.Review{}, NewValidationError("invalid product id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, NewValidationError("rating must be between 1 and 5")
	}

	var created model.Review
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//商品行を先にロックして、同時投稿でも集計が欠けないようにする
		if _, err := r.Products().FindByIDForUpdate(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return u.unavailable("review: find product", err)
		}

		rv, err := r.Reviews().Create(ctx, model.Review{
			ProductID: productID,
			UserID:    userID,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
			ImageURL:  strings.TrimSpace(in.ImageURL),
		})
		if err != nil {
			return u.unavailable("review: create", err)
		}

		agg, err := r.Reviews().Aggregate(ctx, productID)
		if err != nil {
			return u.unavailable("review: aggregate", err)
		}
		if err := r.Products().UpdateRating(ctx, productID, ratingFromAverage(agg.Average), int(agg.Count)); err != nil {
			return u.unavailable("review: update rating", err)
		}

		created = rv
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}

	u.cache.Del(ctx, cacheKeyFeatured)
	return created, nil
}

func (u *ReviewUsecase) unavailable(op string, err error) error {
	u.log.Error(op+" failed", zap.Error(err))
	return NewStoreUnavailableError()
}

// 平均4.25 → 43
func ratingFromAverage(avg float64) int {
	return int(math.Round(avg * 10))
}
