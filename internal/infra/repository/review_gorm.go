package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var list []model.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Order("id desc").
		Find(&list).Error
	if err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

// 平均と件数（0件なら 0,0）
func (r *ReviewGormRepository) Aggregate(ctx context.Context, productID int64) (repo.ReviewAggregate, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return repo.ReviewAggregate{}, err
	}
	return repo.ReviewAggregate{Average: row.Average, Count: row.Count}, nil
}
