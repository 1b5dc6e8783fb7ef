package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewAggregate struct {
	Average float64
	Count   int64
}

type ReviewRepository interface {
	//新しい順
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
	Create(ctx context.Context, r model.Review) (model.Review, error)
	Aggregate(ctx context.Context, productID int64) (ReviewAggregate, error)
}
