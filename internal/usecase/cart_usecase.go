package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジックです。
// 在庫は追加時には見ない（注文確定時に減らす）。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	policy       pricing.Policy
	log          *zap.Logger
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	policy pricing.Policy,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		policy:       policy,
		log:          log,
	}
}

// price / stock は現在の商品の値
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url"`
	Stock     int64  `json:"stock"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
	//商品が削除済みなら false（合計に含めない）
	Available bool `json:"available"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int64              `json:"item_count"`
	pricing.Totals
}

type AddCartInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity"`
}

// 読み取りは失敗しても空のカートを返す
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewUnauthorizedError("unauthorized")
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		u.log.Warn("cart list failed, returning empty cart", zap.Int64("user_id", userID), zap.Error(err))
		return u.emptyCart(), nil
	}

	res := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		row := CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if it.Product != nil {
			row.Name = it.Product.Name
			row.Slug = it.Product.Slug
			row.Price = it.Product.Price
			row.ImageURL = it.Product.PrimaryImage()
			row.Stock = it.Product.Stock
			row.Subtotal = it.Product.Price * it.Quantity
			row.Available = true
			lines = append(lines, pricing.Line{UnitPrice: it.Product.Price, Quantity: it.Quantity})
			res.ItemCount += it.Quantity
		}
		res.Items = append(res.Items, row)
	}
	//空なら送料も0
	if len(lines) > 0 {
		res.Totals = u.policy.Compute(lines)
	}
	return res, nil
}

// 同一商品は数量加算（1文のupsertなので同時追加でも1行）
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewUnauthorizedError("unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewValidationError("invalid product_id")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewValidationError("quantity must be >= 1")
	}

	if _, err := u.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewNotFoundError("product not found")
		}
		return CartResponse{}, u.unavailable("cart add: find product", err)
	}

	if err := u.cartItemRepo.AddQuantity(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, u.unavailable("cart add", err)
	}

	return u.GetCart(ctx, userID)
}

// 数量の上書き（1未満は不可）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewUnauthorizedError("unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewValidationError("invalid cart item id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewValidationError("quantity must be >= 1")
	}

	err := u.cartItemRepo.UpdateQuantity(ctx, userID, cartItemID, in.Quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewNotFoundError("cart item not found")
	}
	if err != nil {
		return CartResponse{}, u.unavailable("cart update", err)
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewUnauthorizedError("unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewValidationError("invalid cart item id")
	}

	err := u.cartItemRepo.DeleteByID(ctx, userID, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewNotFoundError("cart item not found")
	}
	if err != nil {
		return CartResponse{}, u.unavailable("cart remove", err)
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewUnauthorizedError("unauthorized")
	}
	if err := u.cartItemRepo.ClearByUserID(ctx, userID); err != nil {
		return u.unavailable("cart clear", err)
	}
	return nil
}

func (u *CartUsecase) emptyCart() CartResponse {
	return CartResponse{Items: []CartItemResponse{}}
}

func (u *CartUsecase) unavailable(op string, err error) error {
	u.log.Error(op+" failed", zap.Error(err))
	return NewStoreUnavailableError()
}
