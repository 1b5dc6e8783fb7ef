package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

var addressEditableColumns = []string{
	"name", "phone", "street", "number", "complement",
	"neighborhood", "city", "state", "zip_code", "updated_at",
}

type addressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) owned(ctx context.Context, userID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Address{}).Where("user_id = ?", userID)
}

func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := []model.Address{}
	err := r.owned(ctx, userID).Order("is_default DESC").Order("id").Find(&list).Error
	return list, err
}

func (r *addressGormRepository) FindForUser(ctx context.Context, userID, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.owned(ctx, userID).Where("id = ?", addressID).Take(&a).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Address{}, repo.ErrNotFound
	case err != nil:
		return model.Address{}, err
	}
	return a, nil
}

func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !address.IsDefault {
			var n int64
			if err := tx.Model(&model.Address{}).Where("user_id = ?", address.UserID).Count(&n).Error; err != nil {
				return err
			}
			address.IsDefault = n == 0
		}
		if address.IsDefault {
			if err := tx.Model(&model.Address{}).
				Where("user_id = ? AND is_default", address.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return model.Address{}, err
	}
	return address, nil
}

// is_default は SetDefault でだけ変える
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	res := r.owned(ctx, address.UserID).
		Where("id = ?", address.ID).
		Select(addressEditableColumns).
		Updates(&address)
	return affectedOrNotFound(res)
}

func (r *addressGormRepository) Delete(ctx context.Context, userID, addressID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&model.Address{})
	return affectedOrNotFound(res)
}

// 1文で全行を書き換えるので default は常に1件
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repo.ErrNotFound
		}
		return tx.Model(&model.Address{}).
			Where("user_id = ?", userID).
			Update("is_default", gorm.Expr("id = ?", addressID)).Error
	})
}

func affectedOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
