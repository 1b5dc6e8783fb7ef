package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NewsletterGormRepository struct {
	db *gorm.DB
}

func NewNewsletterGormRepository(db *gorm.DB) *NewsletterGormRepository {
	return &NewsletterGormRepository{db: db}
}

// 二重登録は何もしない（created=false）
func (r *NewsletterGormRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	s := model.Newsletter{Email: strings.ToLower(strings.TrimSpace(email))}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
