package db

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const unsplash = "https://images.unsplash.com/photo-%s?w=800&q=80"

func img(id string) string { return fmt.Sprintf(unsplash, id) }

func price(v int64) *int64 { return &v }

var seedCategories = []model.Category{
	{Name: "Batons", Slug: "batons", Description: "Batons de alta qualidade com cores vibrantes e duradouras", ImageURL: img("1586495777744-4413f21062fa")},
	{Name: "Sombras", Slug: "sombras", Description: "Paletas de sombras com pigmentação intensa", ImageURL: img("1512496015851-a90fb38ba796")},
	{Name: "Pincéis", Slug: "pinceis", Description: "Pincéis profissionais para maquiagem perfeita", ImageURL: img("1596704017254-9b121068ec31")},
	{Name: "Skincare", Slug: "skincare", Description: "Produtos para cuidados com a pele", ImageURL: img("1556228720-195a672e8a03")},
	{Name: "Perfumes", Slug: "perfumes", Description: "Fragrâncias exclusivas e marcantes", ImageURL: img("1541643600914-78b084683601")},
	{Name: "Base e Corretivo", Slug: "base-corretivo", Description: "Bases e corretivos para todos os tons de pele", ImageURL: img("1522335789203-aabd1fc54bc9")},
}

type seedProduct struct {
	category string
	product  model.Product
}

var seedProducts = []seedProduct{
	{"batons", model.Product{Name: "Batom Matte Rosé", Slug: "batom-matte-rose", Description: "Batom matte de longa duração com acabamento aveludado. Cor rosé elegante e sofisticada.", Price: 4990, CompareAtPrice: price(6990), Stock: 50, Brand: "Amora Makeup", ImageURL: img("1586495777744-4413f21062fa"), Images: datatypes.JSONSlice[string]{img("1586495777744-4413f21062fa"), img("1631214524020-7e18db7a8f0c")}, Featured: true, Rating: 48, ReviewCount: 127}},
	{"batons", model.Product{Name: "Batom Líquido Nude", Slug: "batom-liquido-nude", Description: "Batom líquido com textura cremosa e cor nude perfeita para o dia a dia.", Price: 3990, Stock: 35, Brand: "Amora Makeup", ImageURL: img("1631214524020-7e18db7a8f0c"), Images: datatypes.JSONSlice[string]{img("1631214524020-7e18db7a8f0c")}, Rating: 45, ReviewCount: 89}},
	{"batons", model.Product{Name: "Batom Cremoso Vermelho", Slug: "batom-cremoso-vermelho", Description: "Batom cremoso com cor vermelha intensa e hidratação prolongada.", Price: 4490, CompareAtPrice: price(5990), Stock: 42, Brand: "Amora Makeup", ImageURL: img("1596704017254-9b121068ec31"), Images: datatypes.JSONSlice[string]{img("1596704017254-9b121068ec31")}, Featured: true, Rating: 50, ReviewCount: 203}},
	{"sombras", model.Product{Name: "Paleta de Sombras Nude", Slug: "paleta-sombras-nude", Description: "Paleta com 12 cores nude essenciais para looks naturais e sofisticados.", Price: 8990, CompareAtPrice: price(11990), Stock: 28, Brand: "Amora Makeup", ImageURL: img("1512496015851-a90fb38ba796"), Images: datatypes.JSONSlice[string]{img("1512496015851-a90fb38ba796")}, Featured: true, Rating: 47, ReviewCount: 156}},
	{"sombras", model.Product{Name: "Paleta de Sombras Colorida", Slug: "paleta-sombras-colorida", Description: "Paleta vibrante com 18 cores para criar looks ousados e criativos.", Price: 9990, Stock: 22, Brand: "Amora Makeup", ImageURL: img("1583241800698-c318c6b8d7c7"), Images: datatypes.JSONSlice[string]{img("1583241800698-c318c6b8d7c7")}, Rating: 46, ReviewCount: 98}},
	{"pinceis", model.Product{Name: "Kit de Pincéis Profissionais", Slug: "kit-pinceis-profissionais", Description: "Kit com 10 pincéis profissionais para maquiagem completa.", Price: 12990, CompareAtPrice: price(17990), Stock: 18, Brand: "Amora Makeup", ImageURL: img("1596704017254-9b121068ec31"), Images: datatypes.JSONSlice[string]{img("1596704017254-9b121068ec31")}, Featured: true, Rating: 49, ReviewCount: 234}},
	{"pinceis", model.Product{Name: "Pincel para Base", Slug: "pincel-para-base", Description: "Pincel de cerdas sintéticas para aplicação uniforme de base líquida.", Price: 2990, Stock: 45, Brand: "Amora Makeup", ImageURL: img("1583241800698-c318c6b8d7c7"), Images: datatypes.JSONSlice[string]{img("1583241800698-c318c6b8d7c7")}, Rating: 44, ReviewCount: 67}},
	{"skincare", model.Product{Name: "Sérum Vitamina C", Slug: "serum-vitamina-c", Description: "Sérum facial com vitamina C para iluminar e uniformizar a pele.", Price: 7990, Stock: 32, Brand: "Amora Skincare", ImageURL: img("1556228720-195a672e8a03"), Images: datatypes.JSONSlice[string]{img("1556228720-195a672e8a03")}, Featured: true, Rating: 48, ReviewCount: 178}},
	{"skincare", model.Product{Name: "Hidratante Facial", Slug: "hidratante-facial", Description: "Hidratante facial com ácido hialurônico para pele macia e hidratada.", Price: 5990, CompareAtPrice: price(7990), Stock: 40, Brand: "Amora Skincare", ImageURL: img("1571875257727-256c39da42af"), Images: datatypes.JSONSlice[string]{img("1571875257727-256c39da42af")}, Rating: 46, ReviewCount: 134}},
	{"perfumes", model.Product{Name: "Perfume Amora Elegance", Slug: "perfume-amora-elegance", Description: "Fragrância floral sofisticada com notas de rosa e jasmim.", Price: 15990, CompareAtPrice: price(19990), Stock: 15, Brand: "Amora Fragrances", ImageURL: img("1541643600914-78b084683601"), Images: datatypes.JSONSlice[string]{img("1541643600914-78b084683601")}, Featured: true, Rating: 50, ReviewCount: 289}},
	{"base-corretivo", model.Product{Name: "Base Líquida HD", Slug: "base-liquida-hd", Description: "Base líquida de alta cobertura com acabamento natural. Disponível em 12 tonalidades.", Price: 6990, Stock: 38, Brand: "Amora Makeup", ImageURL: img("1522335789203-aabd1fc54bc9"), Images: datatypes.JSONSlice[string]{img("1522335789203-aabd1fc54bc9")}, Featured: true, Rating: 47, ReviewCount: 201}},
	{"base-corretivo", model.Product{Name: "Corretivo Líquido", Slug: "corretivo-liquido", Description: "Corretivo líquido de alta cobertura para disfarçar olheiras e imperfeições.", Price: 3490, Stock: 52, Brand: "Amora Makeup", ImageURL: img("1596704017254-9b121068ec31"), Images: datatypes.JSONSlice[string]{img("1596704017254-9b121068ec31")}, Rating: 45, ReviewCount: 112}},
}

// Seed はカテゴリと商品の初期データを入れる（slug 重複はスキップ）
func Seed(ctx context.Context, gdb *gorm.DB, log *zap.Logger) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]int64, len(seedCategories))
		for _, c := range seedCategories {
			c := c
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
				Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
			var saved model.Category
			if err := tx.Where("slug = ?", c.Slug).First(&saved).Error; err != nil {
				return err
			}
			ids[c.Slug] = saved.ID
		}

		var created int64
		for _, sp := range seedProducts {
			p := sp.product
			p.CategoryID = ids[sp.category]
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
				Create(&p)
			if res.Error != nil {
				return fmt.Errorf("seed product %s: %w", p.Slug, res.Error)
			}
			created += res.RowsAffected
		}

		log.Info("seed done", zap.Int("categories", len(seedCategories)), zap.Int64("products_created", created))
		return nil
	})
}
