package app

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/domain"
)

func (a *App) Migrate() error {
	return postgres.Migrate(a.DB)
}

// Seed carga un catálogo de ejemplo si no hay categorías. Sólo para desarrollo.
func (a *App) Seed() error {
	var n int64
	if err := a.DB.Model(&domain.Category{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return a.DB.Transaction(func(tx *gorm.DB) error {
		remeras := domain.Category{ID: uuid.New(), Name: "Remeras", Slug: "remeras", IsActive: true}
		buzos := domain.Category{ID: uuid.New(), Name: "Buzos", Slug: "buzos", IsActive: true}
		for _, c := range []*domain.Category{&remeras, &buzos} {
			if err := tx.Create(c).Error; err != nil {
				return err
			}
		}
		basicas := domain.Subcategory{CategoryID: remeras.ID, Name: "Básicas", Slug: "basicas", IsActive: true}
		if err := tx.Create(&basicas).Error; err != nil {
			return err
		}
		prods := []domain.Product{
			{
				Slug: "remera-lisa", Name: "Remera Lisa", CategoryID: remeras.ID, SubcategoryID: &basicas.ID, IsActive: true,
				Variants: []domain.Variant{
					{SKU: "REM-LISA-M-NEG", Size: "M", Color: "Negro", Gender: domain.GenderUnisex, Price: decimal.NewFromInt(12500), Stock: 10, IsActive: true},
					{SKU: "REM-LISA-L-BLA", Size: "L", Color: "Blanco", Gender: domain.GenderUnisex, Price: decimal.NewFromInt(12500), Stock: 5, IsActive: true},
				},
			},
			{
				Slug: "buzo-canguro", Name: "Buzo Canguro", CategoryID: buzos.ID, IsActive: true,
				Variants: []domain.Variant{
					{SKU: "BUZ-CAN-S-GRI", Size: "S", Color: "Gris", Gender: domain.GenderMujer, Price: decimal.NewFromInt(32000), Stock: 3, IsActive: true},
				},
			},
		}
		for i := range prods {
			if err := tx.Create(&prods[i]).Error; err != nil {
				return err
			}
		}
		log.Info().Int("products", len(prods)).Msg("seed cargado")
		return nil
	})
}
