package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

// Migrate crea o actualiza el esquema. El orden respeta las foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&domain.Product{}, "Tags", &domain.ProductTag{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&domain.User{},
		&domain.Address{},
		&domain.Category{},
		&domain.Subcategory{},
		&domain.Tag{},
		&domain.Product{},
		&domain.ProductTag{},
		&domain.Variant{},
		&domain.Image{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Favorite{},
	)
}
