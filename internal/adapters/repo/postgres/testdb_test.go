package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/domain"
)

// newTestDB abre una base SQLite en memoria con el esquema migrado.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Test", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, slug string) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: slug, Slug: slug, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, cat *domain.Category, slug string, variants ...domain.Variant) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: slug, Slug: slug, CategoryID: cat.ID, IsActive: true, Variants: variants}
	require.NoError(t, db.Create(p).Error)
	return p
}

func variant(sku string, price string, stock int) domain.Variant {
	v := domain.Variant{
		SKU:    sku,
		Size:   "M",
		Color:  "Negro",
		Gender: domain.GenderUnisex,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	}
	v.SyncActive()
	return v
}

func seedAddress(t *testing.T, db *gorm.DB, userID uuid.UUID) *domain.Address {
	t.Helper()
	a := &domain.Address{
		UserID:        userID,
		RecipientName: "Ana",
		Street:        "Mitre",
		Number:        "100",
		City:          "Rosario",
		Province:      "Santa Fe",
		PostalCode:    "2000",
		IsActive:      true,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
