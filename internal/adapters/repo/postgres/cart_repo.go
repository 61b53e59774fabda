package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

// GetOrCreate usa ON CONFLICT DO NOTHING para que dos requests concurrentes
// del mismo usuario terminen con un único carrito.
func (r *CartRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	db := r.db.WithContext(ctx)
	var c domain.Cart
	err := db.First(&c, "user_id = ?", userID).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = domain.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&c).Error; err != nil {
		return nil, err
	}
	var out domain.Cart
	if err := db.First(&out, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepo) PurgeExpired(ctx context.Context, cartID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND expires_at < ?", cartID, now).
		Delete(&domain.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *CartRepo) Load(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		First(&c, "id = ?", cartID).Error
	if err != nil {
		return nil, mapErr(err, "carrito")
	}
	return &c, nil
}

func (r *CartRepo) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.WithContext(ctx).First(&it, "cart_id = ? AND variant_id = ?", cartID, variantID).Error
	if err != nil {
		return nil, mapErr(err, "item")
	}
	return &it, nil
}

func (r *CartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.WithContext(ctx).Preload("Variant").Preload("Variant.Product").
		First(&it, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		return nil, mapErr(err, "item")
	}
	return &it, nil
}

func (r *CartRepo) SaveItem(ctx context.Context, it *domain.CartItem) error {
	db := r.db.WithContext(ctx).Omit("Variant")
	if it.ID == uuid.Nil {
		return mapErr(db.Create(it).Error, "item")
	}
	return db.Save(it).Error
}

func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("item")
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error
}
