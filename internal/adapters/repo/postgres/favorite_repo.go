package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type FavoriteRepo struct{ db *gorm.DB }

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

func (r *FavoriteRepo) Create(ctx context.Context, f *domain.Favorite) error {
	return mapErr(r.db.WithContext(ctx).Omit("Product").Create(f).Error, "favorito")
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	var list []domain.Favorite
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("position asc")
		}).
		Preload("Product.Variants", "is_active = ?", true).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&list).Error
	return list, err
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("favorito")
	}
	return nil
}
