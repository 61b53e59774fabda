package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_product" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_product" json:"productId"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type FavoriteRepo interface {
	Create(ctx context.Context, f *Favorite) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
}
