package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItemTTL es la vida de cada línea del carrito; se renueva al volver a agregar.
const CartItemTTL = 5 * 24 * time.Hour

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Subtotal suma precio actual de variante por cantidad.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant" json:"cartId"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant" json:"variantId"`
	Variant   *Variant  `gorm:"constraint:OnDelete:CASCADE" json:"variant,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i CartItem) LineTotal() decimal.Decimal {
	if i.Variant == nil {
		return decimal.Zero
	}
	return i.Variant.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartRepo interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// PurgeExpired borra (hard delete) las líneas vencidas antes de now.
	PurgeExpired(ctx context.Context, cartID uuid.UUID, now time.Time) (int64, error)
	Load(ctx context.Context, cartID uuid.UUID) (*Cart, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItem, error)
	SaveItem(ctx context.Context, it *CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}
