package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type CartUC struct {
	Carts    domain.CartRepo
	Products domain.ProductRepo
	// TTL de cada línea; cero usa domain.CartItemTTL.
	TTL time.Duration
	Now func() time.Time
}

type AddItemInput struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

type CartLine struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variantId"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSlug string          `json:"productSlug"`
	SKU         string          `json:"sku"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Gender      domain.Gender   `json:"gender"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Available   bool            `json:"available"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type CartView struct {
	ID        uuid.UUID       `json:"id"`
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (uc *CartUC) ttl() time.Duration {
	if uc.TTL > 0 {
		return uc.TTL
	}
	return domain.CartItemTTL
}

// open trae el carrito del usuario después de borrar las líneas vencidas.
func (uc *CartUC) open(ctx context.Context, userID uuid.UUID) (*domain.Cart, time.Time, error) {
	now := clock(uc.Now)
	c, err := uc.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, now, err
	}
	n, err := uc.Carts.PurgeExpired(ctx, c.ID, now)
	if err != nil {
		return nil, now, err
	}
	if n > 0 {
		log.Debug().Str("cart", c.ID.String()).Int64("items", n).Msg("items vencidos eliminados")
	}
	return c, now, nil
}

func view(c *domain.Cart) *CartView {
	v := &CartView{ID: c.ID, Items: make([]CartLine, 0, len(c.Items)), Subtotal: decimal.Zero}
	for _, it := range c.Items {
		line := CartLine{ID: it.ID, VariantID: it.VariantID, Quantity: it.Quantity, ExpiresAt: it.ExpiresAt, LineTotal: it.LineTotal()}
		if vr := it.Variant; vr != nil {
			line.SKU, line.Size, line.Color, line.Gender = vr.SKU, vr.Size, vr.Color, vr.Gender
			line.UnitPrice = vr.Price
			line.ProductID = vr.ProductID
			line.Available = vr.IsActive && vr.Stock >= it.Quantity
			if p := vr.Product; p != nil {
				line.ProductName, line.ProductSlug = p.Name, p.Slug
				line.Available = line.Available && p.IsActive
			}
		}
		v.Items = append(v.Items, line)
		v.ItemCount += it.Quantity
		v.Subtotal = v.Subtotal.Add(line.LineTotal)
	}
	return v
}

func (uc *CartUC) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	c, _, err := uc.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	full, err := uc.Carts.Load(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return view(full), nil
}

func purchasable(v *domain.Variant, qty int) error {
	name := "variante"
	if v.Product != nil {
		name = v.Product.Name
	}
	if !v.IsActive || v.Product == nil || !v.Product.IsActive {
		return fmt.Errorf("%w: %s", domain.ErrInactiveProduct, name)
	}
	if qty > v.Stock {
		return fmt.Errorf("%w: %s (disponible %d)", domain.ErrInsufficientStock, name, v.Stock)
	}
	return nil
}

// AddItem suma la cantidad a la línea existente de la variante o crea una nueva.
// En ambos casos la línea vence de nuevo a now + TTL.
func (uc *CartUC) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*CartView, error) {
	variantID, err := parseID(in.VariantID, "variantId")
	if err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor a cero")
	}
	c, now, err := uc.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	v, err := uc.Products.FindVariantByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	it, err := uc.Carts.FindItemByVariant(ctx, c.ID, variantID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		it = &domain.CartItem{CartID: c.ID, VariantID: variantID}
	case err != nil:
		return nil, err
	}
	qty := it.Quantity + in.Quantity
	if err := purchasable(v, qty); err != nil {
		return nil, err
	}
	it.Quantity = qty
	it.ExpiresAt = now.Add(uc.ttl())
	if err := uc.Carts.SaveItem(ctx, it); err != nil {
		return nil, err
	}
	return uc.Get(ctx, userID)
}

func (uc *CartUC) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, in UpdateItemInput) (*CartView, error) {
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor a cero")
	}
	c, now, err := uc.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := uc.Carts.FindItem(ctx, c.ID, itemID)
	if err != nil {
		return nil, err
	}
	if it.Variant == nil {
		return nil, domain.NotFound("variante")
	}
	if err := purchasable(it.Variant, in.Quantity); err != nil {
		return nil, err
	}
	it.Quantity = in.Quantity
	it.ExpiresAt = now.Add(uc.ttl())
	it.Variant = nil
	if err := uc.Carts.SaveItem(ctx, it); err != nil {
		return nil, err
	}
	return uc.Get(ctx, userID)
}

func (uc *CartUC) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	c, _, err := uc.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.Carts.DeleteItem(ctx, c.ID, itemID); err != nil {
		return nil, err
	}
	return uc.Get(ctx, userID)
}

func (uc *CartUC) Clear(ctx context.Context, userID uuid.UUID) error {
	c, err := uc.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return uc.Carts.Clear(ctx, c.ID)
}
