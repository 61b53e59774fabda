package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// PlaceFromCart corre todo el checkout en una transacción: bloquea el carrito y
// las variantes involucradas (en orden de id), arma la orden con build, vuelve a
// validar la dirección bajo lock, descuenta stock y vacía el carrito. Cualquier
// error hace rollback completo.
func (r *OrderRepo) PlaceFromCart(ctx context.Context, userID uuid.UUID, build domain.OrderBuilder) (*domain.Order, error) {
	var order *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart domain.Cart
		if err := tx.Clauses(forUpdate).First(&cart, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrEmptyCart
			}
			return err
		}
		if err := tx.Where("cart_id = ? AND expires_at >= ?", cart.ID, time.Now().UTC()).
			Order("created_at asc").Find(&cart.Items).Error; err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(cart.Items))
		for _, it := range cart.Items {
			ids = append(ids, it.VariantID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		var variants []domain.Variant
		if len(ids) > 0 {
			if err := tx.Clauses(forUpdate).Where("id IN ?", ids).Order("id").Find(&variants).Error; err != nil {
				return err
			}
		}
		byID := make(map[uuid.UUID]*domain.Variant, len(variants))
		productIDs := make([]uuid.UUID, 0, len(variants))
		for i := range variants {
			byID[variants[i].ID] = &variants[i]
			productIDs = append(productIDs, variants[i].ProductID)
		}
		var products []domain.Product
		if len(productIDs) > 0 {
			if err := tx.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
				return err
			}
		}
		prodByID := make(map[uuid.UUID]*domain.Product, len(products))
		for i := range products {
			prodByID[products[i].ID] = &products[i]
		}
		for i := range cart.Items {
			v := byID[cart.Items[i].VariantID]
			if v != nil {
				v.Product = prodByID[v.ProductID]
			}
			cart.Items[i].Variant = v
		}

		o, err := build(&cart)
		if err != nil {
			return err
		}
		var addr domain.Address
		if err := tx.Clauses(forUpdate).Select("id").
			Where("id = ? AND user_id = ? AND is_active = ?", o.AddressID, o.UserID, true).
			Take(&addr).Error; err != nil {
			return mapErr(err, "dirección")
		}
		if err := tx.Omit("User", "Address").Create(o).Error; err != nil {
			return err
		}

		for _, it := range o.Items {
			res := tx.Model(&domain.Variant{}).
				Where("id = ? AND stock >= ?", it.VariantID, it.Quantity).
				Updates(map[string]any{
					"stock":     gorm.Expr("stock - ?", it.Quantity),
					"is_active": gorm.Expr("stock - ? > 0", it.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrInsufficientStock
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Address").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err, "orden")
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(f.Page, f.PageSize)
	var list []domain.Order
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Preload("Items").Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Save persiste los campos propios de la orden, sin tocar items ni relaciones.
func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}
