package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type AddressRepo struct{ db *gorm.DB }

func NewAddressRepo(db *gorm.DB) *AddressRepo { return &AddressRepo{db: db} }

// clearDefaults bloquea las direcciones activas del usuario y les saca el default,
// dejando afuera a keep.
func clearDefaults(tx *gorm.DB, userID, keep uuid.UUID) error {
	var ids []uuid.UUID
	if err := tx.Model(&domain.Address{}).Clauses(forUpdate).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keep, true).
		Update("is_default", false).Error
}

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.IsDefault {
			if err := clearDefaults(tx, a.UserID, a.ID); err != nil {
				return err
			}
		}
		return tx.Omit("User").Create(a).Error
	})
}

func (r *AddressRepo) Update(ctx context.Context, a *domain.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := clearDefaults(tx, a.UserID, a.ID); err != nil {
				return err
			}
		}
		res := tx.Model(&domain.Address{}).
			Where("id = ? AND user_id = ? AND is_active = ?", a.ID, a.UserID, true).
			Select("recipient_name", "phone", "street", "number", "apartment", "city",
				"province", "postal_code", "reference", "is_default").
			Updates(map[string]any{
				"recipient_name": a.RecipientName,
				"phone":          a.Phone,
				"street":         a.Street,
				"number":         a.Number,
				"apartment":      a.Apartment,
				"city":           a.City,
				"province":       a.Province,
				"postal_code":    a.PostalCode,
				"reference":      a.Reference,
				"is_default":     a.IsDefault,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("dirección")
		}
		return nil
	})
}

// FindOwned sólo devuelve direcciones activas del usuario; ajenas dan NotFound.
func (r *AddressRepo) FindOwned(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	var a domain.Address
	err := r.db.WithContext(ctx).
		First(&a, "id = ? AND user_id = ? AND is_active = ?", id, userID, true).Error
	if err != nil {
		return nil, mapErr(err, "dirección")
	}
	return &a, nil
}

func (r *AddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	var list []domain.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default desc, created_at asc").
		Find(&list).Error
	return list, err
}

func (r *AddressRepo) SetDefault(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	var a domain.Address
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefaults(tx, userID, id); err != nil {
			return err
		}
		if err := tx.First(&a, "id = ? AND user_id = ? AND is_active = ?", id, userID, true).Error; err != nil {
			return mapErr(err, "dirección")
		}
		a.IsDefault = true
		return tx.Model(&a).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Address{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Updates(map[string]any{"is_active": false, "is_default": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("dirección")
	}
	return nil
}
