package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return mapErr(r.db.WithContext(ctx).Omit("Subcategories").Create(c).Error, "categoría")
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", c.ID).
		Select("name", "slug", "description", "is_active").
		Updates(map[string]any{
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
			"is_active":   c.IsActive,
		})
	if res.Error != nil {
		return mapErr(res.Error, "categoría")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("categoría")
	}
	return nil
}

func activeSubs(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("name asc")
}

func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Preload("Subcategories", activeSubs).First(&c, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "categoría")
	}
	return &c, nil
}

func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Preload("Subcategories", activeSubs).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, mapErr(err, "categoría")
	}
	return &c, nil
}

func (r *CategoryRepo) SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).
		Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *CategoryRepo) List(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	var list []domain.Category
	q := r.db.WithContext(ctx).Preload("Subcategories", activeSubs).Order("name asc")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	return list, q.Find(&list).Error
}

func (r *CategoryRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Category{}).
		Where("id = ? AND is_active = ?", id, true).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("categoría")
	}
	return nil
}

// --- Subcategorías ---

func (r *CategoryRepo) CreateSub(ctx context.Context, s *domain.Subcategory) error {
	return mapErr(r.db.WithContext(ctx).Create(s).Error, "subcategoría")
}

func (r *CategoryRepo) UpdateSub(ctx context.Context, s *domain.Subcategory) error {
	res := r.db.WithContext(ctx).Model(&domain.Subcategory{}).
		Where("id = ? AND category_id = ?", s.ID, s.CategoryID).
		Select("name", "slug", "is_active").
		Updates(map[string]any{"name": s.Name, "slug": s.Slug, "is_active": s.IsActive})
	if res.Error != nil {
		return mapErr(res.Error, "subcategoría")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("subcategoría")
	}
	return nil
}

func (r *CategoryRepo) FindSub(ctx context.Context, categoryID, id uuid.UUID) (*domain.Subcategory, error) {
	var s domain.Subcategory
	if err := r.db.WithContext(ctx).First(&s, "id = ? AND category_id = ?", id, categoryID).Error; err != nil {
		return nil, mapErr(err, "subcategoría")
	}
	return &s, nil
}

func (r *CategoryRepo) SubSlugTaken(ctx context.Context, categoryID uuid.UUID, slug string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Subcategory{}).
		Where("category_id = ? AND slug = ? AND id <> ?", categoryID, slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *CategoryRepo) SoftDeleteSub(ctx context.Context, categoryID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Subcategory{}).
		Where("id = ? AND category_id = ? AND is_active = ?", id, categoryID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("subcategoría")
	}
	return nil
}
