package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := upsertTags(tx, tags)
		if err != nil {
			return err
		}
		p.Tags = list
		if err := tx.Omit("Tags.*").Create(p).Error; err != nil {
			return mapErr(err, "producto")
		}
		return nil
	})
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).Where("id = ?", p.ID).
			Select("name", "slug", "description", "category_id", "subcategory_id", "is_active").
			Updates(map[string]any{
				"name":           p.Name,
				"slug":           p.Slug,
				"description":    p.Description,
				"category_id":    p.CategoryID,
				"subcategory_id": p.SubcategoryID,
				"is_active":      p.IsActive,
			})
		if res.Error != nil {
			return mapErr(res.Error, "producto")
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("producto")
		}
		if tags == nil {
			return nil
		}
		list, err := upsertTags(tx, tags)
		if err != nil {
			return err
		}
		p.Tags = list
		return tx.Model(p).Association("Tags").Replace(list)
	})
}

// upsertTags resuelve los nombres a tags existentes por slug, creando los faltantes.
func upsertTags(tx *gorm.DB, names []string) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		name := strings.TrimSpace(n)
		slug := domain.Slugify(name)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		var t domain.Tag
		err := tx.Where("slug = ?", slug).First(&t).Error
		if err == gorm.ErrRecordNotFound {
			t = domain.Tag{Name: name, Slug: slug}
			err = tx.Create(&t).Error
		}
		if err != nil {
			return nil, mapErr(err, "tag")
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *ProductRepo) detail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		Preload("Tags").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("position asc, created_at asc")
		})
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.detail(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "producto")
	}
	return &p, nil
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.detail(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		return nil, mapErr(err, "producto")
	}
	return &p, nil
}

// SlugTaken mira productos activos e inactivos.
func (r *ProductRepo) SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category_id IN (?)", r.db.Model(&domain.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Subcategory != "" {
		q = q.Where("subcategory_id IN (?)", r.db.Model(&domain.Subcategory{}).Select("id").Where("slug = ?", f.Subcategory))
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", r.db.Table("product_tags").Select("product_tags.product_id").
			Joins("JOIN tags ON tags.id = product_tags.tag_id").Where("tags.slug = ?", f.Tag))
	}
	if f.Gender != "" {
		q = q.Where("id IN (?)", r.db.Model(&domain.Variant{}).Select("product_id").
			Where("gender = ? AND is_active = ?", f.Gender, true))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	const minPrice = "(SELECT MIN(pv.price) FROM product_variants pv WHERE pv.product_id = products.id AND pv.is_active = true)"
	switch f.Sort {
	case domain.SortName:
		q = q.Order("name asc")
	case domain.SortPriceAsc:
		q = q.Order(minPrice + " asc")
	case domain.SortPriceDesc:
		q = q.Order(minPrice + " desc")
	default:
		q = q.Order("created_at desc")
	}
	offset, limit := paginate(f.Page, f.PageSize)
	err := q.Offset(offset).Limit(limit).
		Preload("Category").
		Preload("Variants", "is_active = ?", true).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("position asc")
		}).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND is_active = ?", id, true).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("producto")
	}
	return nil
}

// --- Variantes ---

func (r *ProductRepo) CreateVariant(ctx context.Context, v *domain.Variant) error {
	return mapErr(r.db.WithContext(ctx).Omit("Product").Create(v).Error, "sku")
}

func (r *ProductRepo) UpdateVariant(ctx context.Context, v *domain.Variant) error {
	res := r.db.WithContext(ctx).Model(&domain.Variant{}).
		Where("id = ? AND product_id = ?", v.ID, v.ProductID).
		Select("sku", "size", "color", "gender", "price", "stock", "is_active").
		Updates(map[string]any{
			"sku":       v.SKU,
			"size":      v.Size,
			"color":     v.Color,
			"gender":    v.Gender,
			"price":     v.Price,
			"stock":     v.Stock,
			"is_active": v.IsActive,
		})
	if res.Error != nil {
		return mapErr(res.Error, "sku")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("variante")
	}
	return nil
}

func (r *ProductRepo) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*domain.Variant, error) {
	var v domain.Variant
	if err := r.db.WithContext(ctx).First(&v, "id = ? AND product_id = ?", variantID, productID).Error; err != nil {
		return nil, mapErr(err, "variante")
	}
	return &v, nil
}

func (r *ProductRepo) FindVariantByID(ctx context.Context, variantID uuid.UUID) (*domain.Variant, error) {
	var v domain.Variant
	if err := r.db.WithContext(ctx).Preload("Product").First(&v, "id = ?", variantID).Error; err != nil {
		return nil, mapErr(err, "variante")
	}
	return &v, nil
}

// SoftDeleteVariant deja stock en 0 para que isActive == stock > 0 siga valiendo.
func (r *ProductRepo) SoftDeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Variant{}).
		Where("id = ? AND product_id = ?", variantID, productID).
		Updates(map[string]any{"is_active": false, "stock": 0})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("variante")
	}
	return nil
}

// --- Imágenes ---

func (r *ProductRepo) AddImage(ctx context.Context, img *domain.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *ProductRepo) SoftDeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Image{}).
		Where("id = ? AND product_id = ? AND is_active = ?", imageID, productID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("imagen")
	}
	return nil
}
