package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type ProductUC struct {
	Products   domain.ProductRepo
	Categories domain.CategoryRepo
	Cache      domain.Cache
	Exporter   domain.CatalogExporter
}

type VariantInput struct {
	SKU    string          `json:"sku" validate:"required,min=2,max=100"`
	Size   string          `json:"size" validate:"required,max=20"`
	Color  string          `json:"color" validate:"required,max=60"`
	Gender domain.Gender   `json:"gender" validate:"required,oneof=HOMBRE MUJER UNISEX NINOS"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock" validate:"min=0"`
}

type VariantPatch struct {
	SKU    *string          `json:"sku" validate:"omitempty,min=2,max=100"`
	Size   *string          `json:"size" validate:"omitempty,max=20"`
	Color  *string          `json:"color" validate:"omitempty,max=60"`
	Gender *domain.Gender   `json:"gender" validate:"omitempty,oneof=HOMBRE MUJER UNISEX NINOS"`
	Price  *decimal.Decimal `json:"price"`
	Stock  *int             `json:"stock" validate:"omitempty,min=0"`
}

type ImageInput struct {
	URL       string `json:"url" validate:"required,url,max=500"`
	StorageID string `json:"storageId" validate:"max=255"`
	Alt       string `json:"alt" validate:"max=140"`
	Position  int    `json:"position" validate:"min=0"`
}

type ProductInput struct {
	Name          string         `json:"name" validate:"required,min=2,max=180"`
	Description   string         `json:"description" validate:"max=5000"`
	CategoryID    string         `json:"categoryId" validate:"required,uuid"`
	SubcategoryID *string        `json:"subcategoryId" validate:"omitempty,uuid"`
	Tags          []string       `json:"tags" validate:"max=20,dive,min=1,max=60"`
	Variants      []VariantInput `json:"variants" validate:"dive"`
	Images        []ImageInput   `json:"images" validate:"max=12,dive"`
}

// ProductPatch sólo aplica los campos presentes. Tags nil deja los actuales.
type ProductPatch struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=180"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	CategoryID    *string  `json:"categoryId" validate:"omitempty,uuid"`
	SubcategoryID *string  `json:"subcategoryId" validate:"omitempty,uuid"`
	IsActive      *bool    `json:"isActive"`
	Tags          []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=60"`
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.Invalid("el precio no puede ser negativo")
	}
	return nil
}

func (in VariantInput) variant(productID uuid.UUID) (*domain.Variant, error) {
	if err := checkPrice(in.Price); err != nil {
		return nil, err
	}
	v := &domain.Variant{
		ProductID: productID,
		SKU:       strings.TrimSpace(in.SKU),
		Size:      strings.TrimSpace(in.Size),
		Color:     strings.TrimSpace(in.Color),
		Gender:    in.Gender,
		Price:     in.Price.Round(2),
		Stock:     in.Stock,
	}
	v.SyncActive()
	return v, nil
}

// classify valida categoría y subcategoría (ésta debe pertenecer a aquélla).
func (uc *ProductUC) classify(ctx context.Context, categoryID uuid.UUID, subID *uuid.UUID) error {
	cat, err := uc.Categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !cat.IsActive {
		return domain.Invalid("la categoría %q está inactiva", cat.Name)
	}
	if subID == nil {
		return nil
	}
	sub, err := uc.Categories.FindSub(ctx, categoryID, *subID)
	if err != nil {
		return err
	}
	if !sub.IsActive {
		return domain.Invalid("la subcategoría %q está inactiva", sub.Name)
	}
	return nil
}

func (uc *ProductUC) slugFor(ctx context.Context, name string, exceptID uuid.UUID) (string, error) {
	slug := domain.Slugify(name)
	if slug == "" {
		return "", domain.Invalid("el nombre debe tener letras o números")
	}
	taken, err := uc.Products.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.Conflict("ya existe un producto con slug %q", slug)
	}
	return slug, nil
}

func (uc *ProductUC) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	categoryID, err := parseID(in.CategoryID, "categoryId")
	if err != nil {
		return nil, err
	}
	subID, err := optionalID(in.SubcategoryID, "subcategoryId")
	if err != nil {
		return nil, err
	}
	if err := uc.classify(ctx, categoryID, subID); err != nil {
		return nil, err
	}
	slug, err := uc.slugFor(ctx, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:            uuid.New(),
		Slug:          slug,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		CategoryID:    categoryID,
		SubcategoryID: subID,
		IsActive:      true,
	}
	for _, vi := range in.Variants {
		v, err := vi.variant(p.ID)
		if err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, *v)
	}
	for _, ii := range in.Images {
		p.Images = append(p.Images, domain.Image{ProductID: p.ID, URL: ii.URL, StorageID: ii.StorageID, Alt: ii.Alt, Position: ii.Position, IsActive: true})
	}
	if err := uc.Products.Create(ctx, p, in.Tags); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.Cache, productKeys)
	log.Info().Str("product", p.ID.String()).Str("slug", p.Slug).Msg("producto creado")
	return uc.Products.FindByID(ctx, p.ID)
}

func (uc *ProductUC) Update(ctx context.Context, id uuid.UUID, in ProductPatch) (*domain.Product, error) {
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != p.Name {
		slug, err := uc.slugFor(ctx, *in.Name, p.ID)
		if err != nil {
			return nil, err
		}
		p.Name = strings.TrimSpace(*in.Name)
		p.Slug = slug
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.CategoryID != nil {
		catID, err := parseID(*in.CategoryID, "categoryId")
		if err != nil {
			return nil, err
		}
		if catID != p.CategoryID {
			p.CategoryID = catID
			p.SubcategoryID = nil
		}
	}
	if in.SubcategoryID != nil {
		p.SubcategoryID, err = optionalID(in.SubcategoryID, "subcategoryId")
		if err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil || in.SubcategoryID != nil {
		if err := uc.classify(ctx, p.CategoryID, p.SubcategoryID); err != nil {
			return nil, err
		}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := uc.Products.Update(ctx, p, in.Tags); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return uc.Products.FindByID(ctx, p.ID)
}

// Get acepta id o slug. Los inactivos sólo se ven con includeInactive.
func (uc *ProductUC) Get(ctx context.Context, ref string, includeInactive bool) (*domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.Invalid("slug vacío")
	}
	key := "products:detail:" + ref
	var p *domain.Product
	if !includeInactive && uc.Cache != nil {
		var cached domain.Product
		if ok, err := uc.Cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		p, err = uc.Products.FindByID(ctx, id)
	} else {
		p, err = uc.Products.FindBySlug(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !includeInactive {
		return nil, domain.NotFound("producto")
	}
	if !includeInactive {
		visible := p.Variants[:0]
		for _, v := range p.Variants {
			if v.IsActive {
				visible = append(visible, v)
			}
		}
		p.Variants = visible
		if uc.Cache != nil {
			if err := uc.Cache.Set(ctx, key, p); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache set")
			}
		}
	}
	return p, nil
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) (Page[domain.Product], error) {
	if f.Sort != "" {
		switch f.Sort {
		case domain.SortNewest, domain.SortName, domain.SortPriceAsc, domain.SortPriceDesc:
		default:
			return Page[domain.Product]{}, domain.Invalid("sort inválido: %s", f.Sort)
		}
	}
	page := newPage[domain.Product](nil, 0, f.Page, f.PageSize)
	f.Page, f.PageSize = page.Page, page.PageSize
	key := fmt.Sprintf("products:list:%s|%s|%s|%s|%s|%s|%d|%d",
		f.Category, f.Subcategory, f.Tag, f.Gender, strings.ToLower(f.Query), f.Sort, f.Page, f.PageSize)
	cacheable := uc.Cache != nil && !f.IncludeInactive
	if cacheable {
		var cached Page[domain.Product]
		if ok, err := uc.Cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	list, total, err := uc.Products.List(ctx, f)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	out := newPage(list, total, f.Page, f.PageSize)
	if cacheable {
		if err := uc.Cache.Set(ctx, key, out); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set")
		}
	}
	return out, nil
}

func (uc *ProductUC) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.Products.SoftDelete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, uc.Cache, productKeys)
	log.Info().Str("product", id.String()).Msg("producto desactivado")
	return nil
}

// --- Variantes ---

func (uc *ProductUC) AddVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*domain.Variant, error) {
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	v, err := in.variant(productID)
	if err != nil {
		return nil, err
	}
	if err := uc.Products.CreateVariant(ctx, v); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return v, nil
}

func (uc *ProductUC) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, in VariantPatch) (*domain.Variant, error) {
	v, err := uc.Products.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if in.SKU != nil {
		v.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Size != nil {
		v.Size = strings.TrimSpace(*in.Size)
	}
	if in.Color != nil {
		v.Color = strings.TrimSpace(*in.Color)
	}
	if in.Gender != nil {
		v.Gender = *in.Gender
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return nil, err
		}
		v.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		v.Stock = *in.Stock
	}
	v.SyncActive()
	if err := uc.Products.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return v, nil
}

func (uc *ProductUC) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if err := uc.Products.SoftDeleteVariant(ctx, productID, variantID); err != nil {
		return err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return nil
}

// --- Imágenes ---

func (uc *ProductUC) AddImage(ctx context.Context, productID uuid.UUID, in ImageInput) (*domain.Image, error) {
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	img := &domain.Image{ProductID: productID, URL: in.URL, StorageID: in.StorageID, Alt: in.Alt, Position: in.Position, IsActive: true}
	if err := uc.Products.AddImage(ctx, img); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return img, nil
}

func (uc *ProductUC) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	if err := uc.Products.SoftDeleteImage(ctx, productID, imageID); err != nil {
		return err
	}
	invalidate(ctx, uc.Cache, productKeys)
	return nil
}

// Export escribe todo el catálogo (activos e inactivos) con el exporter configurado.
func (uc *ProductUC) Export(ctx context.Context, w io.Writer) error {
	if uc.Exporter == nil {
		return errors.New("export no configurado")
	}
	const size = 100
	var all []domain.Product
	for page := 1; ; page++ {
		list, total, err := uc.Products.List(ctx, domain.ProductFilter{IncludeInactive: true, Sort: domain.SortName, Page: page, PageSize: size})
		if err != nil {
			return err
		}
		for _, p := range list {
			full, err := uc.Products.FindByID(ctx, p.ID)
			if err != nil {
				return err
			}
			all = append(all, *full)
		}
		if len(list) == 0 || int64(page*size) >= total {
			break
		}
	}
	return uc.Exporter.Write(w, all)
}
