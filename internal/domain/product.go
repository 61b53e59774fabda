package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderHombre Gender = "HOMBRE"
	GenderMujer  Gender = "MUJER"
	GenderUnisex Gender = "UNISEX"
	GenderNinos  Gender = "NINOS"
)

type Product struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Slug          string       `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Name          string       `gorm:"size:180;not null" json:"name"`
	Description   string       `gorm:"type:text" json:"description,omitempty"`
	CategoryID    uuid.UUID    `gorm:"type:uuid;index;not null" json:"categoryId"`
	Category      *Category    `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	SubcategoryID *uuid.UUID   `gorm:"type:uuid;index" json:"subcategoryId,omitempty"`
	Subcategory   *Subcategory `gorm:"constraint:OnDelete:SET NULL" json:"subcategory,omitempty"`
	IsActive      bool         `gorm:"not null;default:true;index" json:"isActive"`
	Tags          []Tag        `gorm:"many2many:product_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Variants      []Variant    `gorm:"constraint:OnDelete:CASCADE" json:"variants"`
	Images        []Image      `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Variant es la configuración comprable (talle, color, género) con stock propio.
// IsActive no lleva default en la base: gorm omitiría el false al crear.
type Variant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null" json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	SKU       string          `gorm:"size:100;uniqueIndex;not null" json:"sku"`
	Size      string          `gorm:"size:20;not null" json:"size"`
	Color     string          `gorm:"size:60;not null" json:"color"`
	Gender    Gender          `gorm:"type:varchar(10);not null" json:"gender"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock     int             `gorm:"not null" json:"stock"`
	IsActive  bool            `gorm:"not null" json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Variant) TableName() string { return "product_variants" }

func (v *Variant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// SyncActive aplica la regla isActive == stock > 0.
func (v *Variant) SyncActive() {
	v.IsActive = v.Stock > 0
}

type Image struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"productId"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	StorageID string    `gorm:"size:255" json:"storageId,omitempty"`
	Alt       string    `gorm:"size:140" json:"alt,omitempty"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Image) TableName() string { return "product_images" }

func (i *Image) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:60;not null" json:"name"`
	Slug      string    `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"-"`
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProductTag es la tabla intermedia product_tags.
type ProductTag struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortName      ProductSort = "name"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
)

type ProductFilter struct {
	Category        string
	Subcategory     string
	Tag             string
	Gender          Gender
	Query           string
	Sort            ProductSort
	IncludeInactive bool
	Page            int
	PageSize        int
}

type ProductRepo interface {
	// Create y Update reciben los nombres de tags; en Update nil deja los actuales.
	Create(ctx context.Context, p *Product, tags []string) error
	Update(ctx context.Context, p *Product, tags []string) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, v *Variant) error
	UpdateVariant(ctx context.Context, v *Variant) error
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*Variant, error)
	// FindVariantByID trae la variante con su producto.
	FindVariantByID(ctx context.Context, variantID uuid.UUID) (*Variant, error)
	SoftDeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error

	AddImage(ctx context.Context, img *Image) error
	SoftDeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
}
