package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}

type AddressRepo interface {
	// Create inserta la dirección; si IsDefault, desmarca las demás en la misma transacción.
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	FindOwned(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

type CategoryRepo interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error)
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error

	CreateSub(ctx context.Context, s *Subcategory) error
	UpdateSub(ctx context.Context, s *Subcategory) error
	FindSub(ctx context.Context, categoryID, id uuid.UUID) (*Subcategory, error)
	SubSlugTaken(ctx context.Context, categoryID uuid.UUID, slug string, exceptID uuid.UUID) (bool, error)
	SoftDeleteSub(ctx context.Context, categoryID, id uuid.UUID) error
}

// ObjectStorage guarda archivos subidos en un bucket externo.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ProcessedImage es el resultado de normalizar una imagen subida.
type ProcessedImage struct {
	Data        []byte
	Format      string
	ContentType string
	Width       int
	Height      int
}

type ImageProcessor interface {
	Process(data []byte) (*ProcessedImage, error)
}

// Cache de lecturas del catálogo. Un miss devuelve (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
}

type TokenIssuer interface {
	Issue(u *User) (string, time.Time, error)
	Parse(token string) (*Principal, error)
}

type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// PaymentGateway crea el checkout externo de una orden.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, o *Order, payerEmail string) (string, error)
	PaymentInfo(ctx context.Context, paymentID string) (status string, externalRef string, err error)
	ResolveExternalRef(ref string) (uuid.UUID, bool)
}

// CatalogExporter vuelca el catálogo a un archivo descargable.
type CatalogExporter interface {
	ContentType() string
	FileName() string
	Write(w io.Writer, products []Product) error
}

// OrderNotifier avisa a ventas cuando se confirma el pago de una orden.
type OrderNotifier interface {
	OrderPaid(ctx context.Context, o *Order) error
}
