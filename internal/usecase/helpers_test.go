package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/domain"
)

type env struct {
	db         *gorm.DB
	users      *postgres.UserRepo
	products   *postgres.ProductRepo
	categories *postgres.CategoryRepo
	addresses  *postgres.AddressRepo
	carts      *postgres.CartRepo
	orders     *postgres.OrderRepo
	favorites  *postgres.FavoriteRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))
	return &env{
		db:         db,
		users:      postgres.NewUserRepo(db),
		products:   postgres.NewProductRepo(db),
		categories: postgres.NewCategoryRepo(db),
		addresses:  postgres.NewAddressRepo(db),
		carts:      postgres.NewCartRepo(db),
		orders:     postgres.NewOrderRepo(db),
		favorites:  postgres.NewFavoriteRepo(db),
	}
}

func (e *env) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: domain.RoleUser, IsActive: true}
	require.NoError(t, e.users.Save(context.Background(), u))
	return u
}

func (e *env) category(t *testing.T, slug string) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: slug, Slug: slug, IsActive: true}
	require.NoError(t, e.categories.Create(context.Background(), c))
	return c
}

// product crea un producto con una variante por stock dado, todas a price.
func (e *env) product(t *testing.T, cat *domain.Category, name, price string, stocks ...int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Slug: domain.Slugify(name), CategoryID: cat.ID, IsActive: true}
	for i, s := range stocks {
		v := domain.Variant{
			SKU:    fmt.Sprintf("%s-%d", p.Slug, i),
			Size:   "M",
			Color:  "Negro",
			Gender: domain.GenderUnisex,
			Price:  decimal.RequireFromString(price),
			Stock:  s,
		}
		v.SyncActive()
		p.Variants = append(p.Variants, v)
	}
	require.NoError(t, e.products.Create(context.Background(), p, nil))
	return p
}

func (e *env) variant(t *testing.T, id uuid.UUID) *domain.Variant {
	t.Helper()
	v, err := e.products.FindVariantByID(context.Background(), id)
	require.NoError(t, err)
	return v
}

// memCache implementa domain.Cache en memoria, con el mismo matching de patrones que Redis.
type memCache struct {
	mu      sync.Mutex
	data    map[string]any
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string]any{}} }

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *domain.Product:
		*d = *(v.(*domain.Product))
	case *Page[domain.Product]:
		*d = v.(Page[domain.Product])
	case *[]domain.Category:
		*d = v.([]domain.Category)
	default:
		return false, nil
	}
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := value.(*domain.Product); ok {
		cp := *p
		value = &cp
	}
	c.data[key] = value
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok || strings.HasPrefix(k, strings.TrimSuffix(pattern, "*")) {
			delete(c.data, k)
		}
	}
	return nil
}

type fakeGateway struct {
	prefErr  error
	status   string
	ref      string
	prefs    []uuid.UUID
	resolved map[string]uuid.UUID
}

func (g *fakeGateway) CreatePreference(_ context.Context, o *domain.Order, _ string) (string, error) {
	if g.prefErr != nil {
		return "", g.prefErr
	}
	g.prefs = append(g.prefs, o.ID)
	return "https://mp.example.com/checkout/" + o.ID.String(), nil
}

func (g *fakeGateway) PaymentInfo(_ context.Context, _ string) (string, string, error) {
	return g.status, g.ref, nil
}

func (g *fakeGateway) ResolveExternalRef(ref string) (uuid.UUID, bool) {
	id, ok := g.resolved[ref]
	return id, ok
}

type fakeNotifier struct{ paid []uuid.UUID }

func (n *fakeNotifier) OrderPaid(_ context.Context, o *domain.Order) error {
	n.paid = append(n.paid, o.ID)
	return nil
}
