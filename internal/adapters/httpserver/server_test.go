package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/adapters/auth"
	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type stubIdentity struct{}

func (stubIdentity) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (stubIdentity) Exchange(_ context.Context, code string) (*domain.Identity, error) {
	return &domain.Identity{Subject: "sub-" + code, Email: code + "@example.com", Name: code}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

type harness struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
	tokens  *auth.Tokens
	users   *postgres.UserRepo
}

func newHarness(t *testing.T) *harness {
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

	users := postgres.NewUserRepo(db)
	products := postgres.NewProductRepo(db)
	categories := postgres.NewCategoryRepo(db)
	addresses := postgres.NewAddressRepo(db)
	tokens := auth.NewTokens("test-secret", time.Hour)
	h := New(Deps{
		Products:   &usecase.ProductUC{Products: products, Categories: categories},
		Categories: &usecase.CategoryUC{Categories: categories},
		Addresses:  &usecase.AddressUC{Addresses: addresses},
		Carts:      &usecase.CartUC{Carts: postgres.NewCartRepo(db), Products: products},
		Orders:     &usecase.OrderUC{Orders: postgres.NewOrderRepo(db), Addresses: addresses, Users: users},
		Favorites:  &usecase.FavoriteUC{Favorites: postgres.NewFavoriteRepo(db), Products: products},
		Auth:       &usecase.AuthUC{Users: users, Identity: stubIdentity{}, Tokens: tokens},
	})
	return &harness{t: t, db: db, handler: h, tokens: tokens, users: users}
}

// token crea el usuario con el rol dado y devuelve un bearer válido.
func (h *harness) token(email string, role domain.Role) string {
	u := &domain.User{Email: email, Role: role, IsActive: true}
	require.NoError(h.t, h.users.Save(context.Background(), u))
	tok, _, err := h.tokens.Issue(u)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errBody struct {
	Error apiError `json:"error"`
}

func TestHealthzAndRequestID(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestAuthGuards(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody[errBody](t, rec).Error.Code)

	rec = h.do(http.MethodGet, "/cart", "basura", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := h.token("ana@example.com", domain.RoleUser)
	rec = h.do(http.MethodPost, "/categories", user, map[string]string{"name": "Remeras"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeBody[errBody](t, rec).Error.Code)

	rec = h.do(http.MethodGet, "/auth/me", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@example.com", decodeBody[domain.User](t, rec).Email)
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin@example.com", domain.RoleAdmin)

	rec := h.do(http.MethodPost, "/categories", admin, map[string]string{"description": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errBody](t, rec)
	assert.Equal(t, "validation", body.Error.Code)
	assert.Equal(t, "es obligatorio", body.Error.Fields["name"])

	rec = h.do(http.MethodPost, "/products", admin, map[string]any{
		"name": "Remera", "categoryId": "no-uuid",
		"variants": []map[string]any{{"sku": "X", "size": "M", "color": "Negro", "gender": "OTRO", "price": "1"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decodeBody[errBody](t, rec)
	assert.Equal(t, "debe ser un UUID válido", body.Error.Fields["categoryId"])
	assert.Contains(t, body.Error.Fields["variants[0].gender"], "HOMBRE")
	assert.Contains(t, body.Error.Fields, "variants[0].sku")

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", decodeBody[errBody](t, rec).Error.Code)

	rec = h.do(http.MethodGet, "/products/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[errBody](t, rec).Error.Code)
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin@example.com", domain.RoleAdmin)
	ana := h.token("ana@example.com", domain.RoleUser)

	rec := h.do(http.MethodPost, "/categories", admin, map[string]string{"name": "Remeras"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decodeBody[domain.Category](t, rec)

	rec = h.do(http.MethodPost, "/products", admin, map[string]any{
		"name":       "Remera Lisa",
		"categoryId": cat.ID,
		"tags":       []string{"algodón"},
		"variants": []map[string]any{
			{"sku": "RL-M", "size": "M", "color": "Negro", "gender": "UNISEX", "price": "10.00", "stock": 5},
			{"sku": "RL-L", "size": "L", "color": "Negro", "gender": "UNISEX", "price": "5.00", "stock": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prod := decodeBody[domain.Product](t, rec)
	require.Len(t, prod.Variants, 2)
	var m, l domain.Variant
	for _, v := range prod.Variants {
		if v.Size == "M" {
			m = v
		} else {
			l = v
		}
	}

	rec = h.do(http.MethodGet, "/products?tag=algodon", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody[usecase.Page[domain.Product]](t, rec).Total)
	rec = h.do(http.MethodGet, "/products/remera-lisa", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/address", ana, map[string]string{
		"recipientName": "Ana", "street": "Mitre", "number": "100",
		"city": "Rosario", "province": "Santa Fe", "postalCode": "2000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	addr := decodeBody[domain.Address](t, rec)
	assert.True(t, addr.IsDefault)

	rec = h.do(http.MethodPost, "/cart/items", ana, map[string]any{"variantId": m.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/cart/items", ana, map[string]any{"variantId": l.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decodeBody[usecase.CartView](t, rec)
	assert.Equal(t, 3, cart.ItemCount)

	rec = h.do(http.MethodPost, "/cart/items", ana, map[string]any{"variantId": l.ID, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_stock", decodeBody[errBody](t, rec).Error.Code)

	rec = h.do(http.MethodPost, "/orders", ana, map[string]string{"addressId": addr.ID.String(), "paymentMethod": "TRANSFERENCIA"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeBody[usecase.PlacedOrder](t, rec)
	require.NotNil(t, placed.Order)
	assert.True(t, placed.Order.Total.Equal(decimal.RequireFromString("25")), "total %s", placed.Order.Total)
	assert.Equal(t, domain.OrderStatusPendingPayment, placed.Order.Status)

	rec = h.do(http.MethodPost, "/orders", ana, map[string]string{"addressId": addr.ID.String(), "paymentMethod": "TRANSFERENCIA"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decodeBody[errBody](t, rec).Error.Code)

	orderPath := "/orders/" + placed.Order.ID.String()
	rec = h.do(http.MethodGet, orderPath, ana, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	beto := h.token("beto@example.com", domain.RoleUser)
	rec = h.do(http.MethodGet, orderPath, beto, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/orders", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody[usecase.Page[domain.Order]](t, rec).Total)

	rec = h.do(http.MethodPatch, orderPath+"/status", ana, map[string]string{"status": "EN_CAMINO"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.do(http.MethodPatch, orderPath+"/status", admin, map[string]string{"status": "EN_CAMINO"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	o := decodeBody[domain.Order](t, rec)
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
	assert.NotNil(t, o.ShippedAt)

	rec = h.do(http.MethodGet, "/orders/all?status=EN_CAMINO", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody[usecase.Page[domain.Order]](t, rec).Total)

	// la talle L quedó sin stock: el público no la ve
	rec = h.do(http.MethodGet, "/products/remera-lisa", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[domain.Product](t, rec).Variants, 1)
	rec = h.do(http.MethodGet, "/products/remera-lisa", admin, nil)
	assert.Len(t, decodeBody[domain.Product](t, rec).Variants, 2)
}

func TestFavoritesEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin@example.com", domain.RoleAdmin)
	ana := h.token("ana@example.com", domain.RoleUser)
	cat := decodeBody[domain.Category](t, h.do(http.MethodPost, "/categories", admin, map[string]string{"name": "Buzos"}))
	rec := h.do(http.MethodPost, "/products", admin, map[string]any{"name": "Buzo", "categoryId": cat.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prod := decodeBody[domain.Product](t, rec)

	rec = h.do(http.MethodPost, "/favorites", ana, map[string]any{"productId": prod.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/favorites", ana, map[string]any{"productId": prod.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodGet, "/favorites", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Favorite](t, rec), 1)

	rec = h.do(http.MethodDelete, "/favorites/"+prod.ID.String(), ana, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodDelete, "/favorites/"+prod.ID.String(), ana, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookAlwaysOK(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct {
		name, path, body, status string
	}{
		{"sin id", "/webhooks/mercadopago", `{}`, "ignored"},
		{"id en body", "/webhooks/mercadopago", `{"type":"payment","data":{"id":"123"}}`, "error"},
		{"id numérico", "/webhooks/mercadopago", `{"type":"payment","data":{"id":123}}`, "error"},
		{"id en query", "/webhooks/mercadopago?data.id=9&type=payment", ``, "error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.status, decodeBody[map[string]string](t, rec)["status"])
		})
	}
}

func TestPaymentIDFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?id=77&topic=payment", nil)
	assert.Equal(t, "77", paymentID(req))
}

func TestGoogleLoginState(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/auth/google/login", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.Len(t, state, 32)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, stateCookie, cookies[0].Name)
	assert.Equal(t, state, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=otro&code=ana", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_state", decodeBody[errBody](t, rec).Error.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=ana", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decodeBody[usecase.Session](t, rec)
	assert.Equal(t, "ana@example.com", sess.User.Email)

	rec = h.do(http.MethodGet, "/auth/me", sess.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/auth/google", "", map[string]string{"code": "beto"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "beto@example.com", decodeBody[usecase.Session](t, rec).User.Email)
}

func TestRateLimit(t *testing.T) {
	h := New(Deps{Limiter: denyAll{}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "31", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeBody[errBody](t, rec).Error.Code)
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "cada IP tiene su propio bucket")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r, true))
	r.Header.Set("X-Forwarded-For", "200.1.1.1, 10.0.0.1")
	assert.Equal(t, "200.1.1.1", clientIP(r, true))
	assert.Equal(t, "10.0.0.1", clientIP(r, false), "sin proxy de confianza el header se ignora")
}

type keyRecorder struct{ keys []string }

func (k *keyRecorder) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	k.keys = append(k.keys, key)
	return true, 0, nil
}

func TestRateLimitKeysByRemoteAddr(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	for _, trust := range []bool{false, true} {
		l := &keyRecorder{}
		h := RateLimit(l, trust)(ok)
		for _, fwd := range []string{"1.1.1.1", "2.2.2.2"} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "10.0.0.1:5555"
			r.Header.Set("X-Forwarded-For", fwd)
			h.ServeHTTP(httptest.NewRecorder(), r)
		}
		if trust {
			assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, l.keys)
		} else {
			assert.Equal(t, []string{"10.0.0.1", "10.0.0.1"}, l.keys, "rotar el header no cambia la clave")
		}
	}
}

func TestLoggingIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := zlog.Logger
	zlog.Logger = zerolog.New(&buf)
	t.Cleanup(func() { zlog.Logger = prev })

	h := New(Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc123", rec.Header().Get("X-Request-ID"))

	var line struct {
		Path      string `json:"path"`
		Status    int    `json:"status"`
		RequestID string `json:"request_id"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())
	assert.Equal(t, "http", line.Message)
	assert.Equal(t, "/healthz", line.Path)
	assert.Equal(t, http.StatusOK, line.Status)
	assert.Equal(t, "abc123", line.RequestID)

	buf.Reset()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())
	assert.Equal(t, rec.Header().Get("X-Request-ID"), line.RequestID)
	assert.NotEmpty(t, line.RequestID)
}

func TestRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recovery)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeBody[errBody](t, rec).Error.Code)
}
