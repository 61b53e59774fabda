package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := config.Config{
		AppEnv:          "development",
		JWTSecret:       "test",
		RateLimitPerMin: 1000,
		UploadsDir:      t.TempDir(),
		PublicBaseURL:   "http://localhost:8080",
	}
	a, err := NewApp(context.Background(), db, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NoError(t, a.Migrate())
	return a
}

func TestNewAppFallbacks(t *testing.T) {
	a := newTestApp(t)
	assert.Nil(t, a.ProductUC.Cache, "sin REDIS_ADDR no hay cache")
	assert.Nil(t, a.OrderUC.Gateway)
	assert.Nil(t, a.OrderUC.Notifier)
	assert.Nil(t, a.AuthUC.Identity)
	assert.NotNil(t, a.limiter)
	assert.Equal(t, a.Config.UploadsDir, a.uploadsDir)
}

func TestSeedServesCatalog(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Seed())
	require.NoError(t, a.Seed(), "el seed es idempotente")

	h := a.HTTPHandler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?sort=name", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "buzo-canguro", page.Items[0].Slug)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"basicas"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "sin credenciales de Google el login responde 400")
}
