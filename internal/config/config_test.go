package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "DB_DSN", "DB_HOST", "JWT_SECRET", "SECRET_KEY", "CART_TTL", "ADMIN_EMAILS", "PUBLIC_BASE_URL", "BASE_URL"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "8080", c.Port)
	assert.True(t, c.IsDev())
	assert.Equal(t, 5*24*time.Hour, c.CartTTL)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, "uploads", c.UploadsDir)
	assert.Equal(t, "http://localhost:8080", c.PublicBaseURL)
	assert.Contains(t, c.DSN, "host=localhost")
	assert.Contains(t, c.DSN, "dbname=storefront")
	assert.Empty(t, c.AdminEmails)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("MP_ACCESS_TOKEN", "TEST-1")
	t.Setenv("PROD_ACCESS_TOKEN", "APP_USR-2")
	t.Setenv("CART_TTL", "3600")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("RATE_LIMIT_PER_MIN", "-5")
	t.Setenv("ADMIN_EMAILS", " Ana@Example.com, ,beto@example.com ")
	t.Setenv("BASE_URL", "https://tienda.example.com/")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("DB_DSN", "postgres://x")

	c := Load()
	assert.False(t, c.IsDev())
	assert.Equal(t, "APP_USR-2", c.MPAccessToken)
	assert.Equal(t, time.Hour, c.CartTTL)
	assert.Equal(t, 2*time.Hour, c.JWTTTL)
	assert.Equal(t, 120, c.RateLimitPerMin)
	assert.Equal(t, []string{"ana@example.com", "beto@example.com"}, c.AdminEmails)
	assert.Equal(t, "https://tienda.example.com", c.PublicBaseURL)
	assert.Equal(t, "postgres://x", c.DSN)
}

func TestValidateSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("APP_ENV", "")
	assert.NoError(t, Load().Validate(), "en desarrollo el secreto por defecto alcanza")

	t.Setenv("APP_ENV", "production")
	err := Load().Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "SECRET_KEY")

	t.Setenv("SECRET_KEY", "s3cr3t")
	c := Load()
	assert.Equal(t, "s3cr3t", c.JWTSecret, "JWT_SECRET cae en SECRET_KEY")
	assert.NoError(t, c.Validate())

	t.Setenv("JWT_SECRET", "dev-insecure")
	assert.ErrorContains(t, Load().Validate(), "JWT_SECRET")
}

func TestTrustProxy(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	assert.False(t, Load().TrustProxy)
	t.Setenv("TRUST_PROXY", "true")
	assert.True(t, Load().TrustProxy)
	t.Setenv("TRUST_PROXY", "quizás")
	assert.False(t, Load().TrustProxy)
}
