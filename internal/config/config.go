package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DSN string

	JWTSecret string
	JWTTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string
	AdminEmails        []string

	RedisAddr       string
	CacheTTL        time.Duration
	RateLimitPerMin int
	TrustProxy      bool

	GCSBucket      string
	GCSCDNDomain   string
	UploadMaxWidth int

	MPAccessToken string
	PublicBaseURL string
	SecretKey     string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	NotifyEmail []string

	UploadsDir string
	CartTTL    time.Duration
}

// devSecret sólo se acepta en desarrollo, ver Validate.
const devSecret = "dev-insecure"

// Load lee .env (si existe) y las variables de entorno con sus defaults.
func Load() Config {
	_ = godotenv.Load()

	appEnv := strings.ToLower(env("APP_ENV", "development"))
	c := Config{
		Port:               env("PORT", "8080"),
		AppEnv:             appEnv,
		LogLevel:           env("LOG_LEVEL", "info"),
		DSN:                dsn(),
		JWTSecret:          env("JWT_SECRET", env("SECRET_KEY", devSecret)),
		JWTTTL:             duration("JWT_TTL", 24*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		BaseURL:            strings.TrimRight(env("BASE_URL", "http://localhost:8080"), "/"),
		AdminEmails:        list(os.Getenv("ADMIN_EMAILS")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		CacheTTL:           duration("CACHE_TTL", 5*time.Minute),
		RateLimitPerMin:    integer("RATE_LIMIT_PER_MIN", 120),
		TrustProxy:         boolean("TRUST_PROXY"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCDNDomain:       os.Getenv("GCS_CDN_DOMAIN"),
		UploadMaxWidth:     integer("UPLOAD_MAX_WIDTH", 1600),
		MPAccessToken:      os.Getenv("MP_ACCESS_TOKEN"),
		SecretKey:          env("SECRET_KEY", devSecret),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           integer("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		NotifyEmail:        list(os.Getenv("ORDER_NOTIFY_EMAIL")),
		UploadsDir:         env("UPLOADS_DIR", "uploads"),
		CartTTL:            duration("CART_TTL", 5*24*time.Hour),
	}
	if appEnv == "production" || appEnv == "prod" {
		if tok := os.Getenv("PROD_ACCESS_TOKEN"); tok != "" {
			c.MPAccessToken = tok
		}
	}
	c.PublicBaseURL = strings.TrimRight(env("PUBLIC_BASE_URL", c.BaseURL), "/")
	return c
}

func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// Validate rechaza secretos vacíos o por defecto fuera de desarrollo.
func (c Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	var missing []string
	if c.JWTSecret == "" || c.JWTSecret == devSecret {
		missing = append(missing, "JWT_SECRET")
	}
	if c.SecretKey == "" || c.SecretKey == devSecret {
		missing = append(missing, "SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %s requerido en %s", strings.Join(missing, ", "), c.AppEnv)
	}
	return nil
}

func dsn() string {
	if v := strings.TrimSpace(os.Getenv("DB_DSN")); v != "" {
		return v
	}
	host := env("DB_HOST", "localhost")
	port := env("DB_PORT", "5432")
	user := env("DB_USER", env("POSTGRES_USER", "postgres"))
	pass := env("DB_PASSWORD", env("POSTGRES_PASSWORD", "postgres"))
	name := env("DB_NAME", env("POSTGRES_DB", "storefront"))
	ssl := env("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolean(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// duration acepta "90s", "2h" o un número de segundos.
func duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func list(raw string) []string {
	var out []string
	for _, e := range strings.Split(raw, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
