package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/auth"
	"github.com/phenrril/storefront/internal/adapters/export/xlsx"
	"github.com/phenrril/storefront/internal/adapters/httpserver"
	"github.com/phenrril/storefront/internal/adapters/imaging"
	"github.com/phenrril/storefront/internal/adapters/notify"
	"github.com/phenrril/storefront/internal/adapters/payments/mercadopago"
	rediscache "github.com/phenrril/storefront/internal/adapters/redis"
	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/adapters/storage/gcs"
	"github.com/phenrril/storefront/internal/adapters/storage/localfs"
	"github.com/phenrril/storefront/internal/config"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type App struct {
	DB     *gorm.DB
	Config config.Config

	ProductUC  *usecase.ProductUC
	CategoryUC *usecase.CategoryUC
	AddressUC  *usecase.AddressUC
	CartUC     *usecase.CartUC
	OrderUC    *usecase.OrderUC
	FavoriteUC *usecase.FavoriteUC
	AuthUC     *usecase.AuthUC
	UploadUC   *usecase.UploadUC

	limiter    httpserver.Limiter
	uploadsDir string
	closers    []io.Closer
}

func NewApp(ctx context.Context, db *gorm.DB, cfg config.Config) (*App, error) {
	users := postgres.NewUserRepo(db)
	products := postgres.NewProductRepo(db)
	categories := postgres.NewCategoryRepo(db)
	addresses := postgres.NewAddressRepo(db)
	carts := postgres.NewCartRepo(db)
	orders := postgres.NewOrderRepo(db)
	favorites := postgres.NewFavoriteRepo(db)

	a := &App{DB: db, Config: cfg}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		client := rediscache.NewClient(cfg.RedisAddr)
		rc := rediscache.NewCache(client, "storefront:", cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis no disponible, sin cache y con rate limit en memoria")
			_ = client.Close()
		} else {
			cache = rc
			a.limiter = rediscache.NewLimiter(client, "storefront:rl:", cfg.RateLimitPerMin, time.Minute)
			a.closers = append(a.closers, client)
		}
	}
	if a.limiter == nil {
		a.limiter = httpserver.NewMemoryLimiter(cfg.RateLimitPerMin)
	}

	var store domain.ObjectStorage
	if cfg.GCSBucket != "" {
		b, err := gcs.New(ctx, cfg.GCSBucket, cfg.GCSCDNDomain)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		store = b
		a.closers = append(a.closers, b)
	} else {
		fs, err := localfs.New(cfg.UploadsDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("uploads dir: %w", err)
		}
		store = fs
		a.uploadsDir = fs.Dir()
	}

	var identity domain.IdentityProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		identity = auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL)
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID/SECRET vacíos, login deshabilitado")
	}

	var gateway domain.PaymentGateway
	if cfg.MPAccessToken != "" {
		gateway = mercadopago.NewGateway(cfg.MPAccessToken, cfg.PublicBaseURL, cfg.SecretKey, !cfg.IsDev())
	} else {
		log.Warn().Msg("MP_ACCESS_TOKEN vacío, órdenes MERCADO_PAGO sin checkout")
	}

	var notifier domain.OrderNotifier
	if cfg.SMTPHost != "" && cfg.SMTPUser != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, "", cfg.NotifyEmail)
	}

	a.ProductUC = &usecase.ProductUC{Products: products, Categories: categories, Cache: cache, Exporter: xlsx.Catalog{}}
	a.CategoryUC = &usecase.CategoryUC{Categories: categories, Cache: cache}
	a.AddressUC = &usecase.AddressUC{Addresses: addresses}
	a.CartUC = &usecase.CartUC{Carts: carts, Products: products, TTL: cfg.CartTTL}
	a.OrderUC = &usecase.OrderUC{Orders: orders, Addresses: addresses, Users: users, Gateway: gateway, Notifier: notifier}
	a.FavoriteUC = &usecase.FavoriteUC{Favorites: favorites, Products: products}
	a.AuthUC = &usecase.AuthUC{
		Users:       users,
		Identity:    identity,
		Tokens:      auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		AdminEmails: cfg.AdminEmails,
	}
	a.UploadUC = &usecase.UploadUC{Storage: store, Processor: imaging.New(cfg.UploadMaxWidth)}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products:     a.ProductUC,
		Categories:   a.CategoryUC,
		Addresses:    a.AddressUC,
		Carts:        a.CartUC,
		Orders:       a.OrderUC,
		Favorites:    a.FavoriteUC,
		Auth:         a.AuthUC,
		Uploads:      a.UploadUC,
		Limiter:      a.limiter,
		UploadsDir:   a.uploadsDir,
		SecureCookie: !a.Config.IsDev(),
		TrustProxy:   a.Config.TrustProxy,
	})
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
