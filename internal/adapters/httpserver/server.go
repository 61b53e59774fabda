package httpserver

import (
	"net/http"

	"github.com/phenrril/storefront/internal/usecase"
)

type Deps struct {
	Products   *usecase.ProductUC
	Categories *usecase.CategoryUC
	Addresses  *usecase.AddressUC
	Carts      *usecase.CartUC
	Orders     *usecase.OrderUC
	Favorites  *usecase.FavoriteUC
	Auth       *usecase.AuthUC
	Uploads    *usecase.UploadUC
	Limiter    Limiter
	// UploadsDir, si no está vacío, se sirve bajo /uploads/.
	UploadsDir   string
	SecureCookie bool
	// TrustProxy habilita X-Forwarded-For para el rate limit.
	TrustProxy bool
}

type Server struct {
	mux *http.ServeMux
	Deps
}

func New(d Deps) http.Handler {
	s := &Server{mux: http.NewServeMux(), Deps: d}
	s.routes()
	return Chain(s.mux,
		RateLimit(d.Limiter, d.TrustProxy),
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.UploadsDir != "" {
		s.mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.UploadsDir))))
	}

	s.mux.HandleFunc("GET /auth/google/login", s.googleLogin)
	s.mux.HandleFunc("GET /auth/google/callback", s.googleCallback)
	s.mux.HandleFunc("POST /auth/google", s.googleCode)
	s.mux.Handle("GET /auth/me", s.user(s.me))

	s.mux.HandleFunc("GET /products", s.listProducts)
	s.mux.Handle("GET /products/export", s.admin(s.exportProducts))
	s.mux.HandleFunc("GET /products/{ref}", s.getProduct)
	s.mux.Handle("POST /products", s.admin(s.createProduct))
	s.mux.Handle("PATCH /products/{id}", s.admin(s.updateProduct))
	s.mux.Handle("DELETE /products/{id}", s.admin(s.deleteProduct))
	s.mux.Handle("POST /products/{id}/variants", s.admin(s.createVariant))
	s.mux.Handle("PATCH /products/{id}/variants/{variantId}", s.admin(s.updateVariant))
	s.mux.Handle("DELETE /products/{id}/variants/{variantId}", s.admin(s.deleteVariant))
	s.mux.Handle("POST /products/{id}/images", s.admin(s.createImage))
	s.mux.Handle("DELETE /products/{id}/images/{imageId}", s.admin(s.deleteImage))

	s.mux.HandleFunc("GET /categories", s.listCategories)
	s.mux.HandleFunc("GET /categories/{ref}", s.getCategory)
	s.mux.Handle("POST /categories", s.admin(s.createCategory))
	s.mux.Handle("PATCH /categories/{id}", s.admin(s.updateCategory))
	s.mux.Handle("DELETE /categories/{id}", s.admin(s.deleteCategory))
	s.mux.Handle("POST /categories/{id}/subcategories", s.admin(s.createSubcategory))
	s.mux.Handle("PATCH /categories/{id}/subcategories/{subId}", s.admin(s.updateSubcategory))
	s.mux.Handle("DELETE /categories/{id}/subcategories/{subId}", s.admin(s.deleteSubcategory))

	s.mux.Handle("GET /address", s.user(s.listAddresses))
	s.mux.Handle("GET /address/{id}", s.user(s.getAddress))
	s.mux.Handle("POST /address", s.user(s.createAddress))
	s.mux.Handle("PATCH /address/{id}", s.user(s.updateAddress))
	s.mux.Handle("PATCH /address/{id}/default", s.user(s.setDefaultAddress))
	s.mux.Handle("DELETE /address/{id}", s.user(s.deleteAddress))

	s.mux.Handle("GET /cart", s.user(s.getCart))
	s.mux.Handle("DELETE /cart", s.user(s.clearCart))
	s.mux.Handle("POST /cart/items", s.user(s.addCartItem))
	s.mux.Handle("PATCH /cart/items/{id}", s.user(s.updateCartItem))
	s.mux.Handle("DELETE /cart/items/{id}", s.user(s.removeCartItem))

	s.mux.Handle("POST /orders", s.user(s.placeOrder))
	s.mux.Handle("GET /orders", s.user(s.listOrders))
	s.mux.Handle("GET /orders/all", s.admin(s.listAllOrders))
	s.mux.Handle("GET /orders/{id}", s.user(s.getOrder))
	s.mux.Handle("PATCH /orders/{id}/status", s.admin(s.updateOrderStatus))

	s.mux.Handle("GET /favorites", s.user(s.listFavorites))
	s.mux.Handle("POST /favorites", s.user(s.addFavorite))
	s.mux.Handle("DELETE /favorites/{productId}", s.user(s.removeFavorite))

	s.mux.Handle("POST /upload", s.admin(s.upload))
	s.mux.Handle("DELETE /upload/{storageId...}", s.admin(s.deleteUpload))

	s.mux.HandleFunc("POST /webhooks/mercadopago", s.webhookMP)
}
