package httpserver

import (
	"net/http"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

// --- Direcciones ---

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	list, err := s.Addresses.List(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getAddress(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Addresses.Get(r.Context(), p.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	var in usecase.AddressInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Addresses.Create(r.Context(), p.UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAddress(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.AddressPatch
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Addresses.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) setDefaultAddress(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Addresses.SetDefault(r.Context(), p.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAddress(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Addresses.Delete(r.Context(), p.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Carrito ---

func (s *Server) getCart(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	c, err := s.Carts.Get(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	if err := s.Carts.Clear(r.Context(), p.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	var in usecase.AddItemInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.Carts.AddItem(r.Context(), p.UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.UpdateItemInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.Carts.UpdateItem(r.Context(), p.UserID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.Carts.RemoveItem(r.Context(), p.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- Órdenes ---

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	var in usecase.PlaceOrderInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.Orders.Place(r.Context(), p.UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	page, err := s.Orders.ListMine(r.Context(), p.UserID, queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) listAllOrders(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	f := domain.OrderFilter{
		Status:   domain.OrderStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	}
	if raw := r.URL.Query().Get("userId"); raw != "" {
		uid, err := queryID(raw, "userId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.UserID = &uid
	}
	page, err := s.Orders.ListAll(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.Orders.Get(r.Context(), *p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.StatusInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.Orders.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// --- Favoritos ---

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	list, err := s.Favorites.List(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	var in usecase.FavoriteInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.Favorites.Add(r.Context(), p.UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Favorites.Remove(r.Context(), p.UserID, productID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
