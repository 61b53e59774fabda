package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

const stateCookie = "oauth_state"

type authedHandler func(w http.ResponseWriter, r *http.Request, p *domain.Principal)

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Server) authenticate(r *http.Request) (*domain.Principal, error) {
	tok := bearer(r)
	if tok == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.Auth.Authenticate(r.Context(), tok)
}

func (s *Server) user(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		h(w, r.WithContext(ctx), p)
	})
}

func (s *Server) admin(h authedHandler) http.Handler {
	return s.user(func(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
		if !p.IsAdmin() {
			fail(w, http.StatusForbidden, "forbidden", "se requiere rol admin")
			return
		}
		h(w, r, p)
	})
}

// optionalAdmin indica si el request trae un token válido de admin. No corta el request.
func (s *Server) optionalAdmin(r *http.Request) bool {
	if bearer(r) == "" {
		return false
	}
	p, err := s.authenticate(r)
	return err == nil && p.IsAdmin()
}

func newState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	state := newState()
	url, err := s.Auth.LoginURL(state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		fail(w, http.StatusBadRequest, "invalid_state", "state inválido")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/google", MaxAge: -1})
	code := r.URL.Query().Get("code")
	if code == "" {
		fail(w, http.StatusBadRequest, "invalid", "code faltante")
		return
	}
	sess, err := s.Auth.Login(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) googleCode(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.Auth.Login(r.Context(), in.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, p *domain.Principal) {
	u, err := s.Auth.Me(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
