package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/phenrril/storefront/internal/domain"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Google canjea codes de OAuth2 y lee el perfil del usuario.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, baseURL string) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code de OAuth inválido", domain.ErrUnauthorized)
	}
	resp, err := g.cfg.Client(ctx, tok).Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, domain.Invalid("la cuenta de Google no tiene un email verificado")
	}
	return &domain.Identity{Subject: info.Sub, Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}
