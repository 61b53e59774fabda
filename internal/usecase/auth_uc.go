package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

type AuthUC struct {
	Users    domain.UserRepo
	Identity domain.IdentityProvider
	Tokens   domain.TokenIssuer
	// AdminEmails reciben rol ADMIN al iniciar sesión.
	AdminEmails []string
}

type LoginInput struct {
	Code string `json:"code" validate:"required,min=4"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

var errNoIdentity = fmt.Errorf("%w: login con Google no configurado", domain.ErrInvalid)

func (uc *AuthUC) isAdminEmail(email string) bool {
	for _, e := range uc.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (uc *AuthUC) LoginURL(state string) (string, error) {
	if uc.Identity == nil {
		return "", errNoIdentity
	}
	return uc.Identity.AuthCodeURL(state), nil
}

// Login canjea el code de OAuth, crea o actualiza el usuario y emite el token.
func (uc *AuthUC) Login(ctx context.Context, code string) (*Session, error) {
	if uc.Identity == nil {
		return nil, errNoIdentity
	}
	id, err := uc.Identity.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, domain.Invalid("la cuenta no tiene email")
	}
	u, err := uc.Users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u = &domain.User{Email: email, Role: domain.RoleUser, IsActive: true}
		log.Info().Str("email", email).Msg("nuevo usuario")
	case err != nil:
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: usuario inactivo", domain.ErrForbidden)
	}
	if id.Name != "" {
		u.Name = id.Name
	}
	if id.AvatarURL != "" {
		u.AvatarURL = id.AvatarURL
	}
	u.GoogleSub = id.Subject
	if uc.isAdminEmail(email) {
		u.Role = domain.RoleAdmin
	}
	if err := uc.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	tok, exp, err := uc.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

// Authenticate valida el bearer y exige un usuario activo. El rol sale de la base.
func (uc *AuthUC) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	p, err := uc.Tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: token inválido", domain.ErrUnauthorized)
	}
	u, err := uc.Users.FindByID(ctx, p.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: usuario inexistente", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: usuario inactivo", domain.ErrUnauthorized)
	}
	return &domain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}

func (uc *AuthUC) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return uc.Users.FindByID(ctx, userID)
}
