package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "usuario")
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("email vacío")
	}
	if err := r.db.WithContext(ctx).First(&u, "LOWER(email) = ?", e).Error; err != nil {
		return nil, mapErr(err, "usuario")
	}
	return &u, nil
}

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	if u.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	}
	if u.ID == uuid.Nil {
		return mapErr(r.db.WithContext(ctx).Create(u).Error, "usuario")
	}
	return mapErr(r.db.WithContext(ctx).Save(u).Error, "usuario")
}
