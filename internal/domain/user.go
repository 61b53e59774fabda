package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:140;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:140" json:"name"`
	AvatarURL string    `gorm:"size:500" json:"avatarUrl,omitempty"`
	GoogleSub string    `gorm:"size:80;index" json:"-"`
	Role      Role      `gorm:"type:varchar(10);not null;default:USER" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Identity es lo que devuelve el proveedor OAuth externo tras el intercambio.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// Principal es el usuario autenticado que viaja en el contexto del request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
