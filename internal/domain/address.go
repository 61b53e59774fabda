package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Address struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipientName string    `gorm:"size:140;not null" json:"recipientName"`
	Phone         string    `gorm:"size:40" json:"phone"`
	Street        string    `gorm:"size:180;not null" json:"street"`
	Number        string    `gorm:"size:20;not null" json:"number"`
	Apartment     string    `gorm:"size:40" json:"apartment,omitempty"`
	City          string    `gorm:"size:100;not null" json:"city"`
	Province      string    `gorm:"size:100;not null" json:"province"`
	PostalCode    string    `gorm:"size:20;not null" json:"postalCode"`
	Reference     string    `gorm:"size:255" json:"reference,omitempty"`
	IsDefault     bool      `gorm:"not null;default:false" json:"isDefault"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
