package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string        `gorm:"size:120;not null" json:"name"`
	Slug          string        `gorm:"size:140;uniqueIndex;not null" json:"slug"`
	Description   string        `gorm:"type:text" json:"description,omitempty"`
	IsActive      bool          `gorm:"not null;default:true;index" json:"isActive"`
	Subcategories []Subcategory `gorm:"constraint:OnDelete:CASCADE" json:"subcategories,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Subcategory tiene slug único dentro de su categoría.
type Subcategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subcategory_slug" json:"categoryId"`
	Name       string    `gorm:"size:120;not null" json:"name"`
	Slug       string    `gorm:"size:140;not null;uniqueIndex:idx_subcategory_slug" json:"slug"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s *Subcategory) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
