package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type AddressUC struct {
	Addresses domain.AddressRepo
}

type AddressInput struct {
	RecipientName string `json:"recipientName" validate:"required,min=2,max=140"`
	Phone         string `json:"phone" validate:"omitempty,min=6,max=40"`
	Street        string `json:"street" validate:"required,max=180"`
	Number        string `json:"number" validate:"required,max=20"`
	Apartment     string `json:"apartment" validate:"max=40"`
	City          string `json:"city" validate:"required,max=100"`
	Province      string `json:"province" validate:"required,max=100"`
	PostalCode    string `json:"postalCode" validate:"required,min=3,max=20"`
	Reference     string `json:"reference" validate:"max=255"`
	IsDefault     bool   `json:"isDefault"`
}

type AddressPatch struct {
	RecipientName *string `json:"recipientName" validate:"omitempty,min=2,max=140"`
	Phone         *string `json:"phone" validate:"omitempty,min=6,max=40"`
	Street        *string `json:"street" validate:"omitempty,max=180"`
	Number        *string `json:"number" validate:"omitempty,max=20"`
	Apartment     *string `json:"apartment" validate:"omitempty,max=40"`
	City          *string `json:"city" validate:"omitempty,max=100"`
	Province      *string `json:"province" validate:"omitempty,max=100"`
	PostalCode    *string `json:"postalCode" validate:"omitempty,min=3,max=20"`
	Reference     *string `json:"reference" validate:"omitempty,max=255"`
	IsDefault     *bool   `json:"isDefault"`
}

// Create guarda la dirección. La primera del usuario queda como default.
func (uc *AddressUC) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (*domain.Address, error) {
	existing, err := uc.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	a := &domain.Address{
		UserID:        userID,
		RecipientName: strings.TrimSpace(in.RecipientName),
		Phone:         strings.TrimSpace(in.Phone),
		Street:        strings.TrimSpace(in.Street),
		Number:        strings.TrimSpace(in.Number),
		Apartment:     strings.TrimSpace(in.Apartment),
		City:          strings.TrimSpace(in.City),
		Province:      strings.TrimSpace(in.Province),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Reference:     strings.TrimSpace(in.Reference),
		IsDefault:     in.IsDefault || len(existing) == 0,
		IsActive:      true,
	}
	if err := uc.Addresses.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func set(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (uc *AddressUC) Update(ctx context.Context, userID, id uuid.UUID, in AddressPatch) (*domain.Address, error) {
	a, err := uc.Addresses.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	set(&a.RecipientName, in.RecipientName)
	set(&a.Phone, in.Phone)
	set(&a.Street, in.Street)
	set(&a.Number, in.Number)
	set(&a.Apartment, in.Apartment)
	set(&a.City, in.City)
	set(&a.Province, in.Province)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Reference, in.Reference)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
	if err := uc.Addresses.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (uc *AddressUC) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	return uc.Addresses.FindOwned(ctx, userID, id)
}

func (uc *AddressUC) List(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	list, err := uc.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Address{}
	}
	return list, nil
}

func (uc *AddressUC) SetDefault(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	return uc.Addresses.SetDefault(ctx, userID, id)
}

func (uc *AddressUC) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return uc.Addresses.SoftDelete(ctx, userID, id)
}
