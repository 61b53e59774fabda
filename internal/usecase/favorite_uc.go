package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type FavoriteUC struct {
	Favorites domain.FavoriteRepo
	Products  domain.ProductRepo
}

type FavoriteInput struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

func (uc *FavoriteUC) Add(ctx context.Context, userID uuid.UUID, in FavoriteInput) (*domain.Favorite, error) {
	productID, err := parseID(in.ProductID, "productId")
	if err != nil {
		return nil, err
	}
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.NotFound("producto")
	}
	f := &domain.Favorite{UserID: userID, ProductID: productID}
	if err := uc.Favorites.Create(ctx, f); err != nil {
		return nil, err
	}
	f.Product = p
	return f, nil
}

func (uc *FavoriteUC) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	list, err := uc.Favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Favorite{}
	}
	return list, nil
}

func (uc *FavoriteUC) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return uc.Favorites.Delete(ctx, userID, productID)
}
