package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

type CategoryUC struct {
	Categories domain.CategoryRepo
	Cache      domain.Cache
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

type SubcategoryInput struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type SubcategoryPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=120"`
	IsActive *bool   `json:"isActive"`
}

func (uc *CategoryUC) slugFor(ctx context.Context, name string, exceptID uuid.UUID) (string, error) {
	slug := domain.Slugify(name)
	if slug == "" {
		return "", domain.Invalid("el nombre debe tener letras o números")
	}
	taken, err := uc.Categories.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.Conflict("ya existe una categoría con slug %q", slug)
	}
	return slug, nil
}

func (uc *CategoryUC) subSlugFor(ctx context.Context, categoryID uuid.UUID, name string, exceptID uuid.UUID) (string, error) {
	slug := domain.Slugify(name)
	if slug == "" {
		return "", domain.Invalid("el nombre debe tener letras o números")
	}
	taken, err := uc.Categories.SubSlugTaken(ctx, categoryID, slug, exceptID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.Conflict("ya existe una subcategoría con slug %q en esta categoría", slug)
	}
	return slug, nil
}

func (uc *CategoryUC) changed(ctx context.Context) {
	// los productos embeben su categoría
	invalidate(ctx, uc.Cache, categoryKeys, productKeys)
}

func (uc *CategoryUC) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	slug, err := uc.slugFor(ctx, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	c := &domain.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	if err := uc.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.changed(ctx)
	log.Info().Str("category", c.ID.String()).Str("slug", slug).Msg("categoría creada")
	return c, nil
}

func (uc *CategoryUC) Update(ctx context.Context, id uuid.UUID, in CategoryPatch) (*domain.Category, error) {
	c, err := uc.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != c.Name {
		slug, err := uc.slugFor(ctx, *in.Name, c.ID)
		if err != nil {
			return nil, err
		}
		c.Name, c.Slug = strings.TrimSpace(*in.Name), slug
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := uc.Categories.Update(ctx, c); err != nil {
		return nil, err
	}
	uc.changed(ctx)
	return c, nil
}

// Get acepta id o slug.
func (uc *CategoryUC) Get(ctx context.Context, ref string, includeInactive bool) (*domain.Category, error) {
	var (
		c   *domain.Category
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		c, err = uc.Categories.FindByID(ctx, id)
	} else {
		c, err = uc.Categories.FindBySlug(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if !c.IsActive && !includeInactive {
		return nil, domain.NotFound("categoría")
	}
	return c, nil
}

func (uc *CategoryUC) List(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	const key = "categories:list"
	if !includeInactive && uc.Cache != nil {
		var cached []domain.Category
		if ok, err := uc.Cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	list, err := uc.Categories.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Category{}
	}
	if !includeInactive && uc.Cache != nil {
		if err := uc.Cache.Set(ctx, key, list); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set")
		}
	}
	return list, nil
}

func (uc *CategoryUC) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.Categories.SoftDelete(ctx, id); err != nil {
		return err
	}
	uc.changed(ctx)
	return nil
}

// --- Subcategorías ---

func (uc *CategoryUC) CreateSub(ctx context.Context, categoryID uuid.UUID, in SubcategoryInput) (*domain.Subcategory, error) {
	if _, err := uc.Categories.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	slug, err := uc.subSlugFor(ctx, categoryID, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	s := &domain.Subcategory{CategoryID: categoryID, Name: strings.TrimSpace(in.Name), Slug: slug, IsActive: true}
	if err := uc.Categories.CreateSub(ctx, s); err != nil {
		return nil, err
	}
	uc.changed(ctx)
	return s, nil
}

func (uc *CategoryUC) UpdateSub(ctx context.Context, categoryID, id uuid.UUID, in SubcategoryPatch) (*domain.Subcategory, error) {
	s, err := uc.Categories.FindSub(ctx, categoryID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != s.Name {
		slug, err := uc.subSlugFor(ctx, categoryID, *in.Name, s.ID)
		if err != nil {
			return nil, err
		}
		s.Name, s.Slug = strings.TrimSpace(*in.Name), slug
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	if err := uc.Categories.UpdateSub(ctx, s); err != nil {
		return nil, err
	}
	uc.changed(ctx)
	return s, nil
}

func (uc *CategoryUC) DeleteSub(ctx context.Context, categoryID, id uuid.UUID) error {
	if err := uc.Categories.SoftDeleteSub(ctx, categoryID, id); err != nil {
		return err
	}
	uc.changed(ctx)
	return nil
}
