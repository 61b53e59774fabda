package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// Page es la respuesta paginada de los listados.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

func newPage[T any](items []T, total int64, page, size int) Page[T] {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size}
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("%s inválido", what)
	}
	return id, nil
}

func optionalID(raw *string, what string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(*raw, what)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

// invalidate borra claves del cache. Un error sólo se loguea: el cache vence solo.
func invalidate(ctx context.Context, c domain.Cache, patterns ...string) {
	if c == nil {
		return
	}
	for _, p := range patterns {
		if err := c.DeletePattern(ctx, p); err != nil {
			log.Warn().Err(err).Str("pattern", p).Msg("cache invalidate")
		}
	}
}

const (
	productKeys  = "products:*"
	categoryKeys = "categories:*"
)
