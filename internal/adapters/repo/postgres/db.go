package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

// forUpdate bloquea las filas leídas hasta el fin de la transacción.
// SQLite ignora la cláusula, Postgres emite SELECT ... FOR UPDATE.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// mapErr traduce errores de gorm a los errores del dominio.
func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s duplicado", domain.ErrConflict, what)
	default:
		return err
	}
}

func paginate(page, size int) (offset, limit int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return (page - 1) * size, size
}
