package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("no encontrado")
	ErrConflict     = errors.New("conflicto")
	ErrInvalid      = errors.New("datos inválidos")
	ErrForbidden    = errors.New("prohibido")
	ErrUnauthorized = errors.New("no autenticado")
)

// Errores de negocio del checkout. Todos envuelven ErrInvalid (400).
var (
	ErrEmptyCart         = fmt.Errorf("%w: el carrito está vacío", ErrInvalid)
	ErrInactiveProduct   = fmt.Errorf("%w: producto no disponible", ErrInvalid)
	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", ErrInvalid)
)

// Invalid arma un error de validación con mensaje propio.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
