package cli

import (
	"errors"

	"github.com/jhoicas/inventario-sync/internal/domain"
)

// errorCode código corto para la salida de error; los mismos que la API local.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrDuplicate):
		return "DUPLICATE"
	}
	return syncErrorCode(err)
}
