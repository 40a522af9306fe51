package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain"
)

// StockItem representa un ítem de inventario con su cantidad actual en el dispositivo.
// Quantity solo cambia por aplicación de movimientos o por el pull desde el servidor.
type StockItem struct {
	ID          string
	Code        string // código interno único (normalizado)
	Description string
	Category    string
	Quantity    int64
	UpdatedAt   time.Time
}

// Apply devuelve la cantidad resultante de aplicar un movimiento, sin mutar el ítem.
// Un OUT que dejaría saldo negativo da domain.ErrInsufficientStock; un IN que
// desborda int64 o un tipo desconocido da domain.ErrInvalidInput.
func (i *StockItem) Apply(kind MovementKind, quantity int64) (int64, error) {
	switch kind {
	case MovementIn:
		if quantity > math.MaxInt64-i.Quantity {
			return i.Quantity, fmt.Errorf("ítem %s: %d + %d excede el máximo: %w",
				i.Code, i.Quantity, quantity, domain.ErrInvalidInput)
		}
		return i.Quantity + quantity, nil
	case MovementOut:
		if quantity > i.Quantity {
			return i.Quantity, fmt.Errorf("ítem %s: disponible %d, solicitado %d: %w",
				i.Code, i.Quantity, quantity, domain.ErrInsufficientStock)
		}
		return i.Quantity - quantity, nil
	}
	return i.Quantity, fmt.Errorf("tipo de movimiento %q: %w", kind, domain.ErrInvalidInput)
}
