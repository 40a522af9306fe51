package repository

import (
	"context"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos locales.
type MovementFilter struct {
	ItemID       string
	Synchronized *bool
	Limit        int
	Offset       int
}

// MovementRepository define el puerto de persistencia para movimientos locales.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.MovementRecord) error
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, error)
	// PendingDelta suma el efecto neto de los movimientos no sincronizados de un ítem.
	PendingDelta(ctx context.Context, itemID string) (int64, error)
	Summary(ctx context.Context) ([]entity.MovementSummary, error)
}
