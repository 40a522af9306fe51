package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// OutboxRepository define el puerto de persistencia de la cola de salida.
// ListByStatus devuelve siempre en orden de creación (FIFO).
type OutboxRepository interface {
	Append(ctx context.Context, entry *entity.OutboxEntry) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.OutboxEntry, error)
	ListByStatus(ctx context.Context, status entity.OutboxStatus, limit int) ([]*entity.OutboxEntry, error)
	// Delete devuelve false si la entrada ya no existía.
	Delete(ctx context.Context, id int64) (bool, error)
	UpdateAttempt(ctx context.Context, id int64, attempts int, status entity.OutboxStatus, at time.Time) error
	Reset(ctx context.Context, id int64) (bool, error)
	ResetAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (entity.OutboxStats, error)
}
