package syncengine

import (
	"context"

	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/remote"
)

// Prober alcanzabilidad de red y servidor. Nunca devuelve error: caído es false.
type Prober interface {
	IsNetworkUp(ctx context.Context) bool
	IsServerUp(ctx context.Context) bool
}

// Sender envía entradas de la cola y trae la lista autoritativa de ítems.
type Sender interface {
	Send(ctx context.Context, entry *entity.OutboxEntry) remote.Outcome
	FetchItems(ctx context.Context) ([]entity.StockItem, error)
}

// Queue operaciones de la cola que usa el drenado.
type Queue interface {
	PeekBatch(ctx context.Context, limit int) ([]*entity.OutboxEntry, error)
	MarkConfirmed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) (entity.OutboxStatus, error)
	Stats(ctx context.Context) (entity.OutboxStats, error)
}

// Merger integra ítems remotos en el almacenamiento local.
type Merger interface {
	MergeRemote(ctx context.Context, remote entity.StockItem) (*ledger.MergeResult, error)
}

// DiagnosticLog log persistente para revisión del operador.
type DiagnosticLog interface {
	Append(ctx context.Context, entry *entity.ErrorLogEntry) error
}
