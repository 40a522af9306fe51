package catalog

import (
	"context"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// ItemStore persistencia autoritativa de ítems en el servidor.
// GetByID, GetByCode y GetForUpdate devuelven (nil, nil) si el ítem no existe.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	GetByCode(ctx context.Context, code string) (*entity.StockItem, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	// UpsertMetadata crea el ítem en cantidad 0 o actualiza sus metadatos si el
	// updated_at recibido no es más antiguo que el guardado. Nunca toca la cantidad.
	UpsertMetadata(ctx context.Context, item *entity.StockItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int64) error
	List(ctx context.Context) ([]*entity.StockItem, error)
}

// MovementLog registro de movimientos aplicados; la llave es el ID del movimiento.
type MovementLog interface {
	// Insert devuelve false si el movimiento ya estaba registrado.
	Insert(ctx context.Context, m *entity.MovementRecord) (bool, error)
}

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(items ItemStore, movements MovementLog) error) error
}
