package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// ItemFilter filtros para listar ítems.
type ItemFilter struct {
	Category string
	Limit    int
	Offset   int
}

// ItemRepository define el puerto de persistencia local para StockItem (DIP).
// GetByID y GetByCode devuelven (nil, nil) si el ítem no existe.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	GetByCode(ctx context.Context, code string) (*entity.StockItem, error)
	Upsert(ctx context.Context, item *entity.StockItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error
	List(ctx context.Context, filter ItemFilter) ([]*entity.StockItem, error)
	ListBelow(ctx context.Context, threshold int64) ([]*entity.StockItem, error)
}
