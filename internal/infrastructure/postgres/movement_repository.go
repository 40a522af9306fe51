package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-sync/internal/application/catalog"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

var _ catalog.MovementLog = (*MovementRepo)(nil)

// MovementRepo registro de movimientos aplicados en el servidor.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Insert registra el movimiento; false si su ID ya existía (reenvío de un dispositivo).
func (r *MovementRepo) Insert(ctx context.Context, m *entity.MovementRecord) (bool, error) {
	query := `
		INSERT INTO movements (id, item_id, kind, quantity, origin, created_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, m.ID, m.ItemID, string(m.Kind), m.Quantity, string(m.Origin), m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert movement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
