package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

var movementColumns = []string{"id", "item_id", "kind", "quantity", "origin", "created_at", "synchronized"}

type movementRow struct {
	ID           string    `db:"id"`
	ItemID       string    `db:"item_id"`
	Kind         string    `db:"kind"`
	Quantity     int64     `db:"quantity"`
	Origin       string    `db:"origin"`
	CreatedAt    time.Time `db:"created_at"`
	Synchronized bool      `db:"synchronized"`
}

func (r movementRow) toEntity() *entity.MovementRecord {
	return &entity.MovementRecord{
		ID:           r.ID,
		ItemID:       r.ItemID,
		Kind:         entity.MovementKind(r.Kind),
		Quantity:     r.Quantity,
		Origin:       entity.Origin(r.Origin),
		CreatedAt:    r.CreatedAt,
		Synchronized: r.Synchronized,
	}
}

// MovementRepo implementación de MovementRepository sobre SQLite (usable con db o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento local. Asigna un UUID si no trae ID.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO movements (id, item_id, kind, quantity, origin, created_at, synchronized)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ItemID, string(m.Kind), m.Quantity, string(m.Origin), m.CreatedAt.UTC(), m.Synchronized,
	)
	if err != nil {
		return storeErr("crear movimiento", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	query, args, err := builder().Select(movementColumns...).From("movements").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir consulta de movimiento: %w", err)
	}
	var row movementRow
	err = r.q.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.ItemID, &row.Kind, &row.Quantity, &row.Origin, &row.CreatedAt, &row.Synchronized,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("obtener movimiento", err)
	}
	return row.toEntity(), nil
}

// Delete elimina un movimiento; no falla si ya no existe.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id); err != nil {
		return storeErr("eliminar movimiento", err)
	}
	return nil
}

// List lista movimientos del más reciente al más antiguo.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	b := builder().Select(movementColumns...).From("movements").OrderBy("created_at DESC", "id ASC")
	if filter.ItemID != "" {
		b = b.Where(sq.Eq{"item_id": filter.ItemID})
	}
	if filter.Synchronized != nil {
		b = b.Where(sq.Eq{"synchronized": *filter.Synchronized})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit)).Offset(uint64(max(filter.Offset, 0)))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir listado de movimientos: %w", err)
	}
	var rows []movementRow
	if err := sqlscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, storeErr("listar movimientos", err)
	}
	list := make([]*entity.MovementRecord, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// PendingDelta efecto neto de los movimientos no sincronizados de un ítem.
func (r *MovementRepo) PendingDelta(ctx context.Context, itemID string) (int64, error) {
	var delta int64
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'OUT' THEN -quantity ELSE quantity END), 0)
		FROM movements WHERE item_id = ? AND synchronized = 0`,
		itemID,
	).Scan(&delta)
	if err != nil {
		return 0, storeErr("sumar movimientos pendientes", err)
	}
	return delta, nil
}

// Summary totales de movimientos locales por tipo.
func (r *MovementRepo) Summary(ctx context.Context) ([]entity.MovementSummary, error) {
	type summaryRow struct {
		Kind          string `db:"kind"`
		Count         int64  `db:"total_movements"`
		TotalQuantity int64  `db:"total_quantity"`
	}
	var rows []summaryRow
	err := sqlscan.Select(ctx, r.q, &rows, `
		SELECT kind, COUNT(*) AS total_movements, COALESCE(SUM(quantity), 0) AS total_quantity
		FROM movements GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, storeErr("resumen de movimientos", err)
	}
	out := make([]entity.MovementSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.MovementSummary{
			Kind:          entity.MovementKind(row.Kind),
			Count:         row.Count,
			TotalQuantity: row.TotalQuantity,
		})
	}
	return out, nil
}
