package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

var itemColumns = []string{"id", "code", "description", "category", "quantity", "updated_at"}

type itemRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Quantity    int64     `db:"quantity"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r itemRow) toEntity() *entity.StockItem {
	return &entity.StockItem{
		ID:          r.ID,
		Code:        r.Code,
		Description: r.Description,
		Category:    r.Category,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ItemRepo implementación de ItemRepository sobre SQLite (usable con db o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByID obtiene un ítem por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "id", id)
}

// GetByCode obtiene un ítem por código interno.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.StockItem, error) {
	return r.getOne(ctx, "code", code)
}

func (r *ItemRepo) getOne(ctx context.Context, column, value string) (*entity.StockItem, error) {
	query, args, err := builder().Select(itemColumns...).From("items").
		Where(sq.Eq{column: value}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir consulta de ítem: %w", err)
	}
	var row itemRow
	err = r.q.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.Code, &row.Description, &row.Category, &row.Quantity, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("obtener ítem", err)
	}
	return row.toEntity(), nil
}

// Upsert inserta el ítem o actualiza todos sus campos si el ID ya existe.
func (r *ItemRepo) Upsert(ctx context.Context, item *entity.StockItem) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO items (id, code, description, category, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			code = excluded.code,
			description = excluded.description,
			category = excluded.category,
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`,
		item.ID, item.Code, item.Description, item.Category, item.Quantity, item.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código %q: %w", item.Code, domain.ErrDuplicate)
		}
		return storeErr("upsert ítem", err)
	}
	return nil
}

// UpdateQuantity fija la cantidad de un ítem existente.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`,
		quantity, at.UTC(), id,
	)
	if err != nil {
		return storeErr("actualizar cantidad", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("actualizar cantidad", err)
	}
	if n == 0 {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List lista ítems ordenados por descripción, con filtro opcional de categoría.
func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.StockItem, error) {
	b := builder().Select(itemColumns...).From("items").OrderBy("description ASC", "code ASC")
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit)).Offset(uint64(max(filter.Offset, 0)))
	}
	return r.selectItems(ctx, b)
}

// ListBelow lista ítems con cantidad menor al umbral, de menor a mayor.
func (r *ItemRepo) ListBelow(ctx context.Context, threshold int64) ([]*entity.StockItem, error) {
	b := builder().Select(itemColumns...).From("items").
		Where(sq.Lt{"quantity": threshold}).
		OrderBy("quantity ASC", "code ASC")
	return r.selectItems(ctx, b)
}

func (r *ItemRepo) selectItems(ctx context.Context, b sq.SelectBuilder) ([]*entity.StockItem, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir listado de ítems: %w", err)
	}
	var rows []itemRow
	if err := sqlscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, storeErr("listar ítems", err)
	}
	list := make([]*entity.StockItem, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}
