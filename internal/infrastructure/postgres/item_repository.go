package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-sync/internal/application/catalog"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

var _ catalog.ItemStore = (*ItemRepo)(nil)

const itemSelect = `SELECT id, code, description, category, quantity, updated_at FROM items`

// ItemRepo implementación de catalog.ItemStore sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg any) (*entity.StockItem, error) {
	var it entity.StockItem
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&it.ID, &it.Code, &it.Description, &it.Category, &it.Quantity, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// GetByID obtiene un ítem por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, itemSelect+` WHERE id = $1`, id)
}

// GetByCode obtiene un ítem por código.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.StockItem, error) {
	return r.getOne(ctx, itemSelect+` WHERE code = $1`, code)
}

// GetForUpdate obtiene el ítem y bloquea la fila (SELECT FOR UPDATE).
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, itemSelect+` WHERE id = $1 FOR UPDATE`, id)
}

// UpsertMetadata inserta en cantidad 0 o actualiza metadatos si no son más antiguos.
func (r *ItemRepo) UpsertMetadata(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO items (id, code, description, category, quantity, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at
		WHERE items.updated_at <= EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, item.ID, item.Code, item.Description, item.Category, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código %s: %w", item.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// UpdateQuantity fija la cantidad autoritativa.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, quantity int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE items SET quantity = $1, updated_at = now() WHERE id = $2`, quantity, id)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List lista todos los ítems por código.
func (r *ItemRepo) List(ctx context.Context) ([]*entity.StockItem, error) {
	var list []*entity.StockItem
	if err := pgxscan.Select(ctx, r.q, &list, itemSelect+` ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return list, nil
}
