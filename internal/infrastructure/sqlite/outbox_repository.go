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

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

var outboxColumns = []string{"id", "kind", "ref_id", "payload", "attempts", "last_attempt_at", "status", "created_at"}

type outboxRow struct {
	ID            int64      `db:"id"`
	Kind          string     `db:"kind"`
	RefID         string     `db:"ref_id"`
	Payload       string     `db:"payload"`
	Attempts      int        `db:"attempts"`
	LastAttemptAt *time.Time `db:"last_attempt_at"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (r outboxRow) toEntity() *entity.OutboxEntry {
	return &entity.OutboxEntry{
		ID:            r.ID,
		Kind:          entity.OperationKind(r.Kind),
		RefID:         r.RefID,
		Payload:       []byte(r.Payload),
		Attempts:      r.Attempts,
		LastAttemptAt: r.LastAttemptAt,
		Status:        entity.OutboxStatus(r.Status),
		CreatedAt:     r.CreatedAt,
	}
}

// OutboxRepo implementación de OutboxRepository sobre SQLite (usable con db o tx).
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Append agrega una entrada al final de la cola y devuelve su ID.
func (r *OutboxRepo) Append(ctx context.Context, e *entity.OutboxEntry) (int64, error) {
	status := e.Status
	if status == "" {
		status = entity.OutboxPending
	}
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO outbox (kind, ref_id, payload, attempts, last_attempt_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.RefID, string(e.Payload), e.Attempts, e.LastAttemptAt, string(status), e.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("ya existe una entrada viva para %s: %w", e.RefID, domain.ErrDuplicate)
		}
		return 0, storeErr("encolar operación", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("encolar operación", err)
	}
	e.ID = id
	e.Status = status
	return id, nil
}

// GetByID obtiene una entrada; (nil, nil) si no existe.
func (r *OutboxRepo) GetByID(ctx context.Context, id int64) (*entity.OutboxEntry, error) {
	query, args, err := builder().Select(outboxColumns...).From("outbox").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir consulta de cola: %w", err)
	}
	var row outboxRow
	err = r.q.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.Kind, &row.RefID, &row.Payload, &row.Attempts, &row.LastAttemptAt, &row.Status, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("obtener entrada de cola", err)
	}
	return row.toEntity(), nil
}

// ListByStatus devuelve hasta limit entradas con el estado dado en orden FIFO.
// limit <= 0 no limita.
func (r *OutboxRepo) ListByStatus(ctx context.Context, status entity.OutboxStatus, limit int) ([]*entity.OutboxEntry, error) {
	b := builder().Select(outboxColumns...).From("outbox").OrderBy("id ASC")
	if status != "" {
		b = b.Where(sq.Eq{"status": string(status)})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir listado de cola: %w", err)
	}
	var rows []outboxRow
	if err := sqlscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, storeErr("listar cola", err)
	}
	list := make([]*entity.OutboxEntry, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// Delete elimina una entrada. Devuelve false si ya no existía.
func (r *OutboxRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	if err != nil {
		return false, storeErr("eliminar entrada de cola", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("eliminar entrada de cola", err)
	}
	return n > 0, nil
}

// UpdateAttempt registra un intento fallido: intentos, estado y marca de tiempo.
func (r *OutboxRepo) UpdateAttempt(ctx context.Context, id int64, attempts int, status entity.OutboxStatus, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE outbox SET attempts = ?, status = ?, last_attempt_at = ? WHERE id = ?`,
		attempts, string(status), at.UTC(), id,
	)
	if err != nil {
		return storeErr("actualizar intento", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("actualizar intento", err)
	}
	if n == 0 {
		return fmt.Errorf("entrada %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Reset devuelve una entrada ERROR a PENDING con intentos en cero.
func (r *OutboxRepo) Reset(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE outbox SET status = 'PENDING', attempts = 0 WHERE id = ? AND status = 'ERROR'`, id,
	)
	if err != nil {
		return false, storeErr("reiniciar entrada", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("reiniciar entrada", err)
	}
	return n > 0, nil
}

// ResetAll reinicia todas las entradas en ERROR. Devuelve cuántas cambiaron.
func (r *OutboxRepo) ResetAll(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE outbox SET status = 'PENDING', attempts = 0 WHERE status = 'ERROR'`,
	)
	if err != nil {
		return 0, storeErr("reiniciar entradas", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("reiniciar entradas", err)
	}
	return n, nil
}

// Stats cuenta entradas por estado.
func (r *OutboxRepo) Stats(ctx context.Context) (entity.OutboxStats, error) {
	var s entity.OutboxStats
	err := r.q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'ERROR' THEN 1 ELSE 0 END), 0)
		FROM outbox`,
	).Scan(&s.Pending, &s.Errors)
	if err != nil {
		return s, storeErr("estadísticas de cola", err)
	}
	return s, nil
}
