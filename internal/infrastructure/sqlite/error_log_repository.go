package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

var _ repository.ErrorLogRepository = (*ErrorLogRepo)(nil)

type errorLogRow struct {
	ID        int64     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	Level     string    `db:"level"`
	Message   string    `db:"message"`
	Context   string    `db:"context"`
	Platform  string    `db:"platform"`
}

// ErrorLogRepo log de diagnóstico sobre SQLite.
type ErrorLogRepo struct {
	q Querier
}

// NewErrorLogRepository construye el adaptador.
func NewErrorLogRepository(q Querier) *ErrorLogRepo {
	return &ErrorLogRepo{q: q}
}

// Append persiste una entrada del log.
func (r *ErrorLogRepo) Append(ctx context.Context, e *entity.ErrorLogEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO error_log (timestamp, level, message, context, platform)
		VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp.UTC(), e.Level, e.Message, e.Context, e.Platform,
	)
	if err != nil {
		return storeErr("guardar log", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListRecent devuelve las últimas entradas, la más reciente primero.
func (r *ErrorLogRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ErrorLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := builder().
		Select("id", "timestamp", "level", "message", "context", "platform").
		From("error_log").OrderBy("id DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("construir listado de logs: %w", err)
	}
	var rows []errorLogRow
	if err := sqlscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, storeErr("listar logs", err)
	}
	list := make([]*entity.ErrorLogEntry, 0, len(rows))
	for _, row := range rows {
		e := entity.ErrorLogEntry(row)
		list = append(list, &e)
	}
	return list, nil
}

// PurgeBefore elimina entradas anteriores a before.
func (r *ErrorLogRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM error_log WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, storeErr("purgar logs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("purgar logs", err)
	}
	return n, nil
}
