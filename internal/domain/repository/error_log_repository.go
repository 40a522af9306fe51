package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// ErrorLogRepository puerto del log de diagnóstico local.
type ErrorLogRepository interface {
	Append(ctx context.Context, entry *entity.ErrorLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*entity.ErrorLogEntry, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}
