// Package outbox administra la cola durable de operaciones locales aún no confirmadas
// por el servidor remoto.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

// Valores por defecto de la cola.
const (
	DefaultBatchSize   = 10
	DefaultMaxAttempts = 5
)

// Options parámetros de la cola.
type Options struct {
	BatchSize   int // tamaño de PeekBatch cuando limit <= 0
	MaxAttempts int // intentos fallidos antes de pasar a ERROR
	// OnEnqueue se invoca después de cada commit que agrega una entrada. No debe bloquear.
	OnEnqueue func()
	Now       func() time.Time
}

// Queue cola FIFO de operaciones pendientes.
type Queue struct {
	txRunner    repository.TxRunner
	repo        repository.OutboxRepository
	batchSize   int
	maxAttempts int
	onEnqueue   func()
	now         func() time.Time
}

// NewQueue construye la cola. repo se usa para lecturas fuera de transacción.
func NewQueue(txRunner repository.TxRunner, repo repository.OutboxRepository, opts Options) *Queue {
	q := &Queue{
		txRunner:    txRunner,
		repo:        repo,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		onEnqueue:   opts.OnEnqueue,
		now:         opts.Now,
	}
	if q.batchSize <= 0 {
		q.batchSize = DefaultBatchSize
	}
	if q.maxAttempts <= 0 {
		q.maxAttempts = DefaultMaxAttempts
	}
	if q.now == nil {
		q.now = time.Now
	}
	return q
}

// SetOnEnqueue fija el aviso post-encolado (el orquestador se construye después de la cola).
func (q *Queue) SetOnEnqueue(fn func()) {
	q.onEnqueue = fn
}

// Notify dispara el aviso post-encolado. Lo usan quienes encolan con EnqueueTx.
func (q *Queue) Notify() {
	if q.onEnqueue != nil {
		q.onEnqueue()
	}
}

// MaxAttempts techo de reintentos configurado.
func (q *Queue) MaxAttempts() int { return q.maxAttempts }

// BatchSize tamaño de lote por defecto.
func (q *Queue) BatchSize() int { return q.batchSize }

// Enqueue agrega una entrada PENDING en su propia transacción y avisa al orquestador.
func (q *Queue) Enqueue(ctx context.Context, entry *entity.OutboxEntry) (int64, error) {
	var id int64
	err := q.txRunner.Run(ctx, func(r repository.TxRepos) error {
		var err error
		id, err = q.EnqueueTx(ctx, r, entry)
		return err
	})
	if err != nil {
		return 0, err
	}
	q.Notify()
	return id, nil
}

// EnqueueTx agrega la entrada dentro de la transacción del llamador. No avisa:
// el llamador invoca Notify después del commit.
func (q *Queue) EnqueueTx(ctx context.Context, r repository.TxRepos, entry *entity.OutboxEntry) (int64, error) {
	if entry == nil || entry.RefID == "" || len(entry.Payload) == 0 {
		return 0, fmt.Errorf("entrada sin referencia o payload: %w", domain.ErrInvalidInput)
	}
	switch entry.Kind {
	case entity.OperationMovement, entity.OperationItemUpsert:
	default:
		return 0, fmt.Errorf("tipo de operación %q: %w", entry.Kind, domain.ErrInvalidInput)
	}
	entry.Status = entity.OutboxPending
	entry.Attempts = 0
	entry.LastAttemptAt = nil
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = q.now()
	}
	return r.Outbox.Append(ctx, entry)
}

// PeekBatch devuelve hasta limit entradas PENDING, la más antigua primero.
// limit <= 0 usa el tamaño de lote configurado. Las entradas ERROR nunca se devuelven.
func (q *Queue) PeekBatch(ctx context.Context, limit int) ([]*entity.OutboxEntry, error) {
	if limit <= 0 {
		limit = q.batchSize
	}
	return q.repo.ListByStatus(ctx, entity.OutboxPending, limit)
}

// MarkConfirmed elimina la entrada y el registro local que representa, en una transacción.
// Confirmar una entrada que ya no existe no es error.
func (q *Queue) MarkConfirmed(ctx context.Context, id int64) error {
	return q.txRunner.Run(ctx, func(r repository.TxRepos) error {
		entry, err := r.Outbox.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		if entry.Kind == entity.OperationMovement {
			if err := r.Movements.Delete(ctx, entry.RefID); err != nil {
				return err
			}
		}
		_, err = r.Outbox.Delete(ctx, id)
		return err
	})
}

// MarkFailed registra un intento fallido. Devuelve el estado resultante: ERROR cuando
// los intentos alcanzan el techo, PENDING en otro caso.
func (q *Queue) MarkFailed(ctx context.Context, id int64) (entity.OutboxStatus, error) {
	var status entity.OutboxStatus
	err := q.txRunner.Run(ctx, func(r repository.TxRepos) error {
		entry, err := r.Outbox.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("entrada %d: %w", id, domain.ErrNotFound)
		}
		attempts := entry.Attempts + 1
		status = entity.OutboxPending
		if attempts >= q.maxAttempts {
			status = entity.OutboxError
		}
		return r.Outbox.UpdateAttempt(ctx, id, attempts, status, q.now())
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// Reset devuelve una entrada ERROR a PENDING con intentos en cero (acción del operador).
func (q *Queue) Reset(ctx context.Context, id int64) error {
	entry, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entrada %d: %w", id, domain.ErrNotFound)
	}
	if entry.Status != entity.OutboxError {
		return fmt.Errorf("entrada %d no está en ERROR: %w", id, domain.ErrInvalidInput)
	}
	if _, err := q.repo.Reset(ctx, id); err != nil {
		return err
	}
	q.Notify()
	return nil
}

// ResetAll reinicia todas las entradas en ERROR.
func (q *Queue) ResetAll(ctx context.Context) (int64, error) {
	n, err := q.repo.ResetAll(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.Notify()
	}
	return n, nil
}

// Stats conteo de entradas por estado.
func (q *Queue) Stats(ctx context.Context) (entity.OutboxStats, error) {
	return q.repo.Stats(ctx)
}

// List lista entradas por estado (vacío = todas) en orden FIFO.
func (q *Queue) List(ctx context.Context, status entity.OutboxStatus, limit int) ([]*entity.OutboxEntry, error) {
	switch status {
	case "", entity.OutboxPending, entity.OutboxError:
	default:
		return nil, fmt.Errorf("estado %q: %w", status, domain.ErrInvalidInput)
	}
	return q.repo.ListByStatus(ctx, status, limit)
}
