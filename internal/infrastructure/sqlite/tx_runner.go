package sqlite

import (
	"context"
	"database/sql"

	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de fn se devuelven tal cual; los de begin/commit se envuelven como ErrLocalStore.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("iniciar transacción", err)
	}
	defer func() { _ = tx.Rollback() }()

	repos := repository.TxRepos{
		Items:     NewItemRepository(tx),
		Movements: NewMovementRepository(tx),
		Outbox:    NewOutboxRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("confirmar transacción", err)
	}
	return nil
}
