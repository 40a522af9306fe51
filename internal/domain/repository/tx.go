package repository

import "context"

// TxRepos repositorios atados a una misma transacción local.
type TxRepos struct {
	Items     ItemRepository
	Movements MovementRepository
	Outbox    OutboxRepository
}

// TxRunner ejecuta una función dentro de una transacción del almacenamiento local,
// pasando repositorios atados a esa tx. Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
