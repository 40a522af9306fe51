package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/sqlite"
)

func createTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedItem(t *testing.T, store *sqlite.Store, id, code string, qty int64) *entity.StockItem {
	t.Helper()
	item := &entity.StockItem{
		ID:          id,
		Code:        code,
		Description: "Ítem " + code,
		Category:    "general",
		Quantity:    qty,
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, store.Items().Upsert(context.Background(), item))
	return item
}

func TestOpen_Idempotente(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	s1, err := sqlite.Open(path)
	require.NoError(t, err)
	seedItem(t, s1, "it-1", "A-1", 3)
	require.NoError(t, s1.Close())

	s2, err := sqlite.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Items().GetByID(context.Background(), "it-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.Quantity, "reabrir no debe perder datos")

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestItemRepo_GetInexistente(t *testing.T) {
	store := createTestStore(t)

	got, err := store.Items().GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Items().GetByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemRepo_CodigoDuplicado(t *testing.T) {
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 0)

	err := store.Items().Upsert(context.Background(), &entity.StockItem{
		ID: "it-2", Code: "A-1", UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestItemRepo_ListBelowYFiltros(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 2)
	seedItem(t, store, "it-2", "A-2", 10)
	seedItem(t, store, "it-3", "A-3", 0)

	low, err := store.Items().ListBelow(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "it-3", low[0].ID, "menor cantidad primero")
	assert.Equal(t, "it-1", low[1].ID)

	page, err := store.Items().List(ctx, repository.ItemFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	none, err := store.Items().List(ctx, repository.ItemFilter{Category: "otra"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestItemRepo_UpdateQuantity_Inexistente(t *testing.T) {
	store := createTestStore(t)
	err := store.Items().UpdateQuantity(context.Background(), "nope", 1, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemRepo_CantidadNegativaRechazada(t *testing.T) {
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 1)
	err := store.Items().UpdateQuantity(context.Background(), "it-1", -1, time.Now())
	assert.ErrorIs(t, err, domain.ErrLocalStore, "el CHECK de la tabla impide cantidades negativas")
}

func TestMovementRepo_PendingDeltaYSummary(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 0)
	repo := store.Movements()

	now := time.Now()
	movs := []*entity.MovementRecord{
		{ItemID: "it-1", Kind: entity.MovementIn, Quantity: 10, Origin: entity.OriginManual, CreatedAt: now},
		{ItemID: "it-1", Kind: entity.MovementOut, Quantity: 3, Origin: entity.OriginNFC, CreatedAt: now},
		{ItemID: "it-1", Kind: entity.MovementIn, Quantity: 5, Origin: entity.OriginBarcode, CreatedAt: now, Synchronized: true},
	}
	for _, m := range movs {
		require.NoError(t, repo.Create(ctx, m))
		assert.NotEmpty(t, m.ID, "Create asigna UUID")
	}

	delta, err := repo.PendingDelta(ctx, "it-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), delta, "solo cuentan los no sincronizados")

	delta, err = repo.PendingDelta(ctx, "otro")
	require.NoError(t, err)
	assert.Zero(t, delta)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, entity.MovementIn, summary[0].Kind)
	assert.Equal(t, int64(2), summary[0].Count)
	assert.Equal(t, int64(15), summary[0].TotalQuantity)
	assert.Equal(t, entity.MovementOut, summary[1].Kind)

	pending := false
	list, err := repo.List(ctx, repository.MovementFilter{ItemID: "it-1", Synchronized: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, movs[0].ID))
	require.NoError(t, repo.Delete(ctx, movs[0].ID), "borrar dos veces no falla")
	got, err := repo.GetByID(ctx, movs[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOutboxRepo_FIFOyReset(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	repo := store.Outbox()
	now := time.Now()

	var ids []int64
	for i := 0; i < 3; i++ {
		e, err := entity.NewItemEntry(entity.ItemPayload{ItemID: "it-" + string(rune('a'+i)), Code: "X"}, now)
		require.NoError(t, err)
		id, err := repo.Append(ctx, e)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	batch, err := repo.ListByStatus(ctx, entity.OutboxPending, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, ids[0], batch[0].ID)
	assert.Equal(t, ids[1], batch[1].ID)
	assert.Nil(t, batch[0].LastAttemptAt)

	require.NoError(t, repo.UpdateAttempt(ctx, ids[0], 5, entity.OutboxError, now))
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.OutboxStats{Pending: 2, Errors: 1}, stats)

	got, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, got.LastAttemptAt)
	assert.Equal(t, 5, got.Attempts)

	ok, err := repo.Reset(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, ok, "una entrada PENDING no se reinicia")

	ok, err = repo.Reset(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 0, got.Attempts)
	assert.Equal(t, entity.OutboxPending, got.Status)

	deleted, err := repo.Delete(ctx, ids[2])
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, ids[2])
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestOutboxRepo_UnaEntradaPorMovimiento(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	p := entity.MovementPayload{MovementID: "mv-1", ItemID: "it-1", Kind: entity.MovementIn, Quantity: 1}

	e1, err := entity.NewMovementEntry(p, time.Now())
	require.NoError(t, err)
	_, err = store.Outbox().Append(ctx, e1)
	require.NoError(t, err)

	e2, err := entity.NewMovementEntry(p, time.Now())
	require.NoError(t, err)
	_, err = store.Outbox().Append(ctx, e2)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestTxRunner_RollbackEnError(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 5)

	err := store.TxRunner().Run(ctx, func(r repository.TxRepos) error {
		if err := r.Items.UpdateQuantity(ctx, "it-1", 99, time.Now()); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := store.Items().GetByID(ctx, "it-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity, "la tx fallida no deja efectos")
}

func TestErrorLogRepo_AppendListPurge(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	repo := store.ErrorLog()

	old := &entity.ErrorLogEntry{Timestamp: time.Now().Add(-48 * time.Hour), Level: entity.LogLevelError, Message: "viejo"}
	recent := &entity.ErrorLogEntry{Level: entity.LogLevelWarning, Message: "reciente", Context: `{"k":1}`}
	require.NoError(t, repo.Append(ctx, old))
	require.NoError(t, repo.Append(ctx, recent))

	list, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "reciente", list[0].Message)

	n, err := repo.PurgeBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedItem(t, store, "it-1", "A-1", 5)
	require.NoError(t, store.Movements().Create(ctx, &entity.MovementRecord{
		ItemID: "it-1", Kind: entity.MovementIn, Quantity: 5, Origin: entity.OriginManual, CreatedAt: time.Now(),
	}))

	require.NoError(t, store.Clear(ctx))

	items, err := store.Items().List(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}
