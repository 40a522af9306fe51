package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/application/outbox"
	"github.com/jhoicas/inventario-sync/internal/application/syncengine"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	apphttp "github.com/jhoicas/inventario-sync/internal/interfaces/http"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeSync struct {
	status  syncengine.Status
	trigErr error
	calls   int
}

func (f *fakeSync) Status(context.Context) (syncengine.Status, error) { return f.status, nil }
func (f *fakeSync) Trigger() error {
	f.calls++
	return f.trigErr
}

type agentEnv struct {
	app    *fiber.App
	store  *sqlite.Store
	queue  *outbox.Queue
	sync   *fakeSync
	notify int
}

func newAgentEnv(t *testing.T) *agentEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := &agentEnv{store: store, sync: &fakeSync{}}
	env.queue = outbox.NewQueue(store.TxRunner(), store.Outbox(), outbox.Options{
		OnEnqueue: func() { env.notify++ },
	})
	l := ledger.New(store.TxRunner(), store.Items(), store.Movements(), env.queue)

	env.app = fiber.New()
	apphttp.AgentRouter(env.app, apphttp.AgentDeps{Ledger: l, Queue: env.queue, Sync: env.sync})

	require.NoError(t, store.Items().Upsert(context.Background(), &entity.StockItem{
		ID: "it-1", Code: "ABC-001", Description: "Tornillo", Quantity: 3, UpdatedAt: time.Now(),
	}))
	return env
}

func (e *agentEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_EntradaEncolaYResponde(t *testing.T) {
	env := newAgentEnv(t)

	resp, raw := env.do(t, http.MethodPost, "/api/movements", dto.ApplyMovementRequest{
		ItemID: "it-1", Kind: "IN", Quantity: 10, Origin: "NFC",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	var out dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Success)
	assert.True(t, out.Queued)
	assert.Equal(t, int64(13), out.NewQuantity)
	assert.NotEmpty(t, out.MovementID)
	assert.Equal(t, 1, env.notify, "el commit debe avisar al orquestador")

	stats, err := env.queue.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
}

func TestApplyMovement_PorCodigoNormalizado(t *testing.T) {
	env := newAgentEnv(t)

	resp, raw := env.do(t, http.MethodPost, "/api/movements", dto.ApplyMovementRequest{
		Code: " abc-001 ", Kind: "OUT", Quantity: 2, Origin: "BARCODE",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	var out dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "it-1", out.ItemID)
	assert.Equal(t, int64(1), out.NewQuantity)
}

func TestApplyMovement_Errores(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"stock insuficiente", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "OUT", Quantity: 5}, fiber.StatusConflict, apphttp.CodeInsufficientStock},
		{"cantidad cero", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "IN", Quantity: 0}, fiber.StatusBadRequest, apphttp.CodeValidation},
		{"tipo inválido", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "MOVE", Quantity: 1}, fiber.StatusBadRequest, apphttp.CodeValidation},
		{"ítem inexistente", dto.ApplyMovementRequest{ItemID: "nope", Kind: "IN", Quantity: 1}, fiber.StatusNotFound, apphttp.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newAgentEnv(t)
			resp, raw := env.do(t, http.MethodPost, "/api/movements", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, raw).Code)

			stats, err := env.queue.Stats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.Pending, "un rechazo no debe encolar nada")
			assert.Zero(t, env.notify)
		})
	}
}

func TestApplyMovement_CuerpoInvalido(t *testing.T) {
	env := newAgentEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/movements", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMovements_ListYResumen(t *testing.T) {
	env := newAgentEnv(t)
	env.do(t, http.MethodPost, "/api/movements", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "IN", Quantity: 4})
	env.do(t, http.MethodPost, "/api/movements", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "OUT", Quantity: 1})

	resp, raw := env.do(t, http.MethodGet, "/api/movements?pending=true", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []dto.MovementResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)

	resp, raw = env.do(t, http.MethodGet, "/api/movements/summary", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sums []dto.MovementSummaryResponse
	require.NoError(t, json.Unmarshal(raw, &sums))
	require.Len(t, sums, 2)
	assert.Equal(t, "IN", sums[0].Kind)
	assert.Equal(t, int64(4), sums[0].TotalQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ítems
// ──────────────────────────────────────────────────────────────────────────────

func TestItems_RegistrarConsultarYStockBajo(t *testing.T) {
	env := newAgentEnv(t)

	resp, raw := env.do(t, http.MethodPost, "/api/items", dto.RegisterItemRequest{
		Code: "xyz-9", Description: "Arandela", Category: "ferretería",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var created dto.ItemResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "XYZ-9", created.Code)
	assert.Zero(t, created.Quantity)

	resp, raw = env.do(t, http.MethodGet, "/api/items/"+created.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/items/code/xyz-9", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw = env.do(t, http.MethodGet, "/api/items/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, decodeError(t, raw).Code)

	resp, raw = env.do(t, http.MethodGet, "/api/items?low_stock=true&threshold=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var low dto.ItemListResponse
	require.NoError(t, json.Unmarshal(raw, &low))
	assert.Equal(t, 2, low.Count, "ABC-001 (3) y XYZ-9 (0) están bajo 5")
}

func TestItems_CodigoDuplicado(t *testing.T) {
	env := newAgentEnv(t)
	resp, raw := env.do(t, http.MethodPost, "/api/items", dto.RegisterItemRequest{Code: "abc-001"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeDuplicate, decodeError(t, raw).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sincronización y cola
// ──────────────────────────────────────────────────────────────────────────────

func TestSync_StatusYDisparo(t *testing.T) {
	env := newAgentEnv(t)
	last := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env.sync.status = syncengine.Status{
		State:     syncengine.StateIdle,
		NetworkUp: true,
		Pending:   2,
		LastRunAt: last,
		LastReport: &syncengine.CycleReport{
			Confirmed: 3, StartedAt: last, Duration: 1500 * time.Millisecond,
		},
	}

	resp, raw := env.do(t, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var st dto.SyncStatusResponse
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, "IDLE", st.State)
	assert.True(t, st.NetworkUp)
	assert.Equal(t, int64(2), st.Pending)
	require.NotNil(t, st.LastReport)
	assert.Equal(t, int64(1500), st.LastReport.DurationMS)

	resp, _ = env.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	env.sync.trigErr = domain.ErrSyncInProgress
	resp, raw = env.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeSyncInProgress, decodeError(t, raw).Code)
	assert.Equal(t, 2, env.sync.calls)
}

func TestOutbox_ListarYReiniciar(t *testing.T) {
	env := newAgentEnv(t)
	ctx := context.Background()
	_, raw := env.do(t, http.MethodPost, "/api/movements", dto.ApplyMovementRequest{ItemID: "it-1", Kind: "IN", Quantity: 1})
	var applied dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(raw, &applied))

	pending, err := env.queue.List(ctx, entity.OutboxPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].ID

	// reset de una entrada PENDING no es válido
	resp, _ := env.do(t, http.MethodPost, "/api/outbox/"+itoa(id)+"/reset", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	for range env.queue.MaxAttempts() {
		_, err := env.queue.MarkFailed(ctx, id)
		require.NoError(t, err)
	}

	resp, raw = env.do(t, http.MethodGet, "/api/outbox?status=ERROR", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []dto.OutboxEntryResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "MOVEMENT", list[0].Kind)
	assert.Equal(t, applied.MovementID, list[0].RefID)
	assert.Equal(t, 5, list[0].Attempts)

	resp, _ = env.do(t, http.MethodPost, "/api/outbox/"+itoa(id)+"/reset", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/outbox/999/reset", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/outbox?status=DONE", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
