package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	apphttp "github.com/jhoicas/inventario-sync/internal/interfaces/http"
)

type fakeCatalog struct {
	items    map[string]*entity.StockItem
	received []entity.MovementPayload
}

func (f *fakeCatalog) SubmitMovement(_ context.Context, p entity.MovementPayload) (*entity.StockItem, error) {
	f.received = append(f.received, p)
	it, ok := f.items[p.ItemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next, err := it.Apply(p.Kind, p.Quantity)
	if err != nil {
		return nil, err
	}
	it.Quantity = next
	return it, nil
}

func (f *fakeCatalog) UpsertItem(_ context.Context, p entity.ItemPayload) (*entity.StockItem, error) {
	if p.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	it := &entity.StockItem{ID: p.ItemID, Code: p.Code, Description: p.Description, UpdatedAt: p.UpdatedAt}
	f.items[p.ItemID] = it
	return it, nil
}

func (f *fakeCatalog) ListItems(context.Context) ([]*entity.StockItem, error) {
	out := make([]*entity.StockItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func newServerApp(cat *fakeCatalog) *fiber.App {
	app := fiber.New()
	apphttp.ServerRouter(app, apphttp.ServerDeps{Catalog: cat, Service: "inventario-server"})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestCatalog_SubmitMovement(t *testing.T) {
	cat := &fakeCatalog{items: map[string]*entity.StockItem{"it-1": {ID: "it-1", Code: "A", Quantity: 3}}}
	app := newServerApp(cat)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	resp, raw := postJSON(t, app, "/api/movements/sync", dto.SyncMovementRequest{
		MovementID: "mv-1", ItemID: "it-1", Kind: "IN", Quantity: 10, Origin: "NFC", CreatedAt: created,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(raw, &item))
	assert.Equal(t, int64(13), item.Quantity)
	require.Len(t, cat.received, 1)
	assert.Equal(t, entity.OriginNFC, cat.received[0].Origin)
	assert.True(t, created.Equal(cat.received[0].CreatedAt))

	resp, _ = postJSON(t, app, "/api/movements/sync", dto.SyncMovementRequest{
		MovementID: "mv-2", ItemID: "it-1", Kind: "OUT", Quantity: 99,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "stock insuficiente es un 4xx: el cliente lo trata como rechazo")

	resp, _ = postJSON(t, app, "/api/movements/sync", dto.SyncMovementRequest{
		MovementID: "mv-3", ItemID: "zz", Kind: "IN", Quantity: 1,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCatalog_UpsertListYHealth(t *testing.T) {
	cat := &fakeCatalog{items: map[string]*entity.StockItem{}}
	app := newServerApp(cat)

	resp, _ := postJSON(t, app, "/api/items", dto.UpsertItemRequest{ItemID: "it-9", Code: "NEW-9", UpdatedAt: time.Now()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw := postJSON(t, app, "/api/items", dto.UpsertItemRequest{ItemID: "it-10"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decodeError(t, raw).Code)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/items", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.ItemListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "NEW-9", list.Items[0].Code)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/status", nil), -1)
	require.NoError(t, err)
	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "inventario-server", health.Service)
}
