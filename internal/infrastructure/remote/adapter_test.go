package remote_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/remote"
)

var fixedTime = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

// recorder servidor de prueba que guarda el último body recibido.
type recorder struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func (r *recorder) body(path string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[path]
}

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{bodies: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		rec.mu.Lock()
		rec.bodies[req.URL.Path] = raw
		rec.mu.Unlock()
		req.Body = io.NopCloser(bytes.NewReader(raw))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func okItem(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.ItemResponse{ID: "it-1", Code: "A-1", Quantity: 7, UpdatedAt: fixedTime})
}

func movementEntry(t *testing.T) *entity.OutboxEntry {
	t.Helper()
	e, err := entity.NewMovementEntry(entity.MovementPayload{
		MovementID: "7d9f0c3e-0000-4000-8000-000000000001",
		ItemID:     "it-1",
		Kind:       entity.MovementOut,
		Quantity:   3,
		Origin:     entity.OriginNFC,
		CreatedAt:  fixedTime,
	}, fixedTime)
	require.NoError(t, err)
	e.ID = 1
	return e
}

func assertGolden(t *testing.T, name string, raw []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Indent(&buf, raw, "", "  "))
	buf.WriteByte('\n')
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

func TestSend_MovementAck(t *testing.T) {
	srv, rec := newServer(t, okItem)
	adapter := remote.NewAdapter(remote.NewClient(srv.URL+"/", time.Second))

	out := adapter.Send(t.Context(), movementEntry(t))
	require.Equal(t, remote.Ack, out.Result, "err: %v", out.Err)
	require.NotNil(t, out.Item)
	assert.Equal(t, int64(7), out.Item.Quantity)

	assertGolden(t, "movement_request", rec.body(remote.PathSyncMovement))
}

func TestSend_ItemAck(t *testing.T) {
	srv, rec := newServer(t, okItem)
	adapter := remote.NewAdapter(remote.NewClient(srv.URL, time.Second))

	e, err := entity.NewItemEntry(entity.ItemPayload{
		ItemID: "it-2", Code: "TOR-14", Description: "Tornillo 1/4", Category: "ferreteria", UpdatedAt: fixedTime,
	}, fixedTime)
	require.NoError(t, err)

	out := adapter.Send(t.Context(), e)
	require.Equal(t, remote.Ack, out.Result, "err: %v", out.Err)
	assertGolden(t, "item_request", rec.body(remote.PathItems))
}

func TestSend_Clasificacion(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    remote.Result
		wantErr error
	}{
		{
			name: "4xx es rechazo",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
			},
			want:    remote.Reject,
			wantErr: domain.ErrRejected,
		},
		{
			name: "5xx es transporte",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want:    remote.TransportError,
			wantErr: domain.ErrTransport,
		},
		{
			name: "408 es transporte",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusRequestTimeout)
			},
			want:    remote.TransportError,
			wantErr: domain.ErrTransport,
		},
		{
			name: "429 es transporte",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{Code: "RATE_LIMIT", Message: "demasiadas solicitudes"})
			},
			want:    remote.TransportError,
			wantErr: domain.ErrTransport,
		},
		{
			name: "respuesta 2xx ilegible es transporte",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("<html>"))
			},
			want:    remote.TransportError,
			wantErr: domain.ErrTransport,
		},
		{
			name: "timeout es transporte",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			want:    remote.TransportError,
			wantErr: domain.ErrTransport,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t, tc.handler)
			adapter := remote.NewAdapter(remote.NewClient(srv.URL, 100*time.Millisecond))
			out := adapter.Send(t.Context(), movementEntry(t))
			assert.Equal(t, tc.want, out.Result)
			assert.ErrorIs(t, out.Err, tc.wantErr)
			assert.Nil(t, out.Item)
		})
	}
}

func TestSend_RechazoConservaCodigo(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Code: "VALIDATION", Message: "cantidad inválida"})
	})
	out := remote.NewAdapter(remote.NewClient(srv.URL, time.Second)).Send(t.Context(), movementEntry(t))

	var se *remote.StatusError
	require.ErrorAs(t, out.Err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "VALIDATION", se.Code)
}

func TestSend_ServidorCaido(t *testing.T) {
	srv, _ := newServer(t, okItem)
	url := srv.URL
	srv.Close()

	out := remote.NewAdapter(remote.NewClient(url, time.Second)).Send(t.Context(), movementEntry(t))
	assert.Equal(t, remote.TransportError, out.Result)
}

func TestSend_PayloadCorruptoEsRechazo(t *testing.T) {
	srv, rec := newServer(t, okItem)
	adapter := remote.NewAdapter(remote.NewClient(srv.URL, time.Second))

	e := movementEntry(t)
	e.Payload = []byte("{no-json")
	out := adapter.Send(t.Context(), e)
	assert.Equal(t, remote.Reject, out.Result)
	assert.ErrorIs(t, out.Err, domain.ErrRejected)
	assert.Nil(t, rec.body(remote.PathSyncMovement), "no se llama al servidor")

	e.Kind = "OTRO"
	assert.Equal(t, remote.Reject, adapter.Send(t.Context(), e).Result)
}

func TestFetchItemsYHealth(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case remote.PathItems:
			writeJSON(w, http.StatusOK, dto.ItemListResponse{
				Items: []dto.ItemResponse{{ID: "it-1", Code: "A-1", Quantity: 4}, {ID: "it-2", Code: "A-2"}},
				Count: 2,
			})
		case remote.PathHealth:
			writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	adapter := remote.NewAdapter(remote.NewClient(srv.URL, time.Second))

	items, err := adapter.FetchItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].Quantity)

	require.NoError(t, adapter.Health(t.Context()))
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "ACK", remote.Ack.String())
	assert.Equal(t, "REJECT", remote.Reject.String())
	assert.Equal(t, "TRANSPORT_ERROR", remote.TransportError.String())
}
