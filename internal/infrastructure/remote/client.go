// Package remote es el adaptador hacia el servidor autoritativo de inventario.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain"
)

// Rutas del servidor remoto.
const (
	PathSyncMovement = "/api/movements/sync"
	PathItems        = "/api/items"
	PathHealth       = "/api/sync/status"
)

// DefaultTimeout límite por llamada cuando no se configura otro.
const DefaultTimeout = 10 * time.Second

// maxBody tope de lectura de respuestas.
const maxBody = 4 << 20

// StatusError respuesta HTTP fuera de 2xx.
type StatusError struct {
	StatusCode int
	Code       string // código de dto.ErrorResponse si el servidor lo envió
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap clasifica: 4xx es rechazo (reintentar no lo arregla), el resto es transporte.
// 408 y 429 son transitorios y cuentan como transporte.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrTransport
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return domain.ErrRejected
	}
	return domain.ErrTransport
}

// Client cliente HTTP JSON del servidor remoto. Cada llamada lleva su propio timeout.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient construye el cliente. timeout <= 0 usa DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		// backstop por si el ctx del llamador no tiene deadline
		httpClient: &http.Client{Timeout: timeout + time.Second},
	}
}

// BaseURL URL base configurada.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout límite por llamada.
func (c *Client) Timeout() time.Duration { return c.timeout }

// SubmitMovement envía un movimiento; devuelve el ítem con la cantidad confirmada.
func (c *Client) SubmitMovement(ctx context.Context, req dto.SyncMovementRequest) (*dto.ItemResponse, error) {
	var out dto.ItemResponse
	if err := c.do(ctx, http.MethodPost, PathSyncMovement, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertItem envía metadatos de un ítem registrado localmente.
func (c *Client) UpsertItem(ctx context.Context, req dto.UpsertItemRequest) (*dto.ItemResponse, error) {
	var out dto.ItemResponse
	if err := c.do(ctx, http.MethodPost, PathItems, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchItems trae la lista autoritativa de ítems.
func (c *Client) FetchItems(ctx context.Context) ([]dto.ItemResponse, error) {
	var out dto.ItemListResponse
	if err := c.do(ctx, http.MethodGet, PathItems, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Health verifica que el servidor responda.
func (c *Client) Health(ctx context.Context) error {
	var out dto.HealthResponse
	return c.do(ctx, http.MethodGet, PathHealth, nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: serializar body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: crear request: %w: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("remote: timeout o cancelación en %s: %w: %w", path, domain.ErrTransport, ctx.Err())
		}
		return fmt.Errorf("remote: llamada HTTP fallida en %s: %w: %w", path, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("remote: leer respuesta: %w: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er dto.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Code != "" {
			se.Code, se.Message = er.Code, er.Message
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("remote: respuesta no decodificable de %s: %w: %w", path, domain.ErrTransport, err)
	}
	return nil
}
