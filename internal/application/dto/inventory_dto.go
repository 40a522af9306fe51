package dto

import "time"

// ── Contrato con el servidor remoto ──────────────────────────────────────────

// SyncMovementRequest body para POST /api/movements/sync.
// movement_id es la llave de idempotencia: reenviar el mismo movimiento no lo aplica dos veces.
type SyncMovementRequest struct {
	MovementID string    `json:"movement_id"`
	ItemID     string    `json:"item_id"`
	Kind       string    `json:"kind"`
	Quantity   int64     `json:"quantity"`
	Origin     string    `json:"origin"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpsertItemRequest body para POST /api/items. No lleva cantidad.
type UpsertItemRequest struct {
	ItemID      string    `json:"item_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemResponse ítem canónico devuelto por el servidor.
type ItemResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quantity    int64     `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemListResponse respuesta de GET /api/items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

// HealthResponse respuesta de GET /api/sync/status en el servidor.
type HealthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
}

// ── API local del agente ─────────────────────────────────────────────────────

// ApplyMovementRequest body para POST /api/movements (API local).
type ApplyMovementRequest struct {
	ItemID   string `json:"item_id,omitempty"`
	Code     string `json:"code,omitempty"`
	Kind     string `json:"kind"`
	Quantity int64  `json:"quantity"`
	Origin   string `json:"origin,omitempty"`
}

// ApplyMovementResponse respuesta de un movimiento aplicado localmente.
type ApplyMovementResponse struct {
	Success     bool   `json:"success"`
	ItemID      string `json:"item_id"`
	MovementID  string `json:"movement_id"`
	NewQuantity int64  `json:"new_quantity"`
	Queued      bool   `json:"queued"`
}

// RegisterItemRequest body para POST /api/items (API local).
type RegisterItemRequest struct {
	ID          string `json:"id,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// MovementResponse movimiento local.
type MovementResponse struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Kind         string    `json:"kind"`
	Quantity     int64     `json:"quantity"`
	Origin       string    `json:"origin"`
	CreatedAt    time.Time `json:"created_at"`
	Synchronized bool      `json:"synchronized"`
}

// MovementSummaryResponse totales por tipo.
type MovementSummaryResponse struct {
	Kind          string `json:"kind"`
	Count         int64  `json:"count"`
	TotalQuantity int64  `json:"total_quantity"`
}

// OutboxEntryResponse entrada de la cola para inspección del operador.
type OutboxEntryResponse struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	RefID         string     `json:"ref_id"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CycleReportResponse resumen de un ciclo de sincronización.
type CycleReportResponse struct {
	Confirmed  int       `json:"confirmed"`
	Failed     int       `json:"failed"`
	Terminal   int       `json:"terminal"`
	Pulled     int       `json:"pulled"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	PullError  string    `json:"pull_error,omitempty"`
}

// SyncStatusResponse estado del motor de sincronización del agente.
type SyncStatusResponse struct {
	State      string               `json:"state"`
	NetworkUp  bool                 `json:"network_up"`
	Pending    int64                `json:"pending"`
	Errors     int64                `json:"errors"`
	LastRunAt  *time.Time           `json:"last_run_at,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
	LastReport *CycleReportResponse `json:"last_report,omitempty"`
}
