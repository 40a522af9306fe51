package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationKind tipo de operación encolada.
type OperationKind string

// Tipos de operación de la cola de salida.
const (
	OperationMovement   OperationKind = "MOVEMENT"
	OperationItemUpsert OperationKind = "ITEM_UPSERT"
)

// OutboxStatus estado de una entrada de la cola.
type OutboxStatus string

// Estados de la cola. ERROR es terminal: no se reintenta sin intervención del operador.
const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxError   OutboxStatus = "ERROR"
)

// OutboxEntry operación local aún no confirmada por el servidor.
// Solo Attempts, LastAttemptAt y Status cambian después de creada.
type OutboxEntry struct {
	ID            int64 // autoincremental: define el orden FIFO
	Kind          OperationKind
	RefID         string // ID del registro local representado (movimiento o ítem)
	Payload       []byte // JSON del payload tipado según Kind
	Attempts      int
	LastAttemptAt *time.Time
	Status        OutboxStatus
	CreatedAt     time.Time
}

// MovementPayload instantánea de un movimiento al momento de encolarlo.
type MovementPayload struct {
	MovementID string       `json:"movement_id"`
	ItemID     string       `json:"item_id"`
	Kind       MovementKind `json:"kind"`
	Quantity   int64        `json:"quantity"`
	Origin     Origin       `json:"origin"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ItemPayload instantánea de los metadatos de un ítem registrado localmente.
// No lleva cantidad: el stock solo viaja como movimientos.
type ItemPayload struct {
	ItemID      string    `json:"item_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMovementEntry construye una entrada PENDING para un movimiento.
func NewMovementEntry(p MovementPayload, now time.Time) (*OutboxEntry, error) {
	return newEntry(OperationMovement, p.MovementID, p, now)
}

// NewItemEntry construye una entrada PENDING para el alta/actualización de un ítem.
func NewItemEntry(p ItemPayload, now time.Time) (*OutboxEntry, error) {
	return newEntry(OperationItemUpsert, p.ItemID, p, now)
}

func newEntry(kind OperationKind, refID string, payload any, now time.Time) (*OutboxEntry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializar payload %s: %w", kind, err)
	}
	return &OutboxEntry{
		Kind:      kind,
		RefID:     refID,
		Payload:   raw,
		Status:    OutboxPending,
		CreatedAt: now,
	}, nil
}

// MovementPayload decodifica el payload de una entrada MOVEMENT.
func (e *OutboxEntry) MovementPayload() (MovementPayload, error) {
	var p MovementPayload
	if e.Kind != OperationMovement {
		return p, fmt.Errorf("entrada %d es %s, no %s", e.ID, e.Kind, OperationMovement)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decodificar payload de entrada %d: %w", e.ID, err)
	}
	return p, nil
}

// ItemPayload decodifica el payload de una entrada ITEM_UPSERT.
func (e *OutboxEntry) ItemPayload() (ItemPayload, error) {
	var p ItemPayload
	if e.Kind != OperationItemUpsert {
		return p, fmt.Errorf("entrada %d es %s, no %s", e.ID, e.Kind, OperationItemUpsert)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decodificar payload de entrada %d: %w", e.ID, err)
	}
	return p, nil
}

// OutboxStats conteo de entradas por estado.
type OutboxStats struct {
	Pending int64
	Errors  int64
}
