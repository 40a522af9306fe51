package entity

import "time"

// MovementKind tipo de movimiento de inventario.
type MovementKind string

// Tipos de movimiento.
const (
	MovementIn  MovementKind = "IN"  // entrada
	MovementOut MovementKind = "OUT" // salida
)

// Valid indica si el tipo es uno de los admitidos.
func (k MovementKind) Valid() bool {
	return k == MovementIn || k == MovementOut
}

// Sign devuelve +1 para entradas y -1 para salidas.
func (k MovementKind) Sign() int64 {
	if k == MovementOut {
		return -1
	}
	return 1
}

// Origin canal de adquisición del movimiento.
type Origin string

// Canales de adquisición.
const (
	OriginNFC     Origin = "NFC"
	OriginBarcode Origin = "BARCODE"
	OriginManual  Origin = "MANUAL"
)

// Valid indica si el origen es uno de los admitidos.
func (o Origin) Valid() bool {
	switch o {
	case OriginNFC, OriginBarcode, OriginManual:
		return true
	}
	return false
}

// MovementRecord movimiento registrado localmente y pendiente de confirmación remota.
// Se elimina cuando la entrada de la cola que lo representa es confirmada.
type MovementRecord struct {
	ID           string // UUID; también es la llave de idempotencia en el servidor
	ItemID       string
	Kind         MovementKind
	Quantity     int64 // siempre > 0
	Origin       Origin
	CreatedAt    time.Time
	Synchronized bool
}

// Delta efecto neto del movimiento sobre la cantidad del ítem.
func (m *MovementRecord) Delta() int64 {
	return m.Kind.Sign() * m.Quantity
}

// MovementSummary totales por tipo de movimiento.
type MovementSummary struct {
	Kind          MovementKind
	Count         int64
	TotalQuantity int64
}
