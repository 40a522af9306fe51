package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Errores de ciclo de sincronización: no fatales, el ciclo aborta sin tocar la cola.
	ErrNoConnectivity    = errors.New("sin conexión de red")
	ErrServerUnavailable = errors.New("servidor no disponible")
	ErrSyncInProgress    = errors.New("sincronización en curso")

	// Errores por entrada de la cola (se resuelven dentro del orquestador).
	ErrTransport = errors.New("error de transporte")
	ErrRejected  = errors.New("operación rechazada por el servidor")

	// ErrLocalStore: fallo del almacenamiento local; nunca se reintenta automáticamente.
	ErrLocalStore = errors.New("error del almacenamiento local")
)
