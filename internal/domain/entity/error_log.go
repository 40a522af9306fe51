package entity

import "time"

// Niveles del log de diagnóstico.
const (
	LogLevelError   = "ERROR"
	LogLevelWarning = "WARNING"
)

// ErrorLogEntry registro del log de diagnóstico persistido localmente.
type ErrorLogEntry struct {
	ID        int64
	Timestamp time.Time
	Level     string
	Message   string
	Context   string // JSON opcional
	Platform  string
}
