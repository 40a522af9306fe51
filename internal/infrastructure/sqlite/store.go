package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Versión del esquema registrada en PRAGMA user_version.
const currentSchemaVersion = 1

// Store almacenamiento local durable del dispositivo (SQLite en modo WAL).
type Store struct {
	db *sql.DB
}

// Open crea o abre la base SQLite en path y aplica pragmas y esquema.
//
// La conexión se configura con:
//   - WAL para lecturas concurrentes durante escrituras
//   - _txlock=immediate: toda tx toma el lock de escritura al iniciar, así el
//     read-modify-write de la cantidad queda serializado
//   - busy timeout de 5 s y llaves foráneas activas
//
// Es idempotente: se puede llamar varias veces sobre el mismo archivo.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("abrir base local: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("conectar base local: %w", err)
	}

	// SQLite admite un solo escritor: una conexión evita SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar esquema: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	return "file:" + path + "?" + q.Encode()
}

// Close cierra la conexión.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB devuelve el *sql.DB subyacente.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifica que la base responda.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// TxRunner devuelve un runner de transacciones sobre esta base.
func (s *Store) TxRunner() *TxRunner {
	return NewTxRunner(s.db)
}

// Items repositorio de ítems fuera de transacción.
func (s *Store) Items() *ItemRepo { return NewItemRepository(s.db) }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return NewMovementRepository(s.db) }

// Outbox repositorio de la cola fuera de transacción.
func (s *Store) Outbox() *OutboxRepo { return NewOutboxRepository(s.db) }

// ErrorLog repositorio del log de diagnóstico.
func (s *Store) ErrorLog() *ErrorLogRepo { return NewErrorLogRepository(s.db) }

// Clear vacía todas las tablas en una sola transacción.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("iniciar limpieza", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, table := range []string{"outbox", "movements", "items", "error_log"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storeErr("limpiar "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("confirmar limpieza", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("ejecutar %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("ejecutar schema.sql: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("leer user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("fijar user_version: %w", err)
		}
	}
	return nil
}
