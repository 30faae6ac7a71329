package storage

// sqlite.go: backend SQLite (pure Go, sin CGo).
//
// Tablas:
//   - `kv`: una fila por clave del gateway de persistencia (JSON).
//   - `cache_stores` / `cache_entries`: stores nombrados del cache manager.
//     Borrar un store borra sus entries en cascada.
//
// El schema vive en migrations/ y lo aplica goose al abrir la base.

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/ports"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sqliteDialect = "sqlite3"

// goose usa estado global; serializamos las migraciones.
var migrateMu sync.Mutex

// SQLiteStorage implementa ports.KVStore y expone el registry de caches.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica las migraciones.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer; además ":memory:" vive en una sola conexión
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: set pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// migrate aplica todas las migraciones embebidas pendientes.
func migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// Get devuelve el valor de key o ports.ErrNotFound.
func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Get %q: %w", key, err)
	}
	return value, nil
}

// Put hace upsert de key.
func (s *SQLiteStorage) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().UnixNano()); err != nil {
		return fmt.Errorf("storage.Put %q: %w", key, err)
	}
	return nil
}

// Caches devuelve el registry de caches que comparte esta base.
func (s *SQLiteStorage) Caches() *SQLiteCacheRegistry {
	return &SQLiteCacheRegistry{db: s.db}
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
