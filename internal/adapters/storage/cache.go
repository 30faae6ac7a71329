package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
)

// SQLiteCacheRegistry implementa ports.CacheRegistry sobre las tablas cache_*.
type SQLiteCacheRegistry struct {
	db *sql.DB
}

// Open crea el store si no existe y devuelve un handle.
func (r *SQLiteCacheRegistry) Open(ctx context.Context, name string) (ports.CacheStore, error) {
	if err := r.ensure(ctx, name); err != nil {
		return nil, fmt.Errorf("storage.Open cache %q: %w", name, err)
	}
	return &sqliteCacheStore{db: r.db, name: name}, nil
}

// Has reporta si existe un store con ese nombre.
func (r *SQLiteCacheRegistry) Has(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cache_stores WHERE name = ?`, name,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("storage.Has cache %q: %w", name, err)
	}
	return n > 0, nil
}

// Names lista todos los stores, ordenados por nombre.
func (r *SQLiteCacheRegistry) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM cache_stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("storage.Names: query: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("storage.Names: scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete borra el store y, en cascada, sus entries.
func (r *SQLiteCacheRegistry) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cache_stores WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("storage.Delete cache %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.Delete cache %q: rows affected: %w", name, err)
	}
	return n > 0, nil
}

func (r *SQLiteCacheRegistry) ensure(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cache_stores (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixNano(),
	)
	return err
}

type sqliteCacheStore struct {
	db   *sql.DB
	name string
}

func (s *sqliteCacheStore) Name() string { return s.name }

func (s *sqliteCacheStore) Match(ctx context.Context, key string) (domain.CachedResponse, bool, error) {
	var (
		resp     domain.CachedResponse
		header   string
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, header, body, stored_at
		FROM cache_entries
		WHERE store_name = ? AND request_key = ?
	`, s.name, key).Scan(&resp.Status, &header, &resp.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CachedResponse{}, false, nil
	}
	if err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("storage.Match %q: %w", key, err)
	}

	resp.Header = make(http.Header)
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("storage.Match %q: decode header: %w", key, err)
	}
	resp.StoredAt = time.Unix(0, storedAt).UTC()
	return resp, true, nil
}

// Put recrea el store si fue borrado (p. ej. por CLEAR_CACHE) y hace upsert del entry.
func (s *sqliteCacheStore) Put(ctx context.Context, key string, resp domain.CachedResponse) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("storage.Put cache %q: encode header: %w", key, err)
	}
	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Put cache %q: begin tx: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO cache_stores (name, created_at) VALUES (?, ?)`,
		s.name, time.Now().UTC().UnixNano(),
	); err != nil {
		return fmt.Errorf("storage.Put cache %q: ensure store: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cache_entries (store_name, request_key, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_name, request_key) DO UPDATE SET
			status    = excluded.status,
			header    = excluded.header,
			body      = excluded.body,
			stored_at = excluded.stored_at
	`, s.name, key, resp.Status, string(header), resp.Body, storedAt.UTC().UnixNano()); err != nil {
		return fmt.Errorf("storage.Put cache %q: upsert: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Put cache %q: commit: %w", key, err)
	}
	return nil
}

func (s *sqliteCacheStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_key FROM cache_entries WHERE store_name = ? ORDER BY request_key`, s.name,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.Keys %q: query: %w", s.name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage.Keys %q: scan: %w", s.name, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
