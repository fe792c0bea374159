package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/recruit-portal/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for key-value entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Get fetches the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1;`
	var value string
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value stored under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const query = `
	INSERT INTO kv_entries (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
	`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_entries WHERE key = $1;`
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap writes next only when the stored value still equals prev.
func (s *Store) CompareAndSwap(ctx context.Context, key, prev, next string) (bool, error) {
	const insertQuery = `
	INSERT INTO kv_entries (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	WHERE kv_entries.value = '';
	`
	const updateQuery = `
	UPDATE kv_entries SET value = $3, updated_at = NOW()
	WHERE key = $1 AND value = $2;
	`
	var (
		rows int64
		err  error
	)
	if prev == "" {
		tag, execErr := s.pool.Exec(ctx, insertQuery, key, next)
		rows, err = tag.RowsAffected(), execErr
	} else {
		tag, execErr := s.pool.Exec(ctx, updateQuery, key, prev, next)
		rows, err = tag.RowsAffected(), execErr
	}
	if err != nil {
		return false, fmt.Errorf("compare and swap %s: %w", key, err)
	}
	return rows == 1, nil
}
