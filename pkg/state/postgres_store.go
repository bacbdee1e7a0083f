package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table used by PostgresStore when none is configured.
const DefaultTable = "resume_snapshots"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresStore keeps one row per key with the snapshot and its meta as JSONB.
// Saves run in a transaction that locks the row while the ETag is checked.
type PostgresStore[T any] struct {
	pool  *pgxpool.Pool
	table string
	now   func() time.Time
}

// NewPostgresStore returns a store writing to table (DefaultTable when empty).
func NewPostgresStore[T any](pool *pgxpool.Pool, table string) (*PostgresStore[T], error) {
	if pool == nil {
		return nil, fmt.Errorf("state: postgres pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("state: invalid table name %q", table)
	}
	return &PostgresStore[T]{pool: pool, table: table, now: time.Now}, nil
}

// Connect parses url, opens a pool and pings it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("state: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("state: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("state: ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the snapshot table when missing.
func (s *PostgresStore[T]) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			meta       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("state: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore[T]) Load(ctx context.Context, key string) (T, Meta, bool, error) {
	var zero T
	if err := ValidateKey(key); err != nil {
		return zero, Meta{}, false, err
	}

	query := fmt.Sprintf(`SELECT snapshot, meta FROM %s WHERE key = $1`, s.table)
	var rawSnapshot, rawMeta []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&rawSnapshot, &rawMeta)
	if err != nil {
		if isNoRows(err) {
			return zero, Meta{}, false, nil
		}
		return zero, Meta{}, false, fmt.Errorf("state: load %q: %w", key, err)
	}

	var snapshot T
	if err := json.Unmarshal(rawSnapshot, &snapshot); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode snapshot %q: %w", key, err)
	}
	var meta Meta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode meta %q: %w", key, err)
	}
	return snapshot, meta, true, nil
}

func (s *PostgresStore[T]) Save(ctx context.Context, key string, snapshot T, meta Meta) (Meta, error) {
	if err := ValidateKey(key); err != nil {
		return Meta{}, err
	}
	rawSnapshot, err := json.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode snapshot %q: %w", key, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Meta{}, fmt.Errorf("state: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current Meta
	exists := false
	var rawCurrent []byte
	lockQuery := fmt.Sprintf(`SELECT meta FROM %s WHERE key = $1 FOR UPDATE`, s.table)
	switch err := tx.QueryRow(ctx, lockQuery, key).Scan(&rawCurrent); {
	case err == nil:
		exists = true
		if err := json.Unmarshal(rawCurrent, &current); err != nil {
			return Meta{}, fmt.Errorf("state: decode meta %q: %w", key, err)
		}
	case isNoRows(err):
	default:
		return Meta{}, fmt.Errorf("state: lock %q: %w", key, err)
	}

	next, err := nextMeta(current, exists, meta, s.now())
	if err != nil {
		return Meta{}, err
	}
	rawMeta, err := json.Marshal(next)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode meta %q: %w", key, err)
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (key, snapshot, meta, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, meta = EXCLUDED.meta, updated_at = EXCLUDED.updated_at
	`, s.table)
	if _, err := tx.Exec(ctx, upsert, key, rawSnapshot, rawMeta, next.UpdatedAt); err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Meta{}, fmt.Errorf("state: commit %q: %w", key, err)
	}
	return cloneMeta(next), nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
