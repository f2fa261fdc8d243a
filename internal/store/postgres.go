package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store wraps pgxpool for Postgres persistence. It is the only shared
// mutable state in the system; everything the pipeline learns ends up here.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a pooled connection to Postgres.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func textPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}

func int8Ptr(v pgtype.Int8) *int64 {
	if v.Valid {
		return &v.Int64
	}
	return nil
}

// MergeState unions a patch into a state object, last write wins per key.
// The Postgres store relies on jsonb || for the same semantics; this helper
// backs the in-memory store and keeps the two implementations aligned.
func MergeState(state, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(state)+len(patch))
	for k, v := range state {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}
