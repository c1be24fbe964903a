package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (<schema>.sessions).
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a Postgres-backed session store in schema.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	if schema == "" {
		schema = "japa"
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{schema, "sessions"}.Sanitize()}, nil
}

// Put upserts the row in one statement keyed by user_id.
func (s *PostgresStore) Put(ctx context.Context, row Row) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (user_id, token_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		   SET token_id   = EXCLUDED.token_id,
		       token_hash = EXCLUDED.token_hash,
		       issued_at  = EXCLUDED.issued_at,
		       expires_at = EXCLUDED.expires_at
	`, row.UserID, row.TokenID, row.TokenHash, row.IssuedAt, row.ExpiresAt)
	return err
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, userID string) (Row, error) {
	var row Row
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, token_id, token_hash, issued_at, expires_at
		  FROM `+s.table+`
		 WHERE user_id = $1
	`, userID).Scan(&row.UserID, &row.TokenID, &row.TokenHash, &row.IssuedAt, &row.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}
