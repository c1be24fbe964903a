// Package pgtest opens a throwaway Postgres schema for integration tests.
//
// Tests are opt-in: without JAPA_DATABASE_URL they are skipped, and an
// unreachable server skips rather than fails outside CI.
package pgtest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"japa/cmd/identity/ids"
	"japa/cmd/internal/dbschema"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnvDatabaseURL names the variable that enables integration tests.
const EnvDatabaseURL = "JAPA_DATABASE_URL"

// Open connects to JAPA_DATABASE_URL, creates a fresh schema with all tables,
// and registers cleanup that drops the schema and closes the pool.
func Open(t testing.TB) (*pgxpool.Pool, string) {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if raw == "" {
		t.Skip("integration test skipped: " + EnvDatabaseURL + " is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvDatabaseURL, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkip(err) {
			t.Skipf("integration test skipped: Postgres unreachable: %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	schema := "japa_it_" + randomSuffix(t)
	if err := dbschema.Apply(ctx, pool, schema); err != nil {
		pool.Close()
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		_, _ = pool.Exec(dropCtx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
		pool.Close()
	})

	return pool, schema
}

// SeedUser inserts a bare user row and returns its id. Tables that reference
// users need one before they accept writes.
func SeedUser(t testing.TB, pool *pgxpool.Pool, schema, phone string) string {
	t.Helper()

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	table := pgx.Identifier{schema, "users"}.Sanitize()
	if _, err := pool.Exec(ctx, `INSERT INTO `+table+` (id, phone, pin_hash) VALUES ($1, $2, 'x')`, id, phone); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func randomSuffix(t testing.TB) string {
	t.Helper()
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("random: %v", err)
	}
	return hex.EncodeToString(b)
}

func shouldSkip(err error) bool {
	if strings.TrimSpace(os.Getenv("CI")) != "" {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
