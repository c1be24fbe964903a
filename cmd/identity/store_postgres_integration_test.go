package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"japa/cmd/internal/dbschema/pgtest"
)

// Integration tests are opt-in and require JAPA_DATABASE_URL.

func TestPostgresStore_UpsertPreservesDisplayName(t *testing.T) {
	t.Parallel()

	pool, schema := pgtest.Open(t)
	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	name := "Radha"
	u1, err := s.UpsertUser(ctx, UpsertUserInput{Phone: "+15550001", PINHash: "hash-1", DisplayName: &name})
	if err != nil {
		t.Fatalf("upsert 1: %v", err)
	}

	u2, err := s.UpsertUser(ctx, UpsertUserInput{Phone: "+15550001", PINHash: "hash-2"})
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if u2.ID != u1.ID {
		t.Fatalf("id changed on re-register: %s -> %s", u1.ID, u2.ID)
	}
	if u2.DisplayName == nil || *u2.DisplayName != "Radha" {
		t.Fatalf("display name not preserved: %v", u2.DisplayName)
	}
	if !u2.CreatedAt.Equal(u1.CreatedAt) {
		t.Fatalf("created_at must not move")
	}

	ua, err := s.GetUserAuthByPhone(ctx, "+15550001")
	if err != nil {
		t.Fatalf("get auth: %v", err)
	}
	if ua.PINHash != "hash-2" {
		t.Fatalf("pin hash not replaced: %q", ua.PINHash)
	}

	byID, err := s.GetUserByID(ctx, u1.ID)
	if err != nil || byID.Phone != "+15550001" {
		t.Fatalf("get by id: %+v %v", byID, err)
	}
}

func TestPostgresStore_NotFound(t *testing.T) {
	t.Parallel()

	pool, schema := pgtest.Open(t)
	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	if _, err := s.GetUserAuthByPhone(ctx, "+19999999"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.GetUserByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresStore_ConcurrentUpsertSinglePhone(t *testing.T) {
	t.Parallel()

	pool, schema := pgtest.Open(t)
	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.UpsertUser(ctx, UpsertUserInput{Phone: "+15550003", PINHash: "h"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM `+pgIdent(schema, "users")+` WHERE phone = $1`, "+15550003").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestWithSchema_RejectsBadIdentifier(t *testing.T) {
	t.Parallel()

	if err := WithSchema("bad;schema")(&PostgresStore{}); err == nil {
		t.Fatalf("expected error")
	}
	if err := WithSchema("  ")(&PostgresStore{}); err == nil {
		t.Fatalf("expected error")
	}
}
