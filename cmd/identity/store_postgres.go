package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - UpsertUser is a single INSERT .. ON CONFLICT statement, so it is atomic per phone.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "japa").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "japa",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// UpsertUser implements Store.
func (s *PostgresStore) UpsertUser(ctx context.Context, in UpsertUserInput) (User, error) {
	const op = "identity.UpsertUser"

	if in.Phone == "" || in.PINHash == "" {
		return User{}, invalid(op, "phone and pin hash are required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Only used when the phone is new; on conflict the existing id is returned.
	newID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	var out User
	err = s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` AS u (id, phone, pin_hash, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (phone) DO UPDATE
		    SET pin_hash     = EXCLUDED.pin_hash,
		        display_name = COALESCE(EXCLUDED.display_name, u.display_name),
		        updated_at   = EXCLUDED.updated_at
		 RETURNING u.id, u.phone, u.display_name, u.created_at, u.updated_at`,
		newID, in.Phone, in.PINHash, in.DisplayName, now,
	).Scan(&out.ID, &out.Phone, &out.DisplayName, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return out, nil
}

// GetUserAuthByPhone implements Store.
func (s *PostgresStore) GetUserAuthByPhone(ctx context.Context, phone string) (UserAuth, error) {
	const op = "identity.GetUserAuthByPhone"

	users := pgIdent(s.schema, "users")

	var out UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, phone, display_name, created_at, updated_at, pin_hash
		   FROM `+users+`
		  WHERE phone = $1`,
		phone,
	).Scan(
		&out.User.ID,
		&out.User.Phone,
		&out.User.DisplayName,
		&out.User.CreatedAt,
		&out.User.UpdatedAt,
		&out.PINHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, err
	}
	return out, nil
}

// GetUserByPhone implements Store.
func (s *PostgresStore) GetUserByPhone(ctx context.Context, phone string) (User, error) {
	return s.getUser(ctx, "identity.GetUserByPhone", "phone", phone)
}

// GetUserByID implements Store.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, "identity.GetUserByID", "id", id)
}

func (s *PostgresStore) getUser(ctx context.Context, op, column, value string) (User, error) {
	users := pgIdent(s.schema, "users")
	col := pgx.Identifier{column}.Sanitize()

	var out User
	err := s.pool.QueryRow(ctx,
		`SELECT id, phone, display_name, created_at, updated_at
		   FROM `+users+`
		  WHERE `+col+` = $1`,
		value,
	).Scan(&out.ID, &out.Phone, &out.DisplayName, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return out, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}
