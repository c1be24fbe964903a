// Package dbschema holds the Postgres schema used by every store and applies it on demand.
package dbschema

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the schema the stores use unless told otherwise.
const DefaultSchema = "japa"

//go:embed schema.sql
var schemaSQL string

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQL renders the schema DDL for schema.
func SQL(schema string) (string, error) {
	if !identRe.MatchString(schema) {
		return "", fmt.Errorf("dbschema: invalid schema identifier %q", schema)
	}
	return strings.ReplaceAll(schemaSQL, "{{schema}}", pgx.Identifier{schema}.Sanitize()), nil
}

// Apply creates the schema and its tables if they do not exist. It is idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	ddl, err := SQL(schema)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("dbschema: apply: %w", err)
	}
	return nil
}
