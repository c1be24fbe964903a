package ledger

import (
	"context"
	"fmt"
	"time"

	"japa/cmd/internal/calendar"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over <schema>.chant_entries.
// The pool is owned by the caller.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore builds a PostgresStore in schema (default "japa").
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("ledger: nil pool")
	}
	if schema == "" {
		schema = "japa"
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{schema, "chant_entries"}.Sanitize()}, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (id, user_id, rounds, occurred_on, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.UserID, e.Rounds, e.OccurredOn.Time(), e.RecordedAt)
	return err
}

// Summary implements Store.
func (s *PostgresStore) Summary(ctx context.Context, userID string) (Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT occurred_on, SUM(rounds)::BIGINT
		  FROM `+s.table+`
		 WHERE user_id = $1
		 GROUP BY occurred_on
		 ORDER BY occurred_on DESC
	`, userID)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	sum := Summary{Daily: []DayTotal{}}
	for rows.Next() {
		var (
			day    time.Time
			rounds int64
		)
		if err := rows.Scan(&day, &rounds); err != nil {
			return Summary{}, err
		}
		sum.Daily = append(sum.Daily, DayTotal{Date: calendar.FromTime(day), Rounds: rounds})
		sum.TotalRounds += rounds
	}
	return sum, rows.Err()
}

// Totals implements Store.
func (s *PostgresStore) Totals(ctx context.Context) ([]UserTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, SUM(rounds)::BIGINT
		  FROM `+s.table+`
		 GROUP BY user_id
		 ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserTotal{}
	for rows.Next() {
		var t UserTotal
		if err := rows.Scan(&t.UserID, &t.TotalRounds); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
