package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"japa/cmd/internal/calendar"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over <schema>.streaks.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore builds a PostgresStore in schema (default "japa").
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("streak: nil pool")
	}
	if schema == "" {
		schema = "japa"
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{schema, "streaks"}.Sanitize()}, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, userID string) (State, bool, error) {
	st := State{UserID: userID}
	var last *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT current_streak, longest_streak, last_counted_date
		  FROM `+s.table+`
		 WHERE user_id = $1
	`, userID).Scan(&st.Current, &st.Longest, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	if last != nil {
		st.LastCounted = calendar.FromTime(*last)
	}
	return st, true, nil
}

// CompareAndSwap implements Store.
//
// The first write is an INSERT that does nothing on conflict; later writes are
// an UPDATE whose WHERE clause repeats the previous values. Either way a lost
// race shows up as zero affected rows.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, prev *State, next State) (bool, error) {
	if prev == nil {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO `+s.table+` (user_id, current_streak, longest_streak, last_counted_date, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (user_id) DO NOTHING
		`, next.UserID, next.Current, next.Longest, dateArg(next.LastCounted))
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table+`
		   SET current_streak    = $2,
		       longest_streak    = $3,
		       last_counted_date = $4,
		       updated_at        = now()
		 WHERE user_id = $1
		   AND current_streak = $5
		   AND longest_streak = $6
		   AND last_counted_date IS NOT DISTINCT FROM $7::DATE
	`, next.UserID, next.Current, next.Longest, dateArg(next.LastCounted),
		prev.Current, prev.Longest, dateArg(prev.LastCounted))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]State, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, current_streak, longest_streak, last_counted_date
		  FROM `+s.table+`
		 ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []State{}
	for rows.Next() {
		var (
			st   State
			last *time.Time
		)
		if err := rows.Scan(&st.UserID, &st.Current, &st.Longest, &last); err != nil {
			return nil, err
		}
		if last != nil {
			st.LastCounted = calendar.FromTime(*last)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func dateArg(d calendar.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}
