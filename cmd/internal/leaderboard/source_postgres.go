package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads standings with one aggregate query.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresSource builds a PostgresSource over schema (default "japa").
func NewPostgresSource(pool *pgxpool.Pool, schema string) (*PostgresSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("leaderboard: nil pool")
	}
	if schema == "" {
		schema = "japa"
	}
	return &PostgresSource{pool: pool, schema: schema}, nil
}

// Standings implements Source.
func (s *PostgresSource) Standings(ctx context.Context) ([]Standing, error) {
	users := pgx.Identifier{s.schema, "users"}.Sanitize()
	entries := pgx.Identifier{s.schema, "chant_entries"}.Sanitize()
	streaks := pgx.Identifier{s.schema, "streaks"}.Sanitize()

	rows, err := s.pool.Query(ctx, `
		SELECT u.id,
		       u.display_name,
		       u.phone,
		       COALESCE(t.total_rounds, 0),
		       COALESCE(st.current_streak, 0),
		       COALESCE(st.longest_streak, 0)
		  FROM `+users+` u
		  LEFT JOIN (
		        SELECT user_id, SUM(rounds)::BIGINT AS total_rounds
		          FROM `+entries+`
		         GROUP BY user_id
		       ) t ON t.user_id = u.id
		  LEFT JOIN `+streaks+` st ON st.user_id = u.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Standing{}
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.DisplayName, &s.Phone, &s.TotalRounds, &s.CurrentStreak, &s.LongestStreak); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
