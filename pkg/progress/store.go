package progress

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists learning activities as an append-only event log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on the shared connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RecordActivity appends one learning event. Score is only set for quiz
// events and carries the percentage.
func (s *Store) RecordActivity(ctx context.Context, userID, topic, kind string, score *float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (user_id, topic, activity, score)
		VALUES ($1, $2, $3, $4)
	`, userID, topic, kind, score)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListActivities returns a user's events in chronological order.
func (s *Store) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, topic, activity, score, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Topic, &a.Kind, &a.Score, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return activities, nil
}

// UserProgress loads and replays a user's event log into the aggregate
// view.
func (s *Store) UserProgress(ctx context.Context, userID string) (*UserProgress, error) {
	activities, err := s.ListActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildUserProgress(activities), nil
}
