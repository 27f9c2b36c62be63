package db

import (
	"context"
	"fmt"
)

// TimeRepository handles time dimension operations.
type TimeRepository struct {
	q querier
}

// Upsert inserts a time row; rows are derived from the timestamp alone so an
// existing one is never rewritten.
func (r *TimeRepository) Upsert(ctx context.Context, t *TimeRow) error {
	query := `
		INSERT INTO time (start_time, hour, day, week, month, year, weekday)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (start_time) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		t.StartTime,
		t.Hour,
		t.Day,
		t.Week,
		t.Month,
		t.Year,
		t.Weekday,
	)
	if err != nil {
		return fmt.Errorf("upserting time: %w", err)
	}
	return nil
}
