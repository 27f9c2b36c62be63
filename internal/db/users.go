package db

import (
	"context"
	"fmt"
)

// UserRepository handles user database operations.
type UserRepository struct {
	q querier
}

// Upsert creates or updates a user. The most recent event wins, so a user
// moving between the free and paid tiers ends up with their latest level.
func (r *UserRepository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (user_id, first_name, last_name, gender, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			level = EXCLUDED.level
	`
	_, err := r.q.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Gender,
		user.Level,
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}
