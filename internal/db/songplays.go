package db

import (
	"context"
	"fmt"
)

// SongPlayRepository handles songplay fact operations.
type SongPlayRepository struct {
	q querier
}

// Insert appends a song play. songplay_id is assigned by the database.
func (r *SongPlayRepository) Insert(ctx context.Context, play *SongPlay) error {
	query := `
		INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, query,
		play.StartTime,
		play.UserID,
		play.Level,
		play.SongID,
		play.ArtistID,
		play.SessionID,
		play.Location,
		play.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("inserting songplay: %w", err)
	}
	return nil
}
