package db

import (
	"context"
	"fmt"
)

// ArtistRepository handles artist database operations.
type ArtistRepository struct {
	q querier
}

// Upsert inserts an artist. Artists are immutable once loaded, so an
// existing row is left untouched.
func (r *ArtistRepository) Upsert(ctx context.Context, artist *Artist) error {
	query := `
		INSERT INTO artists (artist_id, name, location, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (artist_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		artist.ID,
		artist.Name,
		artist.Location,
		artist.Latitude,
		artist.Longitude,
	)
	if err != nil {
		return fmt.Errorf("upserting artist: %w", err)
	}
	return nil
}
