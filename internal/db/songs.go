package db

import (
	"context"
	"fmt"
)

// SongRepository handles song database operations.
type SongRepository struct {
	q querier
}

// Upsert inserts a song, leaving an existing row with the same ID untouched.
func (r *SongRepository) Upsert(ctx context.Context, song *Song) error {
	query := `
		INSERT INTO songs (song_id, title, artist_id, year, duration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (song_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		song.ID,
		song.Title,
		song.ArtistID,
		song.Year,
		song.Duration,
	)
	if err != nil {
		return fmt.Errorf("upserting song: %w", err)
	}
	return nil
}

// Resolve finds the song whose title, artist name and duration all match
// exactly. found is false when there is no match or more than one.
func (r *SongRepository) Resolve(ctx context.Context, title, artistName string, duration float64) (ref SongRef, found bool, err error) {
	query := `
		SELECT s.song_id, s.artist_id
		FROM songs s
		JOIN artists a ON s.artist_id = a.artist_id
		WHERE s.title = $1 AND a.name = $2 AND s.duration = $3
		LIMIT 2
	`
	rows, err := r.q.Query(ctx, query, title, artistName, duration)
	if err != nil {
		return SongRef{}, false, fmt.Errorf("querying song: %w", err)
	}
	defer rows.Close()

	var refs []SongRef
	for rows.Next() {
		var ref SongRef
		if err := rows.Scan(&ref.SongID, &ref.ArtistID); err != nil {
			return SongRef{}, false, fmt.Errorf("scanning song: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return SongRef{}, false, fmt.Errorf("querying song: %w", err)
	}

	if len(refs) != 1 {
		return SongRef{}, false, nil
	}
	return refs[0], true, nil
}
