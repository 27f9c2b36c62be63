// Package records decodes the song metadata and activity log files that feed
// the warehouse, and derives the values loaded from them.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptyFile is returned when a song file contains no records.
var ErrEmptyFile = errors.New("file contains no records")

// SongRecord is one entry of the song metadata dataset.
type SongRecord struct {
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLocation  *string  `json:"artist_location"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistName      string   `json:"artist_name"`
	Duration        float64  `json:"duration"`
	NumSongs        int      `json:"num_songs"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Year            int      `json:"year"`
}

// ReadSongFile reads the song records stored at path. A song file normally
// holds a single JSON object, but consecutive objects are accepted too.
func ReadSongFile(path string) ([]SongRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening song file: %w", err)
	}
	defer f.Close()

	songs, err := DecodeSongs(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return songs, nil
}

// DecodeSongs decodes every JSON object in r as a SongRecord.
func DecodeSongs(r io.Reader) ([]SongRecord, error) {
	dec := json.NewDecoder(r)

	var songs []SongRecord
	for {
		var s SongRecord
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding song record %d: %w", len(songs)+1, err)
		}
		songs = append(songs, s)
	}

	if len(songs) == 0 {
		return nil, ErrEmptyFile
	}
	return songs, nil
}
