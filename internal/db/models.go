package db

import "time"

// Artist is a row of the artists dimension.
type Artist struct {
	ID        string
	Name      string
	Location  *string  // nullable
	Latitude  *float64 // nullable
	Longitude *float64 // nullable
}

// Song is a row of the songs dimension.
type Song struct {
	ID       string
	Title    string
	ArtistID string
	Year     int
	Duration float64
}

// User is a row of the users dimension. Level is the only attribute expected
// to change between loads.
type User struct {
	ID        int
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// TimeRow is a row of the time dimension, keyed by StartTime.
type TimeRow struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   string
}

// SongRef identifies a song together with its artist.
type SongRef struct {
	SongID   string
	ArtistID string
}

// SongPlay is a row of the songplays fact table.
type SongPlay struct {
	StartTime time.Time
	UserID    *int // nullable
	Level     string
	SongID    *string // nullable - no matching song
	ArtistID  *string // nullable - no matching song
	SessionID int
	Location  string
	UserAgent string
}
