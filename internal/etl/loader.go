// Package etl loads song metadata and activity logs into the warehouse.
package etl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/sparkify-etl/internal/db"
	"github.com/justestif/sparkify-etl/internal/records"
)

// Warehouse tables, used as labels in logs and metrics.
const (
	TableArtists   = "artists"
	TableSongs     = "songs"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongPlays = "songplays"
)

// Loader writes the contents of one input file to w.
type Loader interface {
	Load(ctx context.Context, w db.Writer, path string) error
}

// Recorder observes row-level outcomes.
type Recorder interface {
	RecordWritten(table string)
	RecordFailed(table string)
	FileDiscovered(phase string, n int)
	FileProcessed(phase string)
	FileFailed(phase string)
}

type nopRecorder struct{}

func (nopRecorder) RecordWritten(string) {}
func (nopRecorder) RecordFailed(string) {}
func (nopRecorder) FileDiscovered(string, int) {}
func (nopRecorder) FileProcessed(string) {}
func (nopRecorder) FileFailed(string) {}

// rowWriter applies the row-level error policy shared by both loaders: a
// failed write is logged and counted, a connection failure is returned.
type rowWriter struct {
	logger   *zap.Logger
	recorder Recorder
	path     string
}

func (rw rowWriter) write(table string, err error, fields ...zap.Field) error {
	if err == nil {
		rw.recorder.RecordWritten(table)
		return nil
	}
	if errors.Is(err, db.ErrConnection) {
		return err
	}
	rw.recorder.RecordFailed(table)
	rw.logger.Warn("writing row failed",
		append(fields,
			zap.String("table", table),
			zap.String("file", rw.path),
			zap.Error(err),
		)...,
	)
	return nil
}

// SongLoader loads song metadata files into the artists and songs tables.
type SongLoader struct {
	logger   *zap.Logger
	recorder Recorder
}

// NewSongLoader creates a SongLoader.
func NewSongLoader(logger *zap.Logger, recorder Recorder) *SongLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &SongLoader{logger: logger, recorder: recorder}
}

// Load reads the song file at path and upserts an artist and a song for each
// record. The two writes are independent of each other.
func (l *SongLoader) Load(ctx context.Context, w db.Writer, path string) error {
	songs, err := records.ReadSongFile(path)
	if err != nil {
		return err
	}

	rw := rowWriter{logger: l.logger, recorder: l.recorder, path: path}
	for _, s := range songs {
		artist := &db.Artist{
			ID:        s.ArtistID,
			Name:      s.ArtistName,
			Location:  s.ArtistLocation,
			Latitude:  s.ArtistLatitude,
			Longitude: s.ArtistLongitude,
		}
		if err := rw.write(TableArtists, w.UpsertArtist(ctx, artist), zap.String("artist_id", s.ArtistID)); err != nil {
			return err
		}

		song := &db.Song{
			ID:       s.SongID,
			Title:    s.Title,
			ArtistID: s.ArtistID,
			Year:     s.Year,
			Duration: s.Duration,
		}
		if err := rw.write(TableSongs, w.UpsertSong(ctx, song), zap.String("song_id", s.SongID)); err != nil {
			return err
		}
	}
	return nil
}

// EventLoader loads activity log files into the time, users and songplays
// tables.
type EventLoader struct {
	logger   *zap.Logger
	recorder Recorder
}

// NewEventLoader creates an EventLoader.
func NewEventLoader(logger *zap.Logger, recorder Recorder) *EventLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &EventLoader{logger: logger, recorder: recorder}
}

// Load reads the log file at path. Only NextSong events are loaded; each one
// yields a time row, a user row and a song play. The song play is always
// inserted, with null song and artist references when the song cannot be
// matched.
func (l *EventLoader) Load(ctx context.Context, w db.Writer, path string) error {
	rw := rowWriter{logger: l.logger, recorder: l.recorder, path: path}

	var fatal error
	err := records.ScanEventFile(path, func(line int, ev records.LogEvent, err error) {
		if fatal != nil {
			return
		}
		if err != nil {
			l.logger.Warn("skipping malformed event",
				zap.String("file", path),
				zap.Int("line", line),
				zap.Error(err),
			)
			return
		}
		if !ev.IsSongPlay() {
			return
		}
		fatal = l.loadEvent(ctx, w, rw, line, &ev)
	})
	if fatal != nil {
		return fatal
	}
	return err
}

func (l *EventLoader) loadEvent(ctx context.Context, w db.Writer, rw rowWriter, line int, ev *records.LogEvent) error {
	lineField := zap.Int("line", line)

	tr := records.NewTimeRecord(ev.Time())
	row := &db.TimeRow{
		StartTime: tr.StartTime,
		Hour:      tr.Hour,
		Day:       tr.Day,
		Week:      tr.Week,
		Month:     tr.Month,
		Year:      tr.Year,
		Weekday:   tr.Weekday,
	}
	if err := rw.write(TableTime, w.UpsertTime(ctx, row), lineField); err != nil {
		return err
	}

	var userID *int
	if id, err := ev.UserID.Int(); err != nil {
		l.recorder.RecordFailed(TableUsers)
		l.logger.Warn("skipping user without usable id",
			zap.String("file", rw.path),
			lineField,
			zap.Error(err),
		)
	} else {
		userID = &id
		user := &db.User{
			ID:        id,
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Gender:    ev.Gender,
			Level:     ev.Level,
		}
		if err := rw.write(TableUsers, w.UpsertUser(ctx, user), lineField, zap.Int("user_id", id)); err != nil {
			return err
		}
	}

	play := &db.SongPlay{
		StartTime: tr.StartTime,
		UserID:    userID,
		Level:     ev.Level,
		SessionID: ev.SessionID,
		Location:  ev.Location,
		UserAgent: ev.UserAgent,
	}
	ref, found, err := w.ResolveSong(ctx, ev.Song, ev.Artist, ev.Length)
	switch {
	case errors.Is(err, db.ErrConnection):
		return err
	case err != nil:
		l.logger.Warn("resolving song failed",
			zap.String("file", rw.path),
			lineField,
			zap.Error(err),
		)
	case found:
		play.SongID = &ref.SongID
		play.ArtistID = &ref.ArtistID
	}

	if err := rw.write(TableSongPlays, w.InsertSongPlay(ctx, play), lineField); err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return nil
}
