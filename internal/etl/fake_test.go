package etl

import (
	"context"
	"maps"
	"slices"

	"github.com/justestif/sparkify-etl/internal/db"
)

// warehouse is an in-memory model of the star schema with the same
// conflict rules as the Postgres tables.
type warehouse struct {
	artists map[string]db.Artist
	songs   map[string]db.Song
	users   map[int]db.User
	times   map[int64]db.TimeRow
	plays   []db.SongPlay
}

func newWarehouse() *warehouse {
	return &warehouse{
		artists: map[string]db.Artist{},
		songs:   map[string]db.Song{},
		users:   map[int]db.User{},
		times:   map[int64]db.TimeRow{},
	}
}

func (w *warehouse) clone() *warehouse {
	return &warehouse{
		artists: maps.Clone(w.artists),
		songs:   maps.Clone(w.songs),
		users:   maps.Clone(w.users),
		times:   maps.Clone(w.times),
		plays:   slices.Clone(w.plays),
	}
}

// fakeStore hands out fakeWriters; committed holds what survived Commit.
type fakeStore struct {
	committed  *warehouse
	fail       map[string]error // table -> error returned by every write
	beginErr   error
	commitErr  error
	resolveErr error
	attempts   map[string]int
	commits    int
	rollbacks  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		committed: newWarehouse(),
		fail:      map[string]error{},
		attempts:  map[string]int{},
	}
}

func (s *fakeStore) Begin(ctx context.Context) (db.Writer, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return &fakeWriter{store: s, staged: s.committed.clone()}, nil
}

type fakeWriter struct {
	store  *fakeStore
	staged *warehouse
}

func (w *fakeWriter) attempt(table string) error {
	w.store.attempts[table]++
	return w.store.fail[table]
}

func (w *fakeWriter) UpsertArtist(ctx context.Context, artist *db.Artist) error {
	if err := w.attempt(TableArtists); err != nil {
		return err
	}
	if _, ok := w.staged.artists[artist.ID]; !ok {
		w.staged.artists[artist.ID] = *artist
	}
	return nil
}

func (w *fakeWriter) UpsertSong(ctx context.Context, song *db.Song) error {
	if err := w.attempt(TableSongs); err != nil {
		return err
	}
	if _, ok := w.staged.songs[song.ID]; !ok {
		w.staged.songs[song.ID] = *song
	}
	return nil
}

func (w *fakeWriter) UpsertUser(ctx context.Context, user *db.User) error {
	if err := w.attempt(TableUsers); err != nil {
		return err
	}
	w.staged.users[user.ID] = *user
	return nil
}

func (w *fakeWriter) UpsertTime(ctx context.Context, t *db.TimeRow) error {
	if err := w.attempt(TableTime); err != nil {
		return err
	}
	key := t.StartTime.UnixMilli()
	if _, ok := w.staged.times[key]; !ok {
		w.staged.times[key] = *t
	}
	return nil
}

func (w *fakeWriter) ResolveSong(ctx context.Context, title, artistName string, duration float64) (db.SongRef, bool, error) {
	w.store.attempts["resolve"]++
	if w.store.resolveErr != nil {
		return db.SongRef{}, false, w.store.resolveErr
	}
	var matches []db.SongRef
	for _, s := range w.staged.songs {
		a, ok := w.staged.artists[s.ArtistID]
		if ok && s.Title == title && a.Name == artistName && s.Duration == duration {
			matches = append(matches, db.SongRef{SongID: s.ID, ArtistID: s.ArtistID})
		}
	}
	if len(matches) != 1 {
		return db.SongRef{}, false, nil
	}
	return matches[0], true, nil
}

func (w *fakeWriter) InsertSongPlay(ctx context.Context, play *db.SongPlay) error {
	if err := w.attempt(TableSongPlays); err != nil {
		return err
	}
	w.staged.plays = append(w.staged.plays, *play)
	return nil
}

func (w *fakeWriter) Commit(ctx context.Context) error {
	if w.store.commitErr != nil {
		return w.store.commitErr
	}
	w.store.commits++
	w.store.committed = w.staged
	return nil
}

func (w *fakeWriter) Rollback(ctx context.Context) error {
	w.store.rollbacks++
	return nil
}

// countingRecorder tallies Recorder calls.
type countingRecorder struct {
	written    map[string]int
	failed     map[string]int
	discovered map[string]int
	processed  map[string]int
	fileFailed map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		written:    map[string]int{},
		failed:     map[string]int{},
		discovered: map[string]int{},
		processed:  map[string]int{},
		fileFailed: map[string]int{},
	}
}

func (r *countingRecorder) RecordWritten(table string) { r.written[table]++ }
func (r *countingRecorder) RecordFailed(table string) { r.failed[table]++ }
func (r *countingRecorder) FileDiscovered(phase string, n int) { r.discovered[phase] += n }
func (r *countingRecorder) FileProcessed(phase string) { r.processed[phase]++ }
func (r *countingRecorder) FileFailed(phase string) { r.fileFailed[phase]++ }
