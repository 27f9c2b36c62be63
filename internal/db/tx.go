package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Writer receives the rows produced from one input file. Nothing is durable
// until Commit. A returned error wrapping ErrConnection means the writer is
// no longer usable; any other error affected only that row.
type Writer interface {
	UpsertArtist(ctx context.Context, artist *Artist) error
	UpsertSong(ctx context.Context, song *Song) error
	UpsertUser(ctx context.Context, user *User) error
	UpsertTime(ctx context.Context, t *TimeRow) error
	ResolveSong(ctx context.Context, title, artistName string, duration float64) (SongRef, bool, error)
	InsertSongPlay(ctx context.Context, play *SongPlay) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Tx is a Writer backed by a PostgreSQL transaction. Every statement runs
// under its own savepoint, so a rejected row is undone on its own and the
// rest of the file can still commit.
type Tx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

var _ Writer = (*Tx)(nil)

func newTx(tx pgx.Tx, logger *zap.Logger) *Tx {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tx{tx: tx, logger: logger}
}

// savepoint runs fn inside a nested transaction.
func (t *Tx) savepoint(ctx context.Context, fn func(q querier) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating savepoint: %w", classify(err))
	}

	if err := fn(loggingQuerier{q: sp, logger: t.logger}); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rolling back savepoint after %v: %w", err, classify(rbErr))
		}
		return classify(err)
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("releasing savepoint: %w", classify(err))
	}
	return nil
}

// UpsertArtist implements Writer.
func (t *Tx) UpsertArtist(ctx context.Context, artist *Artist) error {
	return t.savepoint(ctx, func(q querier) error {
		return (&ArtistRepository{q: q}).Upsert(ctx, artist)
	})
}

// UpsertSong implements Writer.
func (t *Tx) UpsertSong(ctx context.Context, song *Song) error {
	return t.savepoint(ctx, func(q querier) error {
		return (&SongRepository{q: q}).Upsert(ctx, song)
	})
}

// UpsertUser implements Writer.
func (t *Tx) UpsertUser(ctx context.Context, user *User) error {
	return t.savepoint(ctx, func(q querier) error {
		return (&UserRepository{q: q}).Upsert(ctx, user)
	})
}

// UpsertTime implements Writer.
func (t *Tx) UpsertTime(ctx context.Context, row *TimeRow) error {
	return t.savepoint(ctx, func(q querier) error {
		return (&TimeRepository{q: q}).Upsert(ctx, row)
	})
}

// ResolveSong implements Writer.
func (t *Tx) ResolveSong(ctx context.Context, title, artistName string, duration float64) (SongRef, bool, error) {
	var (
		ref   SongRef
		found bool
	)
	err := t.savepoint(ctx, func(q querier) error {
		var err error
		ref, found, err = (&SongRepository{q: q}).Resolve(ctx, title, artistName, duration)
		return err
	})
	return ref, found, err
}

// InsertSongPlay implements Writer.
func (t *Tx) InsertSongPlay(ctx context.Context, play *SongPlay) error {
	return t.savepoint(ctx, func(q querier) error {
		return (&SongPlayRepository{q: q}).Insert(ctx, play)
	})
}

// Commit makes the file's writes durable.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	return nil
}

// Rollback discards the file's writes. Rolling back a finished transaction
// is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rolling back transaction: %w", classify(err))
	}
	return nil
}
