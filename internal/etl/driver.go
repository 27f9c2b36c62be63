package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/sparkify-etl/internal/db"
	"github.com/justestif/sparkify-etl/internal/discovery"
)

// Phase names.
const (
	PhaseSongs = "songs"
	PhaseLogs  = "logs"
)

// DefaultSuffix selects the input files.
const DefaultSuffix = ".json"

// Store opens the per-file unit of work.
type Store interface {
	Begin(ctx context.Context) (db.Writer, error)
}

// Phase pairs an input tree with the loader for its files.
type Phase struct {
	Name   string
	Root   string
	Suffix string
	Loader Loader
}

// Summary reports the outcome of one phase.
type Summary struct {
	Phase      string        `json:"phase"`
	Root       string        `json:"root"`
	Discovered int           `json:"discovered"`
	Processed  int           `json:"processed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
}

// MarshalJSON reports the duration as whole milliseconds in duration_ms.
func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		DurationMS int64 `json:"duration_ms"`
	}{summary(s), s.Duration.Milliseconds()})
}

// Driver runs phases in order, loading and committing one file at a time.
type Driver struct {
	store    Store
	phases   []Phase
	logger   *zap.Logger
	recorder Recorder

	mu        sync.Mutex
	summaries []Summary
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorder = r
		}
	}
}

// NewDriver creates a Driver for the given phases.
func NewDriver(store Store, phases []Phase, opts ...Option) *Driver {
	d := &Driver{
		store:    store,
		phases:   phases,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultPhases returns the song phase followed by the log phase. Songs go
// first so that log events can be matched against them.
func DefaultPhases(songRoot, logRoot, suffix string, logger *zap.Logger, recorder Recorder) []Phase {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return []Phase{
		{Name: PhaseSongs, Root: songRoot, Suffix: suffix, Loader: NewSongLoader(logger.With(zap.String("phase", PhaseSongs)), recorder)},
		{Name: PhaseLogs, Root: logRoot, Suffix: suffix, Loader: NewEventLoader(logger.With(zap.String("phase", PhaseLogs)), recorder)},
	}
}

// Summaries returns the summaries recorded so far, including the phase in
// progress.
func (d *Driver) Summaries() []Summary {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Summary, len(d.summaries))
	copy(out, d.summaries)
	return out
}

func (d *Driver) update(i int, fn func(*Summary)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.summaries[i])
}

// Run executes every phase. A file that cannot be read or parsed is rolled
// back and skipped. A database connection failure or a cancelled context
// stops the run and is returned.
func (d *Driver) Run(ctx context.Context) ([]Summary, error) {
	for _, phase := range d.phases {
		if err := d.runPhase(ctx, phase); err != nil {
			return d.Summaries(), fmt.Errorf("%s phase: %w", phase.Name, err)
		}
	}
	return d.Summaries(), nil
}

func (d *Driver) runPhase(ctx context.Context, phase Phase) error {
	start := time.Now()
	logger := d.logger.With(zap.String("phase", phase.Name))

	files, err := discovery.Find(phase.Root, phase.Suffix, discovery.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	d.mu.Lock()
	idx := len(d.summaries)
	d.summaries = append(d.summaries, Summary{
		Phase:      phase.Name,
		Root:       phase.Root,
		Discovered: len(files),
	})
	d.mu.Unlock()

	d.recorder.FileDiscovered(phase.Name, len(files))
	logger.Info("files found", zap.Int("count", len(files)), zap.String("root", phase.Root))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.processFile(ctx, phase.Loader, path)
		switch {
		case errors.Is(err, db.ErrConnection) || errors.Is(err, context.Canceled):
			d.recorder.FileFailed(phase.Name)
			d.update(idx, func(s *Summary) { s.Failed++ })
			return fmt.Errorf("processing %s: %w", path, err)
		case err != nil:
			d.recorder.FileFailed(phase.Name)
			d.update(idx, func(s *Summary) { s.Failed++ })
			logger.Error("file failed",
				zap.String("file", path),
				zap.Int("index", i+1),
				zap.Int("total", len(files)),
				zap.Error(err),
			)
		default:
			d.recorder.FileProcessed(phase.Name)
			d.update(idx, func(s *Summary) { s.Processed++ })
			logger.Info("file processed",
				zap.String("file", path),
				zap.Int("index", i+1),
				zap.Int("total", len(files)),
			)
		}
	}

	d.update(idx, func(s *Summary) { s.Duration = time.Since(start) })
	s := d.Summaries()[idx]
	logger.Info("phase complete",
		zap.Int("discovered", s.Discovered),
		zap.Int("processed", s.Processed),
		zap.Int("failed", s.Failed),
		zap.Duration("duration", s.Duration),
	)
	return nil
}

// processFile loads one file inside its own transaction.
func (d *Driver) processFile(ctx context.Context, loader Loader, path string) error {
	w, err := d.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err := loader.Load(ctx, w, path); err != nil {
		if rbErr := w.Rollback(ctx); rbErr != nil && errors.Is(rbErr, db.ErrConnection) {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return w.Commit(ctx)
}
