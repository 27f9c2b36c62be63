// Package discovery locates input files on the local filesystem.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Option configures Find.
type Option func(*walker)

// WithLogger sets the logger that reports skipped paths.
func WithLogger(logger *zap.Logger) Option {
	return func(w *walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

type walker struct {
	root   string
	suffix string
	logger *zap.Logger
	files  []string
}

// visit collects matching files. Errors below the root are logged and the
// offending entry is skipped; an error on the root itself is returned.
func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		if path == w.root {
			return err
		}
		w.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
		if d != nil && d.IsDir() {
			return fs.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() {
		return nil
	}
	if strings.HasSuffix(d.Name(), w.suffix) {
		w.files = append(w.files, path)
	}
	return nil
}

// Find walks root recursively and returns the absolute paths of all regular
// files whose name ends with suffix. Results are sorted so that repeated runs
// over the same tree visit files in the same order. An empty suffix matches
// every file.
func Find(root, suffix string, opts ...Option) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	w := &walker{root: absRoot, suffix: suffix, logger: zap.NewNop(), files: []string{}}
	for _, opt := range opts {
		opt(w)
	}

	if err := filepath.WalkDir(absRoot, w.visit); err != nil {
		return nil, fmt.Errorf("walking %s: %w", absRoot, err)
	}

	sort.Strings(w.files)
	return w.files, nil
}
