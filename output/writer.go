// Package output writes rendered artifacts to disk and previews them.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the advisory lock taken in the output directory.
const LockFile = ".skosdoc.lock"

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

// Writer writes files atomically below one directory. Each file is written
// to a temporary sibling and renamed into place, so readers never see a
// partial document.
type Writer struct {
	dir     string
	logger  *slog.Logger
	lock    *flock.Flock
	timeout time.Duration

	written atomic.Int64
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// WithLockTimeout bounds how long Lock waits for another run.
func WithLockTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWriter creates a writer for dir, creating the directory if needed.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	w := &Writer{
		dir:     dir,
		logger:  slog.Default(),
		lock:    flock.New(filepath.Join(dir, LockFile)),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Written returns how many files were written.
func (w *Writer) Written() int64 { return w.written.Load() }

// Lock takes the directory lock, waiting up to the lock timeout. The
// returned function releases it.
func (w *Writer) Lock(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	locked, err := w.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return func() { _ = w.lock.Unlock() }, nil
}

// WriteFile writes data to name, relative to the output directory.
// Intermediate directories are created.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(w.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	w.written.Add(1)
	w.logger.Debug("Wrote file", "path", path, "bytes", len(data))
	return path, nil
}

// WriteString is WriteFile for text.
func (w *Writer) WriteString(name, text string) (string, error) {
	return w.WriteFile(name, []byte(text))
}
