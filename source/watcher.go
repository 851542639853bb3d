package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 64

	defaultDebounce = 500 * time.Millisecond
)

// WatchOperation indicates the type of file operation.
type WatchOperation string

// WatchOpCreate, WatchOpModify, and WatchOpDelete enumerate the watch operations.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent reports a source file whose content changed.
type WatchEvent struct {
	Path      string
	Operation WatchOperation
}

// Watcher emits debounced change events for taxonomy source files.
// Writes that leave the content unchanged are filtered out by hash.
type Watcher struct {
	roots      []string
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events chan WatchEvent

	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher over roots for files with the given extensions.
// A zero debounce uses 500ms.
func NewWatcher(roots, extensions []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}

	return &Watcher{
		roots:      roots,
		debounce:   debounce,
		watcher:    fsw,
		logger:     logger,
		extensions: exts,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Dropped returns how many events were discarded because nobody was reading.
func (w *Watcher) Dropped() int64 {
	return w.droppedEvents.Load()
}

// Start adds watches on every root directory and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}
	go w.processEvents(ctx)

	w.logger.Info("Source watcher started",
		"roots", w.roots,
		"debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// SetHash records the content hash of a file, typically after a load.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[filepath.Clean(path)] = hash
}

func (w *Watcher) hash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	h, ok := w.hashes[path]
	return h, ok
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && base != "." && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}
		if ev, ok := w.classify(path, op); ok {
			w.sendEvent(ev)
		}
	}
}

// classify turns an accumulated fsnotify op into an event, or reports
// false when the content did not actually change.
func (w *Watcher) classify(path string, op fsnotify.Op) (WatchEvent, bool) {
	ev := WatchEvent{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("Failed to read changed file", "path", path, "error", err)
			return ev, false
		}
		w.hashMu.Lock()
		_, had := w.hashes[path]
		delete(w.hashes, path)
		w.hashMu.Unlock()
		ev.Operation = WatchOpDelete
		return ev, had || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
	}

	newHash := ContentHash(content)
	oldHash, hadHash := w.hash(path)
	if hadHash && oldHash == newHash {
		return ev, false
	}
	w.SetHash(path, newHash)

	if !hadHash {
		ev.Operation = WatchOpCreate
	} else {
		ev.Operation = WatchOpModify
	}
	return ev, true
}

func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Source changed", "path", event.Path, "op", event.Operation)
	default:
		w.droppedEvents.Add(1)
		w.logger.Warn("Dropped watch event", "path", event.Path)
	}
}
