package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/logger"
)

// Watcher bridges OS-level filesystem notifications into incremental
// scans, per spec §4.9. Grounded on the teacher's fsnotify-backed
// FileMonitor (`scannermodule/scanner/file_monitor.go`), generalized to
// this spec's per-library debounce + longest-prefix-match routing.
type Watcher struct {
	Orchestrator *Orchestrator
	Store        *database.Store

	DebounceWindow time.Duration
	BatchSize      int

	fsWatcher *fsnotify.Watcher

	mu       sync.Mutex
	roots    map[string]string // library root path -> library id
	pending  map[string]map[string]struct{} // library id -> set of changed paths
	timers   map[string]*time.Timer
}

func NewWatcher(orch *Orchestrator, store *database.Store, debounce time.Duration, batchSize int) (*Watcher, error) {
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	if batchSize < 1 {
		batchSize = 256
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		Orchestrator:   orch,
		Store:          store,
		DebounceWindow: debounce,
		BatchSize:      batchSize,
		fsWatcher:      fsW,
		roots:          make(map[string]string),
		pending:        make(map[string]map[string]struct{}),
		timers:         make(map[string]*time.Timer),
	}, nil
}

// WatchLibrary adds a library's root to the recursive watch set.
func (w *Watcher) WatchLibrary(lib database.Library) error {
	w.mu.Lock()
	w.roots[filepath.Clean(lib.Path)] = lib.ID
	w.mu.Unlock()
	return w.addRecursive(lib.Path)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if watchErr := w.fsWatcher.Add(path); watchErr != nil {
				logger.Warn("failed to watch directory", []logger.Field{
					logger.String("path", path), logger.Err("cause", watchErr),
				})
			}
		}
		return nil
	})
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.fsWatcher.Close()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem watcher error", []logger.Field{logger.Err("cause", err)})
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	libraryID, ok := w.ownerForPath(event.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	set, exists := w.pending[libraryID]
	if !exists {
		set = make(map[string]struct{})
		w.pending[libraryID] = set
	}
	set[event.Name] = struct{}{}

	if timer, exists := w.timers[libraryID]; exists {
		timer.Stop()
	}
	w.timers[libraryID] = time.AfterFunc(w.DebounceWindow, func() {
		w.flush(ctx, libraryID)
	})
	w.mu.Unlock()
}

// ownerForPath maps a changed path to its owning library by longest-prefix
// match on the watched roots, per spec §4.9.
func (w *Watcher) ownerForPath(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	bestRoot := ""
	bestLibraryID := ""
	for root, libraryID := range w.roots {
		if hasPrefix(path, root) && len(root) > len(bestRoot) {
			bestRoot = root
			bestLibraryID = libraryID
		}
	}
	return bestLibraryID, bestRoot != ""
}

func (w *Watcher) flush(ctx context.Context, libraryID string) {
	w.mu.Lock()
	set := w.pending[libraryID]
	delete(w.pending, libraryID)
	delete(w.timers, libraryID)
	w.mu.Unlock()

	if len(set) == 0 {
		return
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lib, err := w.Store.GetLibrary(libraryID)
	if err != nil {
		logger.Warn("watcher: library lookup failed", []logger.Field{logger.String("library_id", libraryID), logger.Err("cause", err)})
		return
	}

	for start := 0; start < len(paths); start += w.BatchSize {
		end := start + w.BatchSize
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[start:end]
		if err := w.Orchestrator.ScanIncremental(ctx, lib, chunk); err != nil {
			logger.Warn("watcher: incremental scan chunk failed", []logger.Field{
				logger.String("library_id", libraryID), logger.Err("cause", err),
			})
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
