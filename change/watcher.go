package change

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher is the filesystem-watcher alternative to polling-based hash
// detection (spec §6.4's "either a diff-providing source control adapter or
// a filesystem watcher"), grounded on the teacher ecosystem's
// MangleWatcher (internal/core/mangle_watcher.go): an fsnotify.Watcher feeding
// a debounce map drained by a ticker, so a burst of saves from one edit
// collapses into a single ChangeSet entry per file.
type Watcher struct {
	fsw         *fsnotify.Watcher
	log         *zap.Logger
	root        string
	debounce    time.Duration
	mu          sync.Mutex
	pending     map[string]fsnotify.Op
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewWatcher creates a Watcher rooted at root. Call Add to begin watching
// directories before Start.
func NewWatcher(root string, log *zap.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fsw:      fsw,
		log:      log,
		root:     root,
		debounce: debounce,
		pending:  map[string]fsnotify.Op{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Add registers a directory (non-recursively, matching fsnotify's own
// semantics) to watch.
func (w *Watcher) Add(dir string) error {
	return w.fsw.Add(dir)
}

// Start runs the debounce loop in a goroutine until ctx is done or Stop is
// called; emit is invoked with the accumulated, deduplicated ChangeSet on
// each tick of the fixed debounce interval at which at least one event was
// recorded since the previous emission.
func (w *Watcher) Start(ctx context.Context, emit func(ChangeSet)) {
	go w.run(ctx, emit)
}

// Stop halts the debounce loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.log.Warn("change: error closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context, emit func(ChangeSet)) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.record(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("change: watcher error", zap.Error(err))
		case <-ticker.C:
			if cs, ok := w.drain(); ok {
				emit(cs)
			}
		}
	}
}

func (w *Watcher) record(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = w.pending[rel] | event.Op
}

func (w *Watcher) drain() (ChangeSet, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return ChangeSet{}, false
	}
	var cs ChangeSet
	for path, op := range w.pending {
		switch {
		case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
			cs.Deleted = append(cs.Deleted, path)
		case op&fsnotify.Create != 0:
			cs.Added = append(cs.Added, path)
		case op&fsnotify.Write != 0:
			cs.Modified = append(cs.Modified, path)
		}
	}
	w.pending = map[string]fsnotify.Op{}
	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	return cs, true
}
