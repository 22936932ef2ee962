// Package watch re-runs verification when proof files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"n3proof/internal/logging"
)

// Handler receives the files that changed in one settled batch, sorted.
type Handler func(ctx context.Context, changed []string)

var errClosed = errors.New("watcher closed")

// Extensions are the file suffixes picked up inside watched directories.
var Extensions = []string{".nq", ".nt"}

// Watcher watches proof files, or directories of them, and calls its
// Handler once a burst of writes has been quiet for the debounce window.
// Parent directories are watched rather than the files themselves so that
// editors that save by rename are still seen.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	files       map[string]bool // explicitly named files
	dirs        map[string]bool // directories watched for any proof file
	debounceMap map[string]time.Time
	debounceDur time.Duration
	onChange    Handler
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Batches       int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// New creates a Watcher over paths. A path naming a directory matches every
// file in it with one of Extensions.
func New(paths []string, debounce time.Duration, onChange Handler) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("nil change handler")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		files:       make(map[string]bool),
		dirs:        make(map[string]bool),
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		onChange:    onChange,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = fw
	return w, nil
}

// Start begins watching. It is non-blocking; events are handled on a
// background goroutine until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.watcher == nil {
		w.mu.Unlock()
		return errClosed
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.watchedDirs() {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Lock()
			w.running = false
			if cerr := w.watcher.Close(); cerr != nil {
				logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", cerr)
			}
			w.watcher = nil
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.Watch("Watching directory: %s", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) watchedDirs() []string {
	set := make(map[string]bool)
	for f := range w.files {
		set[filepath.Dir(f)] = true
	}
	for d := range w.dirs {
		set[d] = true
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 5
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	if tick < 5*time.Millisecond {
		tick = 5 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("Context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents(ctx)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	if w.files[path] {
		return true
	}
	if !w.dirs[filepath.Dir(path)] {
		return false
	}
	for _, ext := range Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if !w.matches(path) {
		return
	}
	logging.WatchDebug("%s event for %s", event.Op, path)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventTime = time.Now()
	w.debounceMap[path] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents fires the handler once every pending path has
// been quiet for the debounce window.
func (w *Watcher) processDebouncedEvents(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, last := range w.debounceMap {
		if now.Sub(last) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	changed := make([]string, 0, len(w.debounceMap))
	for path := range w.debounceMap {
		changed = append(changed, path)
	}
	w.debounceMap = make(map[string]time.Time)
	w.stats.Batches++
	w.mu.Unlock()

	sort.Strings(changed)
	logging.Watch("Change settled in %d file(s)", len(changed))
	w.onChange(ctx, changed)
}
