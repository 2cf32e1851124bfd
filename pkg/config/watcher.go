package config

import (
	"os"
	"slices"
	"sync"
	"time"
)

// WatchInterval is the default interval for file watching.
const WatchInterval = 2 * time.Second

// WatchEvent represents a file change event.
type WatchEvent struct {
	Path  string
	Type  string // "modified", "deleted"
	Error error
}

type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

// Watcher polls a set of configuration files and reports changes.
type Watcher struct {
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{} // signals goroutine exit
	eventCh  chan WatchEvent
	mu       sync.Mutex
	running  bool
	files    map[string]fileState
}

// NewWatcher creates a watcher for paths. A zero interval selects
// WatchInterval.
func NewWatcher(interval time.Duration, paths ...string) *Watcher {
	if interval <= 0 {
		interval = WatchInterval
	}
	w := &Watcher{
		interval: interval,
		eventCh:  make(chan WatchEvent, 10),
	}
	w.SetPaths(paths...)
	return w
}

// SetPaths replaces the watched files, recording their current state so
// only later changes are reported. Call it after a reload that changed the
// set of included files.
func (w *Watcher) SetPaths(paths ...string) {
	files := make(map[string]fileState, len(paths))
	for _, p := range paths {
		files[p] = stat(p)
	}
	w.mu.Lock()
	w.files = files
	w.mu.Unlock()
}

// Paths returns the watched files, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return sortedKeys(w.files)
}

// Start begins watching for file changes.
func (w *Watcher) Start() <-chan WatchEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return w.eventCh
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	// Pass channels to avoid race on struct fields
	go w.watchLoop(w.stopCh, w.doneCh)

	return w.eventCh
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}

	close(w.stopCh)
	w.running = false
	doneCh := w.doneCh
	w.mu.Unlock()

	// Wait outside lock for goroutine to exit
	<-doneCh
}

func (w *Watcher) watchLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			for _, ev := range w.poll() {
				select {
				case w.eventCh <- ev:
				case <-stopCh:
					return
				}
			}
		}
	}
}

// poll compares the watched files against their recorded state.
func (w *Watcher) poll() []WatchEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []WatchEvent
	for _, path := range sortedKeys(w.files) {
		prev := w.files[path]
		cur := stat(path)
		if cur == prev {
			continue
		}
		w.files[path] = cur
		typ := "modified"
		if !cur.exists {
			typ = "deleted"
		}
		events = append(events, WatchEvent{Path: path, Type: typ})
	}
	return events
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
}

func sortedKeys(m map[string]fileState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
