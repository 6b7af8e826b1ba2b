package viewer

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a set of input files and reports when any of them is
// rewritten, so the viewer can reload the volume.
type Watcher struct {
	mu       sync.Mutex
	paths    []string
	baseline map[string]time.Time
	interval time.Duration
	stopCh   chan struct{}
	onChange func(changed []string)
}

// NewWatcher records the current modification times of paths.
func NewWatcher(interval time.Duration, paths ...string) (*Watcher, error) {
	w := &Watcher{
		paths:    paths,
		baseline: make(map[string]time.Time, len(paths)),
		interval: interval,
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		w.baseline[p] = info.ModTime()
	}
	return w, nil
}

// OnChange sets the callback invoked with the changed paths. It runs on the
// watcher goroutine.
func (w *Watcher) OnChange(callback func(changed []string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop ends polling.
func (w *Watcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *Watcher) watchLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			changed := w.Check()
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if len(changed) > 0 && cb != nil {
				cb(changed)
			}
		}
	}
}

// Check returns the paths modified since the last check and moves the
// baseline forward. Files that disappeared are skipped until they return.
func (w *Watcher) Check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(w.baseline[p]) {
			w.baseline[p] = info.ModTime()
			changed = append(changed, p)
		}
	}
	return changed
}
