package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store's config file when it changes on disk.
// Editors typically replace files on save (write to temp, rename), so
// the watch is placed on the directory and filtered by name, and
// events are debounced before the reload.
type Watcher struct {
	store    *Store
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadDebounce sets the quiet period before reloading.
func WithReloadDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for the store's attached config file.
// Returns nil with no error when the store has no file.
func NewWatcher(store *Store, opts ...WatcherOption) (*Watcher, error) {
	if store.FilePath() == "" {
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    store,
		fsw:      fsw,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(store.FilePath())
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.seq++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// loop consumes fsnotify events until Close.
func (w *Watcher) loop() {
	defer w.wg.Done()

	target := filepath.Clean(w.store.FilePath())
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; the next event still reloads.
		case <-w.done:
			return
		}
	}
}

// scheduleReload arms (or re-arms) the reload timer.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.seq++
	cur := w.seq

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed || w.seq != cur {
			w.mu.Unlock()
			return
		}
		w.timer = nil
		w.mu.Unlock()

		_ = w.store.ReloadFile()
	})
}
