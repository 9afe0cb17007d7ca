package prefs

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the prefs directory and reloads stores written by other processes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	accessor *Accessor
	logger   *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex
	running  bool

	onReload func(store string)
}

// NewWatcher creates a watcher for the accessor's directory.
func NewWatcher(accessor *Accessor, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		accessor: accessor,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// SetReloadCallback sets a function called after a store file changed on disk.
func (w *Watcher) SetReloadCallback(fn func(store string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start begins watching. Memory-only accessors have nothing to watch.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := w.accessor.Dir()
	if dir == "" {
		close(w.stopped)
		return nil
	}
	// Watch the directory: store files are replaced by rename, not written in place.
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()
	w.logger.Debug("prefs watcher started", "dir", dir)
	return nil
}

// watch is the main watch loop.
func (w *Watcher) watch() {
	defer close(w.stopped)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			name := storeNameFromPath(event.Name)
			if name == "" {
				continue
			}

			if err := w.accessor.Reload(name); err != nil {
				w.logger.Warn("failed to reload store", "store", name, "error", err)
				continue
			}

			w.mu.Lock()
			fn := w.onReload
			w.mu.Unlock()
			if fn != nil {
				fn(name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("prefs watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}
