package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInventoryPollInterval is how often the inventory file is checked.
const DefaultInventoryPollInterval = 500 * time.Millisecond

// InventoryWatcher watches the widget surface inventory for placement changes.
// Newly placed widgets draw from storage once the callback refreshes them.
type InventoryWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	clock  clockwork.Clock

	// Path to watch
	inventoryPath string

	// Last known modification time
	lastModTime time.Time

	// Polling interval
	pollInterval time.Duration

	// Callback for changes
	onChangeCallback func()

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewInventoryWatcher creates a new InventoryWatcher for the given inventory file path.
func NewInventoryWatcher(inventoryPath string, clock clockwork.Clock, logger *slog.Logger) *InventoryWatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryWatcher{
		logger:        logger,
		clock:         clock,
		inventoryPath: inventoryPath,
		pollInterval:  DefaultInventoryPollInterval,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *InventoryWatcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback to invoke when the inventory changes.
func (w *InventoryWatcher) SetChangeCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins watching the inventory file for changes.
func (w *InventoryWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true

	// Get initial modification time
	if info, err := os.Stat(w.inventoryPath); err == nil {
		w.lastModTime = info.ModTime()
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.watchLoop(ctx, interval, stopCh, doneCh)

	w.logger.Debug("inventory watcher started", "path", w.inventoryPath, "interval", interval)
	return nil
}

// Stop stops watching the inventory file.
func (w *InventoryWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	// Wait for goroutine to finish
	<-doneCh
	w.logger.Debug("inventory watcher stopped")
}

// watchLoop is the main polling loop.
func (w *InventoryWatcher) watchLoop(ctx context.Context, interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := w.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.Chan():
			w.checkForChanges()
		}
	}
}

// checkForChanges checks if the inventory file has been modified or removed.
func (w *InventoryWatcher) checkForChanges() {
	w.mu.RLock()
	callback := w.onChangeCallback
	lastModTime := w.lastModTime
	w.mu.RUnlock()

	var modTime time.Time
	info, err := os.Stat(w.inventoryPath)
	switch {
	case err == nil:
		modTime = info.ModTime()
	case os.IsNotExist(err):
		// Removed inventory: every widget is gone
	default:
		w.logger.Debug("failed to stat inventory file", "path", w.inventoryPath, "error", err)
		return
	}

	if modTime.Equal(lastModTime) {
		return
	}

	w.mu.Lock()
	w.lastModTime = modTime
	w.mu.Unlock()

	w.logger.Debug("inventory changed", "path", w.inventoryPath, "modTime", modTime)

	if callback != nil {
		callback()
	}
}
