package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RefreshTarget is asked to redraw every provider.
// bridge.Bridge satisfies it.
type RefreshTarget interface {
	ForceRefreshAll() (bool, error)
}

// Refresher periodically asks every widget provider to redraw.
// A failed refresh is logged and the next tick proceeds as usual.
type Refresher struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clockwork.Clock

	target   RefreshTarget
	interval time.Duration

	// Callback after each refresh, with the refresh error if any
	onRefresh func(err error)

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewRefresher creates a Refresher. An interval of zero disables periodic refresh.
func NewRefresher(target RefreshTarget, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Refresher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		logger:   logger,
		clock:    clock,
		target:   target,
		interval: interval,
	}
}

// SetRefreshCallback sets a function called after every refresh.
func (r *Refresher) SetRefreshCallback(callback func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRefresh = callback
}

// RefreshNow refreshes every provider immediately.
func (r *Refresher) RefreshNow() error {
	_, err := r.target.ForceRefreshAll()
	if err != nil {
		r.logger.Warn("widget refresh failed", "error", err)
	} else {
		r.logger.Debug("widgets refreshed")
	}

	r.mu.Lock()
	callback := r.onRefresh
	r.mu.Unlock()
	if callback != nil {
		callback(err)
	}
	return err
}

// Start begins the periodic refresh loop. It does nothing when the interval is zero.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running || r.interval <= 0 {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go r.loop(ctx, stopCh, doneCh)

	r.logger.Debug("periodic refresh started", "interval", r.interval)
	return nil
}

// Stop stops the refresh loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	doneCh := r.doneCh
	r.mu.Unlock()

	<-doneCh
	r.logger.Debug("periodic refresh stopped")
}

func (r *Refresher) loop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.Chan():
			_ = r.RefreshNow()
		}
	}
}
