package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangePut indicates keys were written.
	ChangePut ChangeType = iota
	// ChangeRemove indicates keys were removed.
	ChangeRemove
	// ChangeClear indicates a store was cleared.
	ChangeClear
	// ChangeReload indicates a store was re-read after an external write.
	ChangeReload
)

// String returns the name of the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangePut:
		return "put"
	case ChangeRemove:
		return "remove"
	case ChangeClear:
		return "clear"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type  ChangeType
	Store string
	Keys  []string
}

// Errors
var (
	ErrClosed      = prefsError("prefs accessor is closed")
	ErrInvalidName = prefsError("invalid store name")
)

type prefsError string

func (e prefsError) Error() string {
	return string(e)
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidName checks that name can be used as a store name (and file name).
func ValidName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Accessor is the process-wide registry of named stores rooted at a directory.
// An Accessor with an empty directory keeps everything in memory.
type Accessor struct {
	mu         sync.Mutex
	dir        string
	stores     map[string]*Store
	timers     map[string]*time.Timer
	flushDelay time.Duration
	logger     *slog.Logger

	subscribers []chan ChangeEvent
	closed      bool
}

// NewAccessor creates an Accessor storing one file per store in dir.
// The directory is created if needed. If dir is empty, stores are memory-only.
func NewAccessor(dir string, logger *slog.Logger) (*Accessor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create prefs directory %s: %w", dir, err)
		}
	}
	return &Accessor{
		dir:    dir,
		stores: make(map[string]*Store),
		timers: make(map[string]*time.Timer),
		logger: logger,
	}, nil
}

// Dir returns the directory holding the store files ("" for memory-only).
func (a *Accessor) Dir() string {
	return a.dir
}

// SetFlushDelay sets how long writes may stay in memory before reaching disk.
// Zero (the default) writes synchronously inside Put, Remove and Clear.
func (a *Accessor) SetFlushDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushDelay = d
}

// Open returns the named store, creating it if it does not exist yet.
func (a *Accessor) Open(name string) (*Store, error) {
	return a.store(name, true)
}

// Lookup returns the named store, or nil if it was never created.
func (a *Accessor) Lookup(name string) (*Store, error) {
	return a.store(name, false)
}

func (a *Accessor) store(name string, create bool) (*Store, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if s, ok := a.stores[name]; ok {
		return s, nil
	}

	var p *filePersistence
	if a.dir != "" {
		p = newFilePersistence(a.dir, name)
	}
	if !create && (p == nil || !p.exists()) {
		return nil, nil
	}

	s := newStore(name, p)
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	a.stores[name] = s
	return s, nil
}

// Put writes values into the named store. Last writer wins per key.
func (a *Accessor) Put(name string, values map[string]Value) error {
	s, err := a.Open(name)
	if err != nil {
		return err
	}
	s.put(values)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a.notifyChange(ChangeEvent{Type: ChangePut, Store: name, Keys: keys})

	return a.schedule(s)
}

// Get returns the value under key. ok is false if the key is absent or the
// store was never created. Reading never creates a store.
func (a *Accessor) Get(name, key string) (Value, bool, error) {
	s, err := a.Lookup(name)
	if err != nil || s == nil {
		return Value{}, false, err
	}
	v, ok := s.Get(key)
	return v, ok, nil
}

// GetString returns the string under key, or def if absent or not a string.
func (a *Accessor) GetString(name, key, def string) (string, error) {
	v, ok, err := a.Get(name, key)
	if err != nil {
		return def, err
	}
	if s, isString := v.AsString(); ok && isString {
		return s, nil
	}
	return def, nil
}

// GetInt64 returns the integer under key, or def if absent or not an int64.
func (a *Accessor) GetInt64(name, key string, def int64) (int64, error) {
	v, ok, err := a.Get(name, key)
	if err != nil {
		return def, err
	}
	if i, isInt := v.AsInt64(); ok && isInt {
		return i, nil
	}
	return def, nil
}

// GetBool returns the boolean under key, or def if absent or not a bool.
func (a *Accessor) GetBool(name, key string, def bool) (bool, error) {
	v, ok, err := a.Get(name, key)
	if err != nil {
		return def, err
	}
	if b, isBool := v.AsBool(); ok && isBool {
		return b, nil
	}
	return def, nil
}

// Snapshot returns a copy of every entry in the named store.
// A store that was never created yields an empty map.
func (a *Accessor) Snapshot(name string) (map[string]Value, error) {
	s, err := a.Lookup(name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return map[string]Value{}, nil
	}
	return s.Snapshot(), nil
}

// Remove deletes keys from the named store.
func (a *Accessor) Remove(name string, keys ...string) error {
	s, err := a.Lookup(name)
	if err != nil || s == nil || len(keys) == 0 {
		return err
	}
	s.remove(keys)
	a.notifyChange(ChangeEvent{Type: ChangeRemove, Store: name, Keys: keys})
	return a.schedule(s)
}

// Clear removes every key from the named store.
func (a *Accessor) Clear(name string) error {
	s, err := a.Lookup(name)
	if err != nil || s == nil {
		return err
	}
	s.clear()
	a.notifyChange(ChangeEvent{Type: ChangeClear, Store: name})
	return a.schedule(s)
}

// Reload re-reads the named store from disk if it is open.
// Stores that are not open yet are read lazily on first access.
func (a *Accessor) Reload(name string) error {
	a.mu.Lock()
	s, ok := a.stores[name]
	closed := a.closed
	a.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return nil
	}

	changed, err := s.reload()
	if err != nil {
		return err
	}
	if changed {
		a.logger.Debug("store reloaded from disk", "store", name)
		a.notifyChange(ChangeEvent{Type: ChangeReload, Store: name})
	}
	return nil
}

// Names returns the names of all stores, open or on disk, sorted.
func (a *Accessor) Names() ([]string, error) {
	seen := make(map[string]bool)

	a.mu.Lock()
	for name := range a.stores {
		seen[name] = true
	}
	dir := a.dir
	a.mu.Unlock()

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if name := storeNameFromPath(e.Name()); name != "" {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// schedule persists the store now or after the flush delay.
func (a *Accessor) schedule(s *Store) error {
	a.mu.Lock()
	delay := a.flushDelay
	if delay <= 0 {
		a.mu.Unlock()
		return s.persist()
	}

	if _, pending := a.timers[s.name]; !pending {
		name := s.name
		a.timers[name] = time.AfterFunc(delay, func() {
			a.flushPending(name)
		})
	}
	a.mu.Unlock()
	return nil
}

// flushPending is called by the flush timer of a store.
func (a *Accessor) flushPending(name string) {
	a.mu.Lock()
	delete(a.timers, name)
	s := a.stores[name]
	a.mu.Unlock()

	if s == nil {
		return
	}
	if err := s.persist(); err != nil {
		a.logger.Warn("failed to flush store", "store", name, "error", err)
	}
}

// Flush writes every store with pending changes to disk.
func (a *Accessor) Flush() error {
	a.mu.Lock()
	for name, t := range a.timers {
		t.Stop()
		delete(a.timers, name)
	}
	stores := make([]*Store, 0, len(a.stores))
	for _, s := range a.stores {
		stores = append(stores, s)
	}
	a.mu.Unlock()

	var errs []error
	for _, s := range stores {
		if !s.Dirty() {
			continue
		}
		if err := s.persist(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe returns a channel that receives change events.
func (a *Accessor) Subscribe() <-chan ChangeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan ChangeEvent, 16)
	if a.closed {
		close(ch)
		return ch
	}
	a.subscribers = append(a.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (a *Accessor) Unsubscribe(ch <-chan ChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, sub := range a.subscribers {
		if sub == ch {
			a.subscribers = append(a.subscribers[:i], a.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close flushes pending writes and closes all subscriber channels.
func (a *Accessor) Close() error {
	err := a.Flush()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return err
	}
	a.closed = true

	for _, ch := range a.subscribers {
		close(ch)
	}
	a.subscribers = nil
	return err
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (a *Accessor) notifyChange(event ChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ch := range a.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
