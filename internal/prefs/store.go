// Package prefs provides named, process-independent key/value stores.
//
// Each store is a JSON file in a shared directory so that other processes
// (widget renderers) can read it. Writes become visible to readers in this
// process immediately and reach the disk either synchronously or after a
// configurable flush delay. There is no atomicity across keys or stores.
package prefs

import (
	"bytes"
	"maps"
	"sort"
	"sync"
)

// Store is a single named store held in memory.
type Store struct {
	mu      sync.RWMutex
	name    string
	entries map[string]Value
	pending map[string]change // local changes not yet written to disk
	cleared bool              // a local Clear not yet written to disk

	saveMu      sync.Mutex // serialises disk writes and reloads
	persistence *filePersistence
	lastSaved   []byte
}

// change is one pending local edit of a key.
type change struct {
	value   Value
	removed bool
}

func newStore(name string, p *filePersistence) *Store {
	return &Store{
		name:        name,
		entries:     make(map[string]Value),
		pending:     make(map[string]change),
		persistence: p,
	}
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Snapshot returns a copy of all entries.
func (s *Store) Snapshot() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dirty reports whether the store has changes not yet written to disk.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty()
}

// dirty must be called with s.mu held.
func (s *Store) dirty() bool {
	return s.cleared || len(s.pending) > 0
}

func (s *Store) put(values map[string]Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.entries[k] = v
		s.pending[k] = change{value: v}
	}
}

func (s *Store) remove(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
		s.pending[k] = change{removed: true}
	}
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Value)
	s.pending = make(map[string]change)
	s.cleared = true
}

// applyChanges returns base with a pending change set applied on top.
func applyChanges(base map[string]Value, cleared bool, pending map[string]change) map[string]Value {
	out := make(map[string]Value, len(base)+len(pending))
	if !cleared {
		maps.Copy(out, base)
	}
	for k, c := range pending {
		if c.removed {
			delete(out, k)
		} else {
			out[k] = c.value
		}
	}
	return out
}

// hydrate replaces the in-memory entries with what is on disk.
// Used once when the store is first opened.
func (s *Store) hydrate() error {
	if s.persistence == nil {
		return nil
	}
	entries, data, err := s.persistence.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.lastSaved = data
	s.mu.Unlock()
	return nil
}

// persist writes the local change set into the store file. The file is
// re-read under an exclusive lock so keys written by other processes survive.
// Changes made while the save is in flight stay pending.
func (s *Store) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty() {
		s.mu.Unlock()
		return nil
	}
	pending, cleared := s.pending, s.cleared
	s.pending = make(map[string]change)
	s.cleared = false
	s.mu.Unlock()

	if s.persistence == nil {
		return nil
	}

	merged, data, err := s.persistence.update(func(disk map[string]Value) map[string]Value {
		return applyChanges(disk, cleared, pending)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Put the unsaved changes back under anything written since.
		if !s.cleared {
			for k, c := range s.pending {
				pending[k] = c
			}
			s.pending = pending
			s.cleared = cleared
		}
		return err
	}

	s.entries = applyChanges(merged, s.cleared, s.pending)
	s.lastSaved = data
	return nil
}

// reload re-reads the store file after an external write. Pending local
// changes are kept on top of what is on disk.
// Returns true if the in-memory entries changed.
func (s *Store) reload() (bool, error) {
	if s.persistence == nil {
		return false, nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	entries, data, err := s.persistence.load()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if data != nil && bytes.Equal(data, s.lastSaved) {
		return false, nil
	}

	merged := applyChanges(entries, s.cleared, s.pending)
	s.lastSaved = data
	if maps.EqualFunc(merged, s.entries, Value.Equal) {
		return false, nil
	}
	s.entries = merged
	return true, nil
}
