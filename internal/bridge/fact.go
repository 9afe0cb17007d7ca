package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// Policy decides what happens when one copy of a fact cannot be written.
type Policy string

const (
	// PolicyBestEffort writes every target and reports all failures.
	// Targets that succeeded keep their new values.
	PolicyBestEffort Policy = "best-effort"
	// PolicyAllOrNothing stops at the first failing target and restores
	// the previous values of the targets already written.
	PolicyAllOrNothing Policy = "all-or-nothing"
)

// ErrUnknownPolicy is returned for a policy name that is not recognised.
var ErrUnknownPolicy = errors.New("unknown write policy")

// ParsePolicy converts a policy name. An empty name selects best-effort.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return PolicyBestEffort, nil
	case PolicyBestEffort, PolicyAllOrNothing:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Target is one store holding a copy of a fact.
type Target struct {
	Store  string
	Values map[string]prefs.Value
}

// Keys returns the keys written to the target, sorted.
func (t Target) Keys() []string {
	keys := make([]string, 0, len(t.Values))
	for k := range t.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fact is a logical fact persisted redundantly into several stores.
type Fact struct {
	Name    string
	Targets []Target
}

// Stores is the key/value storage the bridge writes facts into.
// prefs.Accessor satisfies it.
type Stores interface {
	Put(name string, values map[string]prefs.Value) error
	Get(name, key string) (prefs.Value, bool, error)
	Remove(name string, keys ...string) error
	Clear(name string) error
}

// TargetError records the failure to write one copy of a fact.
type TargetError struct {
	Fact  string
	Store string
	Err   error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("write %s to %s: %v", e.Fact, e.Store, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// FactWriter fans a fact out to its targets according to a Policy.
type FactWriter struct {
	stores Stores
	policy Policy
}

// NewFactWriter creates a FactWriter. An empty policy selects best-effort.
func NewFactWriter(stores Stores, policy Policy) *FactWriter {
	if policy == "" {
		policy = PolicyBestEffort
	}
	return &FactWriter{stores: stores, policy: policy}
}

// Write persists every copy of f.
func (w *FactWriter) Write(f Fact) error {
	if w.policy == PolicyAllOrNothing {
		return w.writeAll(f)
	}
	return w.writeBestEffort(f)
}

func (w *FactWriter) writeBestEffort(f Fact) error {
	var errs []error
	for _, t := range f.Targets {
		if err := w.stores.Put(t.Store, t.Values); err != nil {
			errs = append(errs, &TargetError{Fact: f.Name, Store: t.Store, Err: err})
		}
	}
	return errors.Join(errs...)
}

// previous holds what a target's keys held before a write.
type previous struct {
	store   string
	present map[string]prefs.Value
	absent  []string
}

func (w *FactWriter) writeAll(f Fact) error {
	written := make([]previous, 0, len(f.Targets))

	for _, t := range f.Targets {
		prev, err := w.capture(t)
		if err == nil {
			err = w.stores.Put(t.Store, t.Values)
		}
		if err != nil {
			errs := []error{&TargetError{Fact: f.Name, Store: t.Store, Err: err}}
			// The failing target may be partially applied too.
			if prev != nil {
				written = append(written, *prev)
			}
			errs = append(errs, w.restore(f.Name, written)...)
			return errors.Join(errs...)
		}
		written = append(written, *prev)
	}
	return nil
}

func (w *FactWriter) capture(t Target) (*previous, error) {
	prev := &previous{store: t.Store, present: make(map[string]prefs.Value)}
	for _, key := range t.Keys() {
		v, ok, err := w.stores.Get(t.Store, key)
		if err != nil {
			return nil, err
		}
		if ok {
			prev.present[key] = v
		} else {
			prev.absent = append(prev.absent, key)
		}
	}
	return prev, nil
}

// restore undoes writes in reverse order and returns any failures.
func (w *FactWriter) restore(fact string, written []previous) []error {
	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		prev := written[i]
		if len(prev.present) > 0 {
			if err := w.stores.Put(prev.store, prev.present); err != nil {
				errs = append(errs, fmt.Errorf("restore %s in %s: %w", fact, prev.store, err))
				continue
			}
		}
		if len(prev.absent) > 0 {
			if err := w.stores.Remove(prev.store, prev.absent...); err != nil {
				errs = append(errs, fmt.Errorf("restore %s in %s: %w", fact, prev.store, err))
			}
		}
	}
	return errs
}
