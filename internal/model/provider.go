// Package model defines the core data structures shared by widgetsync components.
package model

import (
	"fmt"
	"strings"
)

// Provider names a widget renderer kind. The set is closed and known at
// compile time; placed widgets always belong to exactly one provider.
type Provider string

// Known providers, in broadcast order.
const (
	ProviderStandard Provider = "standard"
	ProviderCompact  Provider = "compact"
	ProviderFull     Provider = "full"
	ProviderSmall    Provider = "small" // 1x1
	ProviderWide     Provider = "wide"  // 4x1
)

var providers = []Provider{
	ProviderStandard,
	ProviderCompact,
	ProviderFull,
	ProviderSmall,
	ProviderWide,
}

// ErrUnknownProvider is returned when a provider name is not part of the known set.
var ErrUnknownProvider = modelError("unknown provider")

// Providers returns every known provider in a fixed order.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// ParseProvider converts a name to a Provider.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// ParseProviders converts a list of names, failing on the first unknown one.
func ParseProviders(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := ParseProvider(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	for _, known := range providers {
		if p == known {
			return true
		}
	}
	return false
}

// String returns the provider name.
func (p Provider) String() string {
	return string(p)
}

// ProviderNames returns the names of the given providers.
func ProviderNames(ps []Provider) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return names
}

type modelError string

func (e modelError) Error() string {
	return string(e)
}
