package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/docrow/internal/config"
)

var (
	// ErrUnknownSourceKind is returned by OpenSource for unregistered kinds.
	ErrUnknownSourceKind = errors.New("unknown source kind")

	// ErrUnknownDestinationKind is returned by OpenDestination for unregistered kinds.
	ErrUnknownDestinationKind = errors.New("unknown destination kind")
)

// SourceFactory builds a Source from configuration.
type SourceFactory func(ctx context.Context, cfg *config.Config) (Source, error)

// DestinationFactory builds a Destination from configuration.
type DestinationFactory func(ctx context.Context, cfg *config.Config) (Destination, error)

var (
	sources      = make(map[string]SourceFactory)
	destinations = make(map[string]DestinationFactory)
	registryMu   sync.RWMutex
)

// RegisterSource adds a source kind. Endpoint packages call it from init.
// Panics if the kind is already registered.
func RegisterSource(kind string, f SourceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := sources[kind]; exists {
		panic(fmt.Sprintf("source already registered: %s", kind))
	}
	sources[kind] = f
}

// RegisterDestination adds a destination kind.
// Panics if the kind is already registered.
func RegisterDestination(kind string, f DestinationFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := destinations[kind]; exists {
		panic(fmt.Sprintf("destination already registered: %s", kind))
	}
	destinations[kind] = f
}

// OpenSource builds the source selected by cfg.Source.Kind.
func OpenSource(ctx context.Context, cfg *config.Config) (Source, error) {
	registryMu.RLock()
	f, ok := sources[cfg.Source.Kind]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownSourceKind, cfg.Source.Kind, strings.Join(SourceKinds(), ", "))
	}
	return f(ctx, cfg)
}

// OpenDestination builds the destination selected by cfg.Destination.Kind.
func OpenDestination(ctx context.Context, cfg *config.Config) (Destination, error) {
	registryMu.RLock()
	f, ok := destinations[cfg.Destination.Kind]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownDestinationKind, cfg.Destination.Kind, strings.Join(DestinationKinds(), ", "))
	}
	return f(ctx, cfg)
}

// SourceKinds returns the registered source kinds, sorted.
func SourceKinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(sources))
	for k := range sources {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DestinationKinds returns the registered destination kinds, sorted.
func DestinationKinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(destinations))
	for k := range destinations {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// unregister removes a kind from both registries.
// Primarily useful for testing.
func unregister(kind string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(sources, kind)
	delete(destinations, kind)
}
