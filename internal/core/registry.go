package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Layout)
	registryMu sync.RWMutex
)

// Register adds a layout to the registry.
// Panics if a layout with the same key is already registered.
func Register(layout Layout) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[layout.Key]; exists {
		panic(fmt.Sprintf("layout already registered: %s", layout.Key))
	}
	registry[layout.Key] = layout
}

// Get returns a layout by key.
// Returns false if not found.
func Get(key string) (Layout, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	layout, ok := registry[key]
	return layout, ok
}

// Lookup is Get with an ErrUnknownLayout error for missing keys.
func Lookup(key string) (Layout, error) {
	layout, ok := Get(key)
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, key)
	}
	return layout, nil
}

// All returns all registered layouts sorted by key.
func All() []Layout {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Layout, 0, len(registry))
	for _, layout := range registry {
		result = append(result, layout)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// LayoutCount returns the number of registered layouts.
func LayoutCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered layouts.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Layout)
}
