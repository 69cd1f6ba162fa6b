package scrape

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps source identifiers to their Extractor implementations.
// Concrete sources register themselves at wiring time; the orchestrator
// resolves extractors through the registry and depends only on the
// Extractor interface.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register adds an extractor under its source ID. Re-registering an ID is a
// wiring bug and returns an error.
func (r *Registry) Register(id string, extractor Extractor) error {
	if id == "" {
		return fmt.Errorf("source id is required")
	}
	if extractor == nil {
		return fmt.Errorf("extractor for %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.extractors[id]; exists {
		return fmt.Errorf("source %q already registered", id)
	}
	r.extractors[id] = extractor
	return nil
}

// Lookup resolves an extractor by source ID.
func (r *Registry) Lookup(id string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	extractor, ok := r.extractors[id]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", id, ErrUnknownSource)
	}
	return extractor, nil
}

// Sources returns the registered source IDs in sorted order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.extractors))
	for id := range r.extractors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
