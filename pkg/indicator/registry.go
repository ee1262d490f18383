package indicator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// Factory creates a fresh calculator for one series
type Factory func(series *models.BarSeries) (Calculator, error)

// Registry manages calculator factories by indicator name
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new indicator registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a factory under name
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("calculator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("calculator with name %q already registered", name)
	}

	r.factories[name] = factory
	return nil
}

// Create builds a new calculator by name for series
func (r *Registry) Create(name string, series *models.BarSeries) (Calculator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("calculator %q not found", name)
	}

	return factory(series)
}

// List returns all registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
