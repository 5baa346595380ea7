package collectors

import (
	"context"

	"github.com/yairfalse/vigil/pkg/types"
)

// Collector gathers the current entries for one snapshot category. A
// collector that cannot run returns an error; the engine converts that into
// a failed snapshot and continues (collection failures are never fatal).
type Collector interface {
	Category() types.Category
	Collect(ctx context.Context) ([]string, error)
}

// Registry maps categories to their collectors in collection order.
type Registry struct {
	collectors []Collector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a collector. Later registrations for the same category
// are ignored.
func (r *Registry) Register(c Collector) {
	for _, existing := range r.collectors {
		if existing.Category() == c.Category() {
			return
		}
	}
	r.collectors = append(r.collectors, c)
}

// All returns the registered collectors in registration order.
func (r *Registry) All() []Collector {
	return r.collectors
}

// Get returns the collector for a category, or nil.
func (r *Registry) Get(category types.Category) Collector {
	for _, c := range r.collectors {
		if c.Category() == category {
			return c
		}
	}
	return nil
}
