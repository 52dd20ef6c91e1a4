package workflow

import (
	"fmt"
)

// Registry maps each Kind to its executor. It is populated at startup and
// read-only afterwards, so it needs no locking.
type Registry struct {
	executors map[Kind]Executor
}

// NewRegistry creates a registry from the given executors.
// Registering two executors for the same kind is a wiring bug.
func NewRegistry(executors ...Executor) (*Registry, error) {
	m := make(map[Kind]Executor, len(executors))
	for _, e := range executors {
		if _, dup := m[e.Kind()]; dup {
			return nil, fmt.Errorf("duplicate executor for kind %s", e.Kind())
		}
		m[e.Kind()] = e
	}
	return &Registry{executors: m}, nil
}

// Lookup returns the executor for kind.
func (r *Registry) Lookup(kind Kind) (Executor, bool) {
	e, ok := r.executors[kind]
	return e, ok
}

// Kinds returns the registered kinds in canonical order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	return SortCanonical(kinds)
}
