// Package selector is the boundary to the central registry the control plane
// consults when dispatching transfers to data-plane nodes.
package selector

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrConflict        = errors.New("selector: instance already registered")
	ErrNotFound        = errors.New("selector: instance not found")
	ErrInvalidInstance = errors.New("selector: invalid instance")
)

// Registry stores node instances by id.
type Registry interface {
	AddInstance(ctx context.Context, inst NodeInstance) error
	Unregister(ctx context.Context, id string) error
	ListInstances(ctx context.Context, filter Filter) ([]NodeInstance, error)
}

// HealthChecker is implemented by registries backed by a remote store.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// MemoryRegistry keeps instances in process memory.
type MemoryRegistry struct {
	mu    sync.RWMutex
	items map[string]NodeInstance
}

// NewMemoryRegistry creates an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{items: make(map[string]NodeInstance)}
}

// AddInstance stores inst; an existing id is a conflict, never an overwrite.
func (r *MemoryRegistry) AddInstance(_ context.Context, inst NodeInstance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[inst.ID]; ok {
		return ErrConflict
	}
	r.items[inst.ID] = inst.Clone()
	return nil
}

func (r *MemoryRegistry) Unregister(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// ListInstances returns matching instances ordered by id.
func (r *MemoryRegistry) ListInstances(_ context.Context, filter Filter) ([]NodeInstance, error) {
	r.mu.RLock()
	out := make([]NodeInstance, 0, len(r.items))
	for _, inst := range r.items {
		if filter.Matches(inst) {
			out = append(out, inst.Clone())
		}
	}
	r.mu.RUnlock()
	sortByID(out)
	return out, nil
}

func sortByID(list []NodeInstance) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
}
