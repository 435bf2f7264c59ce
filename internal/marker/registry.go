package marker

import "sync"

// Registry is the ordered set of live markers. It is owned by a Manager, not global.
type Registry struct {
	mu   sync.Mutex
	list []*Marker
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(m *Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, m)
}

// Remove drops m by identity. Removing a marker that is not present is a no-op.
func (r *Registry) Remove(m *Marker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.list {
		if e == m {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

// Markers returns a snapshot in insertion order.
func (r *Registry) Markers() []*Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*Marker, len(r.list))
	copy(cp, r.list)
	return cp
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = nil
}
