package frame

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("frame not found")

// Registry owns all live frames and issues their identifiers.
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	frames map[uint64]*Frame
}

func NewRegistry() *Registry {
	return &Registry{frames: make(map[uint64]*Frame)}
}

// Register creates a frame for the given origin and committed URL.
// parentID is 0 for a top-level frame; a non-zero parent must be live.
func (r *Registry) Register(origin, url string, parentID uint64) (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parentID != 0 {
		if _, ok := r.frames[parentID]; !ok {
			return nil, ErrNotFound
		}
	}

	r.nextID++
	f := &Frame{
		id:       r.nextID,
		origin:   origin,
		url:      url,
		parentID: parentID,
	}
	r.frames[f.id] = f
	return f, nil
}

// Get returns the live frame for id, or nil when it has been torn down.
func (r *Registry) Get(id uint64) *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames[id]
}

// Remove tears a frame down. Outstanding Refs resolve to nil afterwards.
func (r *Registry) Remove(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.frames[id]; !ok {
		return ErrNotFound
	}
	delete(r.frames, id)
	return nil
}

// List returns the live frames in unspecified order.
func (r *Registry) List() []*Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Frame, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f)
	}
	return out
}

// Ref returns a weak handle to the frame with the given id. The handle is
// valid to resolve at any time, including after teardown.
func (r *Registry) Ref(id uint64) Ref {
	return Ref{registry: r, id: id}
}

// Ref is a weak reference to a frame: it never keeps the frame alive and
// resolves to nil once the frame is gone.
type Ref struct {
	registry *Registry
	id       uint64
}

// ID returns the referenced frame id without resolving liveness.
func (r Ref) ID() uint64 { return r.id }

// Resolve returns the live frame, or nil when it has been torn down or the
// ref is zero-valued.
func (r Ref) Resolve() *Frame {
	if r.registry == nil {
		return nil
	}
	return r.registry.Get(r.id)
}
