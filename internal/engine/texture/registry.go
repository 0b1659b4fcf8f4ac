package texture

import (
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Registry hands out bindless handles and keeps textures resident while at
// least one material references them. A handle stays valid only as long as
// its texture exists; destroying a texture invalidates every table that
// stored the handle.
type Registry struct {
	entries map[uint32]*residency

	handleOf     func(id uint32) uint64
	makeResident func(h uint64)
	evict        func(h uint64)
}

type residency struct {
	handle uint64
	refs   int
}

// NewRegistry returns a registry backed by ARB_bindless_texture.
func NewRegistry() *Registry {
	return newRegistry(gl.GetTextureHandleARB, gl.MakeTextureHandleResidentARB, gl.MakeTextureHandleNonResidentARB)
}

func newRegistry(handleOf func(uint32) uint64, makeResident, evict func(uint64)) *Registry {
	return &Registry{
		entries:      make(map[uint32]*residency),
		handleOf:     handleOf,
		makeResident: makeResident,
		evict:        evict,
	}
}

// Acquire returns the resident handle of t, creating it on first use.
// A nil texture yields handle 0.
func (r *Registry) Acquire(t *Texture) uint64 {
	if t == nil || t.ID == 0 {
		return 0
	}
	e, ok := r.entries[t.ID]
	if !ok {
		e = &residency{handle: r.handleOf(t.ID)}
		r.makeResident(e.handle)
		r.entries[t.ID] = e
	}
	e.refs++
	return e.handle
}

// Handle reports the current handle of t without taking a reference.
func (r *Registry) Handle(t *Texture) (uint64, bool) {
	if t == nil {
		return 0, false
	}
	e, ok := r.entries[t.ID]
	if !ok {
		return 0, false
	}
	return e.handle, true
}

// Release drops one reference. The handle becomes non-resident when the last
// reference goes away.
func (r *Registry) Release(t *Texture) {
	if t == nil {
		return
	}
	e, ok := r.entries[t.ID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		r.evict(e.handle)
		delete(r.entries, t.ID)
	}
}

// ReleaseAll evicts every resident handle.
func (r *Registry) ReleaseAll() {
	for id, e := range r.entries {
		r.evict(e.handle)
		delete(r.entries, id)
	}
}

// Len returns the number of resident textures.
func (r *Registry) Len() int {
	return len(r.entries)
}
