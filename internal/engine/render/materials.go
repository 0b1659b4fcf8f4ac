package render

import (
	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/texture"
)

// handleRegistry is the part of texture.Registry the residency tracker needs.
type handleRegistry interface {
	Acquire(t *texture.Texture) uint64
	Release(t *texture.Texture)
	Handle(t *texture.Texture) (uint64, bool)
}

// residency keeps a texture resident exactly while some material samples it.
// Each material holds one reference per sampled slot.
type residency struct {
	reg  handleRegistry
	held map[uint32][scene.SlotCount]*texture.Texture
}

func newResidency(reg handleRegistry) *residency {
	return &residency{reg: reg, held: make(map[uint32][scene.SlotCount]*texture.Texture)}
}

// sync brings the references held for m in line with the slots it samples.
// New textures are acquired before old ones are released so a texture that
// stays in use is never evicted in between.
func (r *residency) sync(m *scene.Material) {
	var want [scene.SlotCount]*texture.Texture
	for s := scene.TextureSlot(0); s < scene.SlotCount; s++ {
		if m.Samples(s) {
			want[s] = m.Textures[s]
		}
	}

	prev := r.held[m.ID]
	for _, t := range want {
		if t != nil {
			r.reg.Acquire(t)
		}
	}
	for _, t := range prev {
		if t != nil {
			r.reg.Release(t)
		}
	}

	if want == ([scene.SlotCount]*texture.Texture{}) {
		delete(r.held, m.ID)
		return
	}
	r.held[m.ID] = want
}

// syncAll syncs every material and drops references held for IDs that no
// longer exist.
func (r *residency) syncAll(materials []*scene.Material) {
	for _, m := range materials {
		r.sync(m)
	}
	for id := range r.held {
		if int(id) >= len(materials) {
			r.drop(id)
		}
	}
}

func (r *residency) drop(id uint32) {
	for _, t := range r.held[id] {
		if t != nil {
			r.reg.Release(t)
		}
	}
	delete(r.held, id)
}

// releaseAll drops every reference.
func (r *residency) releaseAll() {
	for id := range r.held {
		r.drop(id)
	}
}

// Handle implements batch.HandleSource.
func (r *residency) Handle(t *texture.Texture) (uint64, bool) {
	return r.reg.Handle(t)
}
