// Package scene holds the in-memory scene consumed by the batching pipeline:
// models and their meshes, PBR materials, the entity arena and the lights.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/lighting"
)

// Scene is the full set of renderable state. Structural edits (adding or
// removing models, materials or entities) require a renderer rebuild before
// the next frame is drawn.
type Scene struct {
	Models    []*Model
	Materials []*Material
	Entities  []Entity

	Directional lighting.DirectionalLight
	PointLights []lighting.PointLight
	SpotLights  []lighting.SpotLight

	// EnvironmentMap is the path of the equirectangular HDR panorama.
	EnvironmentMap string
}

// New returns an empty scene with a default sun.
func New() *Scene {
	return &Scene{
		Directional: lighting.DefaultDirectional(),
	}
}

// AddModel appends a model and returns its index.
func (s *Scene) AddModel(name string, meshes ...*MeshData) int {
	idx := len(s.Models)
	s.Models = append(s.Models, &Model{ID: idx, Name: name, Meshes: meshes})
	return idx
}

// AddMaterial appends a material, assigning its ID, and returns the ID.
func (s *Scene) AddMaterial(m *Material) uint32 {
	m.ID = uint32(len(s.Materials))
	s.Materials = append(s.Materials, m)
	return m.ID
}

// AddEntity appends an entity and registers it with its model.
func (s *Scene) AddEntity(e Entity) (EntityIndex, error) {
	if e.Model < 0 || e.Model >= len(s.Models) {
		return NoParent, fmt.Errorf("entity references model %d of %d", e.Model, len(s.Models))
	}
	if e.Scale == (mgl32.Vec3{}) {
		e.Scale = mgl32.Vec3{1, 1, 1}
	}
	parent := e.Parent
	e.Parent = NoParent

	idx := EntityIndex(len(s.Entities))
	s.Entities = append(s.Entities, e)
	if parent != NoParent {
		if err := s.SetParent(idx, parent); err != nil {
			s.Entities = s.Entities[:idx]
			return NoParent, err
		}
	}
	m := s.Models[e.Model]
	m.Entities = append(m.Entities, idx)
	return idx, nil
}

// RemoveEntity deletes an entity from the arena. Children are detached and
// keep their current world position. Indices above i shift down by one.
func (s *Scene) RemoveEntity(i EntityIndex) error {
	if !s.validEntity(i) {
		return fmt.Errorf("entity %d: %w", i, ErrNoEntity)
	}
	for j := range s.Entities {
		if s.Entities[j].Parent != i {
			continue
		}
		world, err := s.WorldPosition(EntityIndex(j))
		if err != nil {
			return err
		}
		s.Entities[j].Position = world
		s.Entities[j].Parent = NoParent
	}

	s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
	for j := range s.Entities {
		if s.Entities[j].Parent > i {
			s.Entities[j].Parent--
		}
	}
	s.reindexModels()
	return nil
}

// reindexModels rebuilds every model's entity list from the arena.
func (s *Scene) reindexModels() {
	for _, m := range s.Models {
		m.Entities = m.Entities[:0]
	}
	for j := range s.Entities {
		m := s.Models[s.Entities[j].Model]
		m.Entities = append(m.Entities, EntityIndex(j))
	}
}

// ResolveMaterials clamps mesh material IDs that point past the material list
// to the fallback ID. It returns the number of meshes that were remapped.
func (s *Scene) ResolveMaterials(fallback uint32) int {
	n := 0
	for _, m := range s.Models {
		for _, mesh := range m.Meshes {
			if int(mesh.MaterialID) >= len(s.Materials) {
				mesh.MaterialID = fallback
				n++
			}
		}
	}
	return n
}

// Update advances entity controllers by dt seconds and returns the entities
// whose transforms changed, including descendants of moved parents.
func (s *Scene) Update(dt float32) []EntityIndex {
	var moved []EntityIndex
	seen := make(map[EntityIndex]bool)
	for i := range s.Entities {
		if !s.Entities[i].update(dt) {
			continue
		}
		idx := EntityIndex(i)
		if !seen[idx] {
			seen[idx] = true
			moved = append(moved, idx)
		}
		for _, d := range s.Descendants(idx) {
			if !seen[d] {
				seen[d] = true
				moved = append(moved, d)
			}
		}
	}
	return moved
}

// EnabledPointLights returns indices of enabled point lights.
func (s *Scene) EnabledPointLights() []int {
	return lighting.EnabledPoints(s.PointLights)
}

// EnabledSpotLights returns indices of enabled spot lights.
func (s *Scene) EnabledSpotLights() []int {
	return lighting.EnabledSpots(s.SpotLights)
}
