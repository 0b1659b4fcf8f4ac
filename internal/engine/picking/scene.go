package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/scene"
)

// MeshBounds returns the local bounds of a mesh. A mesh without vertices
// yields an empty box at the origin.
func MeshBounds(m *scene.MeshData) AABB {
	if len(m.Positions) == 0 {
		return AABB{}
	}
	box := AABB{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			box.Min[k] = min(box.Min[k], p[k])
			box.Max[k] = max(box.Max[k], p[k])
		}
	}
	return box
}

// ModelBounds returns the union of a model's mesh bounds.
func ModelBounds(m *scene.Model) AABB {
	var box AABB
	first := true
	for _, mesh := range m.Meshes {
		if len(mesh.Positions) == 0 {
			continue
		}
		b := MeshBounds(mesh)
		if first {
			box, first = b, false
			continue
		}
		for k := 0; k < 3; k++ {
			box.Min[k] = min(box.Min[k], b.Min[k])
			box.Max[k] = max(box.Max[k], b.Max[k])
		}
	}
	return box
}

// Hit is the nearest entity struck by a ray.
type Hit struct {
	Entity   scene.EntityIndex
	Distance float32
	Point    mgl32.Vec3
}

// PickEntity returns the closest entity whose world bounds the ray hits.
// Entities whose transforms cannot be resolved are skipped.
func PickEntity(s *scene.Scene, r Ray) (Hit, bool) {
	world, err := s.WorldTransforms()
	if err != nil {
		return Hit{}, false
	}
	best := Hit{Entity: scene.NoParent, Distance: math.MaxFloat32}
	for i, e := range s.Entities {
		box := ModelBounds(s.Models[e.Model]).Transform(world[i])
		t, ok := r.IntersectAABB(box)
		if ok && t < best.Distance {
			best = Hit{Entity: scene.EntityIndex(i), Distance: t, Point: r.At(t)}
		}
	}
	return best, best.Entity != scene.NoParent
}
