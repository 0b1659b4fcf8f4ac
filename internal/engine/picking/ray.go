// Package picking casts rays from the viewport into the scene.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})

	origin := near.Vec3()
	end := far.Vec3()
	if near.W() != 0 {
		origin = origin.Mul(1 / near.W())
	}
	if far.W() != 0 {
		end = end.Mul(1 / far.W())
	}

	dir := end.Sub(origin)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if math.Abs(float64(r.Direction[1])) < 0.001 {
		return 0, 0, false
	}

	t := (planeY - r.Origin[1]) / r.Direction[1]
	if t < 0 {
		return 0, 0, false
	}

	p := r.At(t)
	return p.X(), p.Z(), true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// NewAABB creates an AABB from two corners in any order.
func NewAABB(a, b mgl32.Vec3) AABB {
	var box AABB
	for k := 0; k < 3; k++ {
		box.Min[k] = min(a[k], b[k])
		box.Max[k] = max(a[k], b[k])
	}
	return box
}

// Transform returns the world-space box enclosing the eight transformed
// corners of box.
func (box AABB) Transform(m mgl32.Mat4) AABB {
	out := AABB{
		Min: mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{box.Min[0], box.Min[1], box.Min[2]}
		if i&1 != 0 {
			c[0] = box.Max[0]
		}
		if i&2 != 0 {
			c[1] = box.Max[1]
		}
		if i&4 != 0 {
			c[2] = box.Max[2]
		}
		w := mgl32.TransformCoordinate(c, m)
		for k := 0; k < 3; k++ {
			out.Min[k] = min(out.Min[k], w[k])
			out.Max[k] = max(out.Max[k], w[k])
		}
	}
	return out
}
