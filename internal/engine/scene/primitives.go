package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CubeMesh returns a cube of half-size 0.5 with per-face normals and UVs.
func CubeMesh(materialID uint32) *MeshData {
	type face struct{ n, u, v mgl32.Vec3 }
	faces := [6]face{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	m := &MeshData{MaterialID: materialID}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, f := range faces {
		base := uint32(i * 4)
		for _, c := range corners {
			p := f.n.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(0.5)
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.n)
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// PlaneMesh returns a square in the XZ plane facing +Y. UVs repeat once per
// world unit.
func PlaneMesh(size float32, materialID uint32) *MeshData {
	h := size / 2
	return &MeshData{
		Positions: []mgl32.Vec3{{-h, 0, h}, {h, 0, h}, {h, 0, -h}, {-h, 0, -h}},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		TexCoords: []mgl32.Vec2{{0, 0}, {size, 0}, {size, size}, {0, size}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},

		MaterialID: materialID,
	}
}

// SphereMesh returns a UV sphere of radius 0.5.
func SphereMesh(rings, segments int, materialID uint32) *MeshData {
	rings = max(rings, 2)
	segments = max(segments, 3)
	m := &MeshData{MaterialID: materialID}
	for r := 0; r <= rings; r++ {
		v := float64(r) / float64(rings)
		phi := v * math.Pi
		for s := 0; s <= segments; s++ {
			u := float64(s) / float64(segments)
			theta := u * 2 * math.Pi
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Sin(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Cos(theta)),
			}
			m.Positions = append(m.Positions, n.Mul(0.5))
			m.Normals = append(m.Normals, n)
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{float32(u), float32(1 - v)})
		}
	}
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}
