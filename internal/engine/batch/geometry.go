// Package batch consolidates a scene into the GPU tables consumed by a single
// multi-draw-indirect call: one vertex/index buffer pair, a material table, an
// instance table and the indirect command list.
package batch

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/scene"
)

// Interleaved vertex layout: position(3) normal(3) texcoord(2).
const (
	VertexFloats = 8
	VertexSize   = VertexFloats * 4

	positionOffset = 0
	normalOffset   = 3 * 4
	texCoordOffset = 6 * 4
)

// Geometry is every instanced mesh packed into shared arrays. Indices stay
// local to their mesh; commands add MeshDrawData.BaseVertex at draw time.
type Geometry struct {
	Vertices    []float32
	Indices     []uint32
	VertexCount int
}

// contributes reports whether a model takes part in the consolidated buffers.
func contributes(m *scene.Model) bool {
	return m.Instanced() && m.VertexCount() > 0
}

// ConsolidateGeometry packs the meshes of every model that has at least one
// entity and at least one vertex, in model then mesh order. It fills each
// model's Draws; models that do not contribute get nil Draws.
func ConsolidateGeometry(models []*scene.Model) Geometry {
	var g Geometry

	vertices, indices := 0, 0
	for _, m := range models {
		if contributes(m) {
			for _, mesh := range m.Meshes {
				vertices += mesh.VertexCount()
				indices += mesh.IndexCount()
			}
		}
	}
	g.Vertices = make([]float32, 0, vertices*VertexFloats)
	g.Indices = make([]uint32, 0, indices)

	for _, m := range models {
		m.Draws = nil
		if !contributes(m) {
			continue
		}
		m.Draws = make([]scene.MeshDrawData, len(m.Meshes))
		for j, mesh := range m.Meshes {
			m.Draws[j] = scene.MeshDrawData{
				SizeBytes:  mesh.VertexCount() * VertexSize,
				MaterialID: mesh.MaterialID,
				BaseVertex: int32(g.VertexCount),
				IndexCount: uint32(mesh.IndexCount()),
			}
			g.Vertices = appendInterleaved(g.Vertices, mesh)
			g.Indices = append(g.Indices, mesh.Indices...)
			g.VertexCount += mesh.VertexCount()
		}
	}
	return g
}

// appendInterleaved writes the mesh vertices, filling absent normals and
// texture coordinates with zeros.
func appendInterleaved(dst []float32, mesh *scene.MeshData) []float32 {
	for i, p := range mesh.Positions {
		var n mgl32.Vec3
		var uv mgl32.Vec2
		if i < len(mesh.Normals) {
			n = mesh.Normals[i]
		}
		if i < len(mesh.TexCoords) {
			uv = mesh.TexCoords[i]
		}
		dst = append(dst, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	return dst
}
