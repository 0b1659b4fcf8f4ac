package scene

import "github.com/go-gl/mathgl/mgl32"

// MeshData is the immutable geometry of one mesh plus its late-bound material.
type MeshData struct {
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3
	Tangents   []mgl32.Vec3
	Bitangents []mgl32.Vec3
	TexCoords  []mgl32.Vec2
	Indices    []uint32

	// MaterialID is resolved after materials are loaded; it indexes Scene.Materials.
	MaterialID       uint32
	EmissionStrength float32
}

// VertexCount returns the number of vertices in the mesh.
func (m *MeshData) VertexCount() int {
	return len(m.Positions)
}

// IndexCount returns the number of indices in the mesh.
func (m *MeshData) IndexCount() int {
	return len(m.Indices)
}

// MeshDrawData describes where a mesh landed in the consolidated buffers.
type MeshDrawData struct {
	SizeBytes  int    // Interleaved vertex bytes contributed by the mesh
	MaterialID uint32 // Material table index
	BaseVertex int32  // Vertices contributed by all previously consolidated meshes
	IndexCount uint32
}

// Model is a named list of meshes instantiated by zero or more entities.
type Model struct {
	ID     int
	Name   string
	Meshes []*MeshData

	// Entities lists the arena indices of entities instancing this model,
	// in insertion order.
	Entities []EntityIndex

	// Draws is derived by geometry consolidation, one entry per mesh.
	// It is nil while the model has no entities.
	Draws []MeshDrawData
}

// VertexCount returns the total vertices across all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += mesh.VertexCount()
	}
	return n
}

// Instanced reports whether the model contributes to the GPU buffers.
func (m *Model) Instanced() bool {
	return len(m.Entities) > 0
}
