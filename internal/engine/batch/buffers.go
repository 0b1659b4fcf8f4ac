package batch

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/logger"
)

// Shader storage binding points shared with the GLSL sources.
const (
	InstanceBinding = 1
	MaterialBinding = 2
)

// Buffers owns the GPU side of a Batch: VAO with VBO/EBO, instance and
// material SSBOs and the indirect command buffer. It must only be used on
// the GL thread.
type Buffers struct {
	vao, vbo, ebo uint32
	instances     uint32
	materials     uint32
	commands      uint32

	drawCount     int32
	instanceCount int
	materialCount int
}

// Upload replaces every table with the contents of b and the encoded
// material table, releasing the previous GL objects first.
func (bf *Buffers) Upload(b *Batch, materialTable []byte) {
	bf.Destroy()

	gl.GenVertexArrays(1, &bf.vao)
	gl.BindVertexArray(bf.vao)

	gl.GenBuffers(1, &bf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, bf.vbo)
	if len(b.Geometry.Vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(b.Geometry.Vertices)*4, gl.Ptr(b.Geometry.Vertices), gl.STATIC_DRAW)
	}

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, VertexSize, positionOffset)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, VertexSize, normalOffset)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, VertexSize, texCoordOffset)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &bf.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, bf.ebo)
	if len(b.Geometry.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(b.Geometry.Indices)*4, gl.Ptr(b.Geometry.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	bf.instances = storageBuffer(EncodeInstances(b.Instances), gl.DYNAMIC_DRAW)
	bf.materials = storageBuffer(materialTable, gl.DYNAMIC_DRAW)
	bf.instanceCount = len(b.Instances)
	bf.materialCount = len(materialTable) / MaterialRecordSize

	cmds := EncodeCommands(b.Commands)
	gl.GenBuffers(1, &bf.commands)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, bf.commands)
	if len(cmds) > 0 {
		gl.BufferData(gl.DRAW_INDIRECT_BUFFER, len(cmds), gl.Ptr(cmds), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)
	bf.drawCount = int32(len(b.Commands))

	logger.Debug("batch uploaded",
		zap.Int("vertices", b.Geometry.VertexCount),
		zap.Int("indices", len(b.Geometry.Indices)),
		zap.Int("instances", bf.instanceCount),
		zap.Int("materials", bf.materialCount),
		zap.Int32("draws", bf.drawCount))
}

// storageBuffer creates an SSBO holding data. Empty tables still get a
// minimal allocation so binding them is always legal.
func storageBuffer(data []byte, usage uint32) uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	if len(data) > 0 {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data), gl.Ptr(data), usage)
	} else {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, 16, nil, usage)
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return id
}

// UploadMaterials replaces the whole material table, reallocating when the
// material count changed.
func (bf *Buffers) UploadMaterials(materialTable []byte) {
	if bf.materials == 0 {
		return
	}
	count := len(materialTable) / MaterialRecordSize
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, bf.materials)
	switch {
	case count != bf.materialCount && len(materialTable) > 0:
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(materialTable), gl.Ptr(materialTable), gl.DYNAMIC_DRAW)
	case len(materialTable) > 0:
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(materialTable), gl.Ptr(materialTable))
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	bf.materialCount = count
}

// MaterialCount returns the number of records in the material table.
func (bf *Buffers) MaterialCount() int {
	return bf.materialCount
}

// UpdateMaterial rewrites one 128-byte record at id*MaterialRecordSize.
func (bf *Buffers) UpdateMaterial(id uint32, rec MaterialRecord) {
	if int(id) >= bf.materialCount {
		logger.Warn("material update out of range", zap.Uint32("id", id), zap.Int("materials", bf.materialCount))
		return
	}
	data := rec.Bytes()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, bf.materials)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, int(id)*MaterialRecordSize, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
}

// UpdateInstanceTransform rewrites the matrix of each listed record. The
// material ID and padding of the records are left untouched.
func (bf *Buffers) UpdateInstanceTransform(records []int, world mgl32.Mat4) {
	if len(records) == 0 {
		return
	}
	data := TransformBytes(world)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, bf.instances)
	for _, r := range records {
		if r < 0 || r >= bf.instanceCount {
			continue
		}
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, r*InstanceRecordSize, instanceMatrixSize, gl.Ptr(data))
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
}

// Bind attaches the instance and material tables to their binding points.
func (bf *Buffers) Bind() {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, InstanceBinding, bf.instances)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, MaterialBinding, bf.materials)
}

// Draw issues every command with one glMultiDrawElementsIndirect. The bound
// program must read gl_BaseInstance + gl_InstanceID to find its record.
func (bf *Buffers) Draw() {
	if bf.drawCount == 0 {
		return
	}
	bf.Bind()
	gl.BindVertexArray(bf.vao)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, bf.commands)
	gl.MultiDrawElementsIndirect(gl.TRIANGLES, gl.UNSIGNED_INT, gl.PtrOffset(0), bf.drawCount, 0)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)
	gl.BindVertexArray(0)
}

// DrawCount returns the number of indirect commands.
func (bf *Buffers) DrawCount() int {
	return int(bf.drawCount)
}

// Empty reports whether there is nothing to draw.
func (bf *Buffers) Empty() bool {
	return bf.drawCount == 0
}

// Destroy releases all GL objects.
func (bf *Buffers) Destroy() {
	for _, id := range []*uint32{&bf.vbo, &bf.ebo, &bf.instances, &bf.materials, &bf.commands} {
		if *id != 0 {
			gl.DeleteBuffers(1, id)
			*id = 0
		}
	}
	if bf.vao != 0 {
		gl.DeleteVertexArrays(1, &bf.vao)
		bf.vao = 0
	}
	bf.drawCount = 0
	bf.instanceCount = 0
	bf.materialCount = 0
}
