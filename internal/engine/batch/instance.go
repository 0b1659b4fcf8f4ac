package batch

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Instance record layout: row-major world matrix, material ID, three words of
// padding to keep std430 array stride at 16-byte alignment.
const (
	InstanceRecordSize = 80
	instanceMatrixSize = 64
)

// InstanceRecord is the per-(mesh, entity) GPU record.
type InstanceRecord struct {
	World      [16]float32 // Row-major
	MaterialID int32
}

// NewInstanceRecord converts a column-major mgl32 matrix into a record.
func NewInstanceRecord(world mgl32.Mat4, materialID uint32) InstanceRecord {
	return InstanceRecord{World: world.Transpose(), MaterialID: int32(materialID)}
}

// Encode writes the record into dst, which must hold InstanceRecordSize bytes.
// Padding bytes are zeroed.
func (r InstanceRecord) Encode(dst []byte) {
	encodeMatrix(dst, r.World)
	binary.LittleEndian.PutUint32(dst[64:], uint32(r.MaterialID))
	clear(dst[68:InstanceRecordSize])
}

func encodeMatrix(dst []byte, m [16]float32) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// EncodeInstances serializes the instance table.
func EncodeInstances(records []InstanceRecord) []byte {
	out := make([]byte, len(records)*InstanceRecordSize)
	for i, r := range records {
		r.Encode(out[i*InstanceRecordSize:])
	}
	return out
}

// TransformBytes returns only the matrix portion of a record for a sub-range
// update at recordIndex*InstanceRecordSize.
func TransformBytes(world mgl32.Mat4) []byte {
	out := make([]byte, instanceMatrixSize)
	encodeMatrix(out, world.Transpose())
	return out
}
