package batch

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/texture"
)

// Material record layout (std430):
//
//	0   vec4  albedo
//	16  vec4  emissive
//	32  7 x uint64 bindless handles, slot order
//	88  float metallic
//	92  float roughness
//	96  8 x uint32 use flags, slot order, last word zero
const (
	MaterialRecordSize = 128

	offAlbedo    = 0
	offEmissive  = 16
	offHandles   = 32
	offMetallic  = 88
	offRoughness = 92
	offFlags     = 96
	flagWords    = 8
)

// HandleSource resolves the resident bindless handle of a texture.
type HandleSource interface {
	Handle(t *texture.Texture) (uint64, bool)
}

// MaterialRecord is the GPU image of one PBR material.
type MaterialRecord struct {
	Albedo    mgl32.Vec4
	Emissive  mgl32.Vec4
	Handles   [scene.SlotCount]uint64
	Metallic  float32
	Roughness float32
	Flags     [flagWords]uint32
}

// NewMaterialRecord captures m. A slot gets a handle and a set flag only when
// the material effectively samples it and the texture is resident.
func NewMaterialRecord(m *scene.Material, handles HandleSource) MaterialRecord {
	r := MaterialRecord{
		Albedo:    m.Albedo.Vec4(1),
		Emissive:  m.Emissive.Vec4(1),
		Metallic:  m.Metallic,
		Roughness: m.Roughness,
	}
	for s := scene.TextureSlot(0); s < scene.SlotCount; s++ {
		if !m.Samples(s) || handles == nil {
			continue
		}
		if h, ok := handles.Handle(m.Textures[s]); ok && h != 0 {
			r.Handles[s] = h
			r.Flags[s] = 1
		}
	}
	return r
}

// Encode writes the record into dst, which must hold MaterialRecordSize bytes.
func (r MaterialRecord) Encode(dst []byte) {
	le := binary.LittleEndian
	for i := 0; i < 4; i++ {
		le.PutUint32(dst[offAlbedo+i*4:], math.Float32bits(r.Albedo[i]))
		le.PutUint32(dst[offEmissive+i*4:], math.Float32bits(r.Emissive[i]))
	}
	for i, h := range r.Handles {
		le.PutUint64(dst[offHandles+i*8:], h)
	}
	le.PutUint32(dst[offMetallic:], math.Float32bits(r.Metallic))
	le.PutUint32(dst[offRoughness:], math.Float32bits(r.Roughness))
	for i, f := range r.Flags {
		le.PutUint32(dst[offFlags+i*4:], f)
	}
}

// Bytes returns the encoded record.
func (r MaterialRecord) Bytes() []byte {
	out := make([]byte, MaterialRecordSize)
	r.Encode(out)
	return out
}

// BuildMaterialTable encodes materials in ID order. The result is exactly
// MaterialRecordSize*len(materials) bytes and is identical for identical input.
func BuildMaterialTable(materials []*scene.Material, handles HandleSource) []byte {
	out := make([]byte, len(materials)*MaterialRecordSize)
	for i, m := range materials {
		NewMaterialRecord(m, handles).Encode(out[i*MaterialRecordSize:])
	}
	return out
}
