package lighting

import (
	"encoding/binary"
	"math"
)

// GPU record sizes (std430).
const (
	headerSize     = 16 // pointCount, spotCount, 2 pad
	pointLightSize = 32 // vec3 position, float intensity, vec3 color, int enabled
	spotLightSize  = 64 // vec3 pos, float intensity, vec3 dir, float cosInner, vec3 color, float cosOuter, int enabled, 3 pad

	// BufferSize is the fixed byte size of the light storage buffer.
	BufferSize = headerSize + MaxPointLights*pointLightSize + MaxSpotLights*spotLightSize
)

// Buffer packs scene lights into the storage-buffer layout read by the
// forward shader. Slot i of each array always holds light i, so shadow layer
// indices and light indices agree.
type Buffer struct {
	data []byte
}

// NewBuffer creates a zeroed light buffer.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, BufferSize)}
}

// Pack writes the lights into the buffer and returns the backing bytes.
// Lights past the per-type maximum are dropped.
func (b *Buffer) Pack(points []PointLight, spots []SpotLight) []byte {
	for i := range b.data {
		b.data[i] = 0
	}
	le := binary.LittleEndian

	np := min(len(points), MaxPointLights)
	ns := min(len(spots), MaxSpotLights)
	le.PutUint32(b.data[0:], uint32(np))
	le.PutUint32(b.data[4:], uint32(ns))

	off := headerSize
	for i := 0; i < np; i++ {
		p := points[i]
		putVec3(b.data[off:], p.Position)
		putF32(b.data[off+12:], p.Intensity)
		putVec3(b.data[off+16:], p.Color)
		le.PutUint32(b.data[off+28:], boolU32(p.Enabled))
		off += pointLightSize
	}

	off = headerSize + MaxPointLights*pointLightSize
	for i := 0; i < ns; i++ {
		s := spots[i]
		putVec3(b.data[off:], s.Position)
		putF32(b.data[off+12:], s.Intensity)
		putVec3(b.data[off+16:], s.Direction.Normalize())
		putF32(b.data[off+28:], cosDeg(s.CutOff))
		putVec3(b.data[off+32:], s.Color)
		putF32(b.data[off+44:], cosDeg(s.OuterCutOff))
		le.PutUint32(b.data[off+48:], boolU32(s.Enabled))
		off += spotLightSize
	}
	return b.data
}

func putF32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func putVec3(dst []byte, v [3]float32) {
	putF32(dst[0:], v[0])
	putF32(dst[4:], v[1])
	putF32(dst[8:], v[2])
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180))
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
