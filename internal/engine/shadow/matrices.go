package shadow

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/camera"
)

// PointBlockSize is the std140 size of the point shadow uniform block:
// six face matrices followed by vec4(lightPos, far).
const PointBlockSize = 6*64 + 16

// upFor picks an up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	if mgl32.Abs(dir.Normalize().Y()) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

// DirectionalMatrix returns the light-space matrix of a directional light.
// dir is the direction the light travels. The view looks along dir at the
// world origin from half the far distance away, so the depth range
// [near, far] straddles the origin.
func DirectionalMatrix(dir mgl32.Vec3, extent, near, far float32) mgl32.Mat4 {
	d := dir.Normalize()
	eye := d.Mul(-far * 0.5)
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, upFor(d))
	proj := mgl32.Ortho(-extent, extent, -extent, extent, near, far)
	return proj.Mul4(view)
}

// SpotMatrix returns the light-space matrix of a spot light. The projection
// is orthographic with the given half-extent, looking from the light's
// position along its direction.
func SpotMatrix(pos, dir mgl32.Vec3, extent, near, far float32) mgl32.Mat4 {
	d := dir.Normalize()
	view := mgl32.LookAtV(pos, pos.Add(d), upFor(d))
	proj := mgl32.Ortho(-extent, extent, -extent, extent, near, far)
	return proj.Mul4(view)
}

// PointFaceMatrices returns projection*view for the six cube faces around pos.
func PointFaceMatrices(pos mgl32.Vec3, near, far float32) [6]mgl32.Mat4 {
	proj := camera.CubeProjection(near, far)
	views := camera.CubeFaceViews(pos)
	var out [6]mgl32.Mat4
	for i, v := range views {
		out[i] = proj.Mul4(v)
	}
	return out
}

// PointBlock encodes the uniform block read by the point shadow geometry and
// fragment stages. Matrices stay column-major as std140 expects.
func PointBlock(pos mgl32.Vec3, far float32, faces [6]mgl32.Mat4) []byte {
	out := make([]byte, PointBlockSize)
	for f, m := range faces {
		for i, v := range m {
			binary.LittleEndian.PutUint32(out[f*64+i*4:], math.Float32bits(v))
		}
	}
	tail := [4]float32{pos[0], pos[1], pos[2], far}
	for i, v := range tail {
		binary.LittleEndian.PutUint32(out[6*64+i*4:], math.Float32bits(v))
	}
	return out
}
