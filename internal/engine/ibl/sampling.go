package ibl

import (
	"math"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// Kernel sizes. The fast irradiance kernel trades banding for load time.
const (
	IrradianceSamples     = 2048
	FastIrradianceSamples = 256
	PrefilterSamples      = 1024
	BRDFSamples           = 1024
)

// Hammersley returns the i-th of n points of the Hammersley set in [0,1)^2.
func Hammersley(i, n int) mgl32.Vec2 {
	return mgl32.Vec2{float32(i) / float32(n), radicalInverse(uint32(i))}
}

// radicalInverse is the Van der Corput sequence in base 2.
func radicalInverse(i uint32) float32 {
	return float32(float64(bits.Reverse32(i)) * 2.3283064365386963e-10)
}

// HammersleySet returns n Hammersley points.
func HammersleySet(n int) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, n)
	for i := range out {
		out[i] = Hammersley(i, n)
	}
	return out
}

// CosineHemisphere returns n cosine-weighted directions around +Z.
func CosineHemisphere(n int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	for i := range out {
		xi := Hammersley(i, n)
		phi := 2 * math.Pi * float64(xi[0])
		sinTheta := math.Sqrt(float64(xi[1]))
		cosTheta := math.Sqrt(1 - float64(xi[1]))
		out[i] = mgl32.Vec3{
			float32(math.Cos(phi) * sinTheta),
			float32(math.Sin(phi) * sinTheta),
			float32(cosTheta),
		}
	}
	return out
}

// GGXHalfVectors importance-samples n GGX half vectors around +Z for the
// given perceptual roughness.
func GGXHalfVectors(roughness float32, n int) []mgl32.Vec3 {
	a := float64(roughness) * float64(roughness)
	out := make([]mgl32.Vec3, n)
	for i := range out {
		xi := Hammersley(i, n)
		phi := 2 * math.Pi * float64(xi[0])
		y := float64(xi[1])
		cosTheta := math.Sqrt((1 - y) / (1 + (a*a-1)*y))
		sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
		out[i] = mgl32.Vec3{
			float32(math.Cos(phi) * sinTheta),
			float32(math.Sin(phi) * sinTheta),
			float32(cosTheta),
		}
	}
	return out
}

// StageKernel returns the packed std430 sample kernel a stage reads at the
// given level: cosine directions for irradiance, GGX half vectors at the
// level's roughness for the prefilter, Hammersley points for the BRDF LUT.
// The environment capture takes no kernel.
func StageKernel(st Stage, level int) []float32 {
	switch st.Kind {
	case StageIrradiance:
		return packVec3(CosineHemisphere(st.Samples))
	case StagePrefilter:
		return packVec3(GGXHalfVectors(st.Levels[level].Roughness, st.Samples))
	case StageBRDF:
		return packVec2(HammersleySet(st.Samples))
	}
	return nil
}

// packVec3 lays out directions as std430 vec4s with w = 0.
func packVec3(vs []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*4)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2], 0)
	}
	return out
}

// packVec2 lays out points as std430 vec4s.
func packVec2(vs []mgl32.Vec2) []float32 {
	out := make([]float32, 0, len(vs)*4)
	for _, v := range vs {
		out = append(out, v[0], v[1], 0, 0)
	}
	return out
}
