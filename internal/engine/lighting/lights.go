// Package lighting defines the analytic lights of a scene and their GPU packing.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Shadow-casting limits. Each enabled point light owns six layers of the point
// shadow cube-map array, each enabled spot light one layer of the spot array.
const (
	MaxPointLights = 8
	MaxSpotLights  = 4
)

// DirectionalLight is the single sun-like light of a scene.
type DirectionalLight struct {
	Direction   mgl32.Vec3 // Direction the light travels (from the light toward the scene)
	Color       mgl32.Vec3
	Intensity   float32
	Enabled     bool
	CastShadows bool
}

// PointLight is an omnidirectional light.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Enabled   bool
}

// SpotLight is a cone light. Angles are in degrees.
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	CutOff      float32 // Inner cone half-angle
	OuterCutOff float32 // Outer cone half-angle
	Color       mgl32.Vec3
	Intensity   float32
	Enabled     bool
}

// DefaultDirectional returns a warm sun 45 degrees above the horizon.
func DefaultDirectional() DirectionalLight {
	return DirectionalLight{
		Direction:   SunDirection(30, 45).Mul(-1),
		Color:       mgl32.Vec3{1, 0.95, 0.85},
		Intensity:   3,
		Enabled:     true,
		CastShadows: true,
	}
}

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing toward the sun. Azimuth rotates around Y, elevation is measured
// from the horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// EnabledPoints returns the indices of enabled point lights within the
// shadow-casting limit. Lights past MaxPointLights are ignored.
func EnabledPoints(lights []PointLight) []int {
	var out []int
	for i := 0; i < len(lights) && i < MaxPointLights; i++ {
		if lights[i].Enabled {
			out = append(out, i)
		}
	}
	return out
}

// EnabledSpots returns the indices of enabled spot lights within the
// shadow-casting limit.
func EnabledSpots(lights []SpotLight) []int {
	var out []int
	for i := 0; i < len(lights) && i < MaxSpotLights; i++ {
		if lights[i].Enabled {
			out = append(out, i)
		}
	}
	return out
}
