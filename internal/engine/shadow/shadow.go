// Package shadow renders depth maps for directional, point and spot lights.
//
// Every pass draws the whole scene through a Drawer, which replays the
// batch's indirect command list with a depth-only program bound.
package shadow

import (
	"github.com/Faultbox/radiance/internal/engine/lighting"
)

// Drawer issues the scene's geometry.
type Drawer interface {
	Draw()
	Empty() bool
}

// Settings sizes the three shadow targets.
type Settings struct {
	DirectionalResolution int32
	DirectionalExtent     float32
	DirectionalNear       float32
	DirectionalFar        float32

	PointResolution int32
	PointNear       float32
	PointFar        float32

	SpotResolution int32
	SpotExtent     float32
	SpotNear       float32
	SpotFar        float32
}

// DefaultSettings returns the settings used when no config is supplied.
func DefaultSettings() Settings {
	return Settings{
		DirectionalResolution: 2048,
		DirectionalExtent:     20,
		DirectionalNear:       1,
		DirectionalFar:        50,
		PointResolution:       1024,
		PointNear:             0.1,
		PointFar:              25,
		SpotResolution:        1024,
		SpotExtent:            10,
		SpotNear:              0.5,
		SpotFar:               50,
	}
}

// PointLayers is the number of cube faces in the point shadow array.
const PointLayers = 6 * lighting.MaxPointLights
