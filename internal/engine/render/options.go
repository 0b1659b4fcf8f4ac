package render

import (
	"strconv"

	"github.com/Faultbox/radiance/internal/config"
	"github.com/Faultbox/radiance/internal/engine/ibl"
	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/shadow"
)

// Reserved texture units of the forward pass.
const (
	UnitIrradiance uint32 = 10
	UnitPrefilter  uint32 = 11
	UnitBRDF       uint32 = 12
	UnitDirShadow  uint32 = 13
	UnitPointArray uint32 = 14
	UnitSpotArray  uint32 = 15
)

// LightBinding is the storage binding of the packed light buffer.
const LightBinding = 3

// Options configures a Renderer.
type Options struct {
	Width, Height   int32
	Exposure        float32
	Gamma           float32
	AmbientStrength float32
	GizmoSize       float32

	Shadows shadow.Settings
	IBL     ibl.Settings
}

// DefaultOptions returns options matching config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps the user configuration onto renderer options.
func OptionsFromConfig(cfg *config.Config) Options {
	g, sh := cfg.Graphics, cfg.Shadows
	return Options{
		Width:           int32(g.Width),
		Height:          int32(g.Height),
		Exposure:        g.Exposure,
		Gamma:           g.Gamma,
		AmbientStrength: cfg.Lighting.AmbientStrength,
		GizmoSize:       0.15,
		Shadows: shadow.Settings{
			DirectionalResolution: sh.DirectionalResolution,
			DirectionalExtent:     sh.DirectionalExtent,
			DirectionalNear:       sh.DirectionalNear,
			DirectionalFar:        sh.DirectionalFar,
			PointResolution:       sh.PointResolution,
			PointNear:             sh.PointNear,
			PointFar:              sh.PointFar,
			SpotResolution:        sh.SpotResolution,
			SpotExtent:            sh.SpotExtent,
			SpotNear:              sh.SpotNear,
			SpotFar:               sh.SpotFar,
		},
		IBL: ibl.Settings{
			IrradianceSize: cfg.Lighting.IrradianceSize,
			FastIrradiance: cfg.Lighting.FastIrradiance,
		},
	}
}

// lightDefines sizes the light arrays of the GLSL sources.
func lightDefines() map[string]string {
	return map[string]string{
		"MAX_POINT_LIGHTS": strconv.Itoa(lighting.MaxPointLights),
		"MAX_SPOT_LIGHTS":  strconv.Itoa(lighting.MaxSpotLights),
	}
}

// aspect returns width/height, falling back to 1 for a degenerate size.
func aspect(w, h int32) float32 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}
