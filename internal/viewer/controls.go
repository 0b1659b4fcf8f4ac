package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/radiance/internal/engine/scene"
)

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionScreenshot
	ActionToggleSun
	ActionToggleSunShadows
	ActionTogglePointLights
	ActionToggleSpotLights
	ActionToggleMetal
	ActionToggleTextures
	ActionToggleFastIrradiance
	ActionExposureUp
	ActionExposureDown
	ActionPause
	ActionResetCamera
)

var keyBindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_F12:    ActionScreenshot,
	sdl.SCANCODE_1:      ActionToggleSun,
	sdl.SCANCODE_2:      ActionToggleSunShadows,
	sdl.SCANCODE_3:      ActionTogglePointLights,
	sdl.SCANCODE_4:      ActionToggleSpotLights,
	sdl.SCANCODE_M:      ActionToggleMetal,
	sdl.SCANCODE_T:      ActionToggleTextures,
	sdl.SCANCODE_I:      ActionToggleFastIrradiance,
	sdl.SCANCODE_EQUALS: ActionExposureUp,
	sdl.SCANCODE_MINUS:  ActionExposureDown,
	sdl.SCANCODE_SPACE:  ActionPause,
	sdl.SCANCODE_HOME:   ActionResetCamera,
}

// ActionFor returns the action bound to a key.
func ActionFor(key sdl.Scancode) Action {
	return keyBindings[key]
}

// applyLightToggle flips the lights an action refers to. It reports whether
// the action was a light toggle.
func applyLightToggle(s *scene.Scene, a Action) bool {
	switch a {
	case ActionToggleSun:
		s.Directional.Enabled = !s.Directional.Enabled
	case ActionToggleSunShadows:
		s.Directional.CastShadows = !s.Directional.CastShadows
	case ActionTogglePointLights:
		on := len(s.EnabledPointLights()) == 0
		for i := range s.PointLights {
			s.PointLights[i].Enabled = on
		}
	case ActionToggleSpotLights:
		on := len(s.EnabledSpotLights()) == 0
		for i := range s.SpotLights {
			s.SpotLights[i].Enabled = on
		}
	default:
		return false
	}
	return true
}

// toggleMetal swaps a material between metallic and dielectric.
func toggleMetal(m *scene.Material) {
	if m.Metallic > 0.5 {
		m.Metallic = 0
	} else {
		m.Metallic = 1
	}
}

// stepExposure scales exposure by one stop and keeps it in a usable range.
func stepExposure(exposure float32, up bool) float32 {
	if up {
		exposure *= 1.25
	} else {
		exposure /= 1.25
	}
	return min(max(exposure, 0.05), 20)
}

// selectedMaterial returns the material of the selected entity's first mesh,
// or the gold material when nothing usable is selected.
func selectedMaterial(s *scene.Scene, selected scene.EntityIndex) *scene.Material {
	if selected >= 0 && int(selected) < len(s.Entities) {
		model := s.Models[s.Entities[selected].Model]
		if len(model.Meshes) > 0 && int(model.Meshes[0].MaterialID) < len(s.Materials) {
			return s.Materials[model.Meshes[0].MaterialID]
		}
	}
	return s.Materials[matGold]
}
