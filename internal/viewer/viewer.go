// Package viewer runs the interactive scene viewer: window, input, demo scene
// and the frame loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/config"
	"github.com/Faultbox/radiance/internal/engine/camera"
	"github.com/Faultbox/radiance/internal/engine/ibl"
	"github.com/Faultbox/radiance/internal/engine/input"
	"github.com/Faultbox/radiance/internal/engine/picking"
	"github.com/Faultbox/radiance/internal/engine/render"
	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/texture"
	"github.com/Faultbox/radiance/internal/engine/window"
	"github.com/Faultbox/radiance/internal/logger"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg      *config.Config
	running  bool
	paused   bool
	dragging bool
	selected scene.EntityIndex

	window   *window.Window
	ctx      *render.Context
	renderer *render.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	scene    *scene.Scene
	textures []*texture.Texture
	log      *zap.Logger
}

// New creates the window, the renderer and the demo scene.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:    cfg,
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		log:    logger.Named("viewer"),

		selected: scene.NoParent,
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Radiance",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		// A debug context lets the driver report GL errors at debug log level.
		DebugContext: cfg.Logging.Level == "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The GL function table must be loaded before the shared primitives.
	if err := gl.Init(); err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	opts := render.OptionsFromConfig(cfg)
	w, h := v.window.GetSize()
	opts.Width, opts.Height = int32(w), int32(h)

	v.ctx = render.NewContext()
	v.renderer, err = render.New(v.ctx, opts)
	if err != nil {
		v.ctx.Destroy()
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.scene, err = BuildDemo(cfg.Scene)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	if err := v.renderer.Rebuild(v.scene); err != nil {
		v.Close()
		return nil, err
	}
	if v.loadGroundTextures() {
		if err := v.renderer.UpdateMaterials(v.scene); err != nil {
			v.Close()
			return nil, err
		}
	}

	if path := cfg.Lighting.EnvironmentMap; path != "" {
		if err := v.renderer.SetEnvironment(path); err != nil {
			// Without an environment the scene is lit by analytic lights only.
			v.log.Warn("environment map unavailable", zap.String("path", path), zap.Error(err))
		}
	}

	v.camera.FitToBounds(Bounds(v.scene))
	v.log.Info("viewer initialized", zap.Int("entities", len(v.scene.Entities)))
	return v, nil
}

// Run starts the frame loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			if err := v.handleEvent(event); err != nil {
				return err
			}
		}

		if err := v.update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		if err := v.renderer.Frame(v.scene, v.camera); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := v.renderer.Stats()
			v.window.SetTitle(fmt.Sprintf("Radiance - %d fps - %d draws, %d instances", frameCount, st.Commands, st.Instances))
			v.log.Debug("frame stats",
				zap.Int("fps", frameCount),
				zap.Bool("sun_shadow", st.DirectionalShadow),
				zap.Int("point_shadows", st.PointShadowLights),
				zap.Int("spot_shadows", st.SpotShadowLights),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvent(event input.Event) error {
	switch event.Type {
	case input.EventWindowResize:
		w, h := v.window.GetSize()
		v.renderer.Resize(int32(w), int32(h))
	case input.EventMouseDown:
		switch event.Button {
		case sdl.BUTTON_LEFT:
			v.dragging = true
		case sdl.BUTTON_RIGHT:
			v.pick(float32(event.MouseX), float32(event.MouseY))
		}
	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT {
			v.dragging = false
		}
	case input.EventMouseMove:
		if v.dragging {
			v.camera.HandleDrag(event.DeltaX, event.DeltaY)
		}
	case input.EventMouseWheel:
		v.camera.HandleZoom(event.DeltaY)
	case input.EventKeyDown:
		return v.perform(ActionFor(event.Key))
	}
	return nil
}

func (v *Viewer) perform(a Action) error {
	if applyLightToggle(v.scene, a) {
		return nil
	}
	switch a {
	case ActionQuit:
		v.running = false
	case ActionScreenshot:
		if _, err := v.renderer.Screenshot(v.cfg.Screenshots.Dir); err != nil {
			v.log.Error("screenshot failed", zap.Error(err))
		}
	case ActionToggleMetal:
		m := selectedMaterial(v.scene, v.selected)
		toggleMetal(m)
		return v.renderer.UpdateMaterial(v.scene, m.ID)
	case ActionToggleTextures:
		ground := v.scene.Materials[matGround]
		if toggleTextures(ground) {
			return v.renderer.UpdateMaterial(v.scene, ground.ID)
		}
	case ActionToggleFastIrradiance:
		v.cfg.Lighting.FastIrradiance = !v.cfg.Lighting.FastIrradiance
		s := ibl.Settings{IrradianceSize: v.cfg.Lighting.IrradianceSize, FastIrradiance: v.cfg.Lighting.FastIrradiance}
		if err := v.renderer.SetIBLSettings(s); err != nil {
			v.log.Error("irradiance rebuild failed", zap.Error(err))
		}
	case ActionExposureUp, ActionExposureDown:
		v.renderer.SetExposure(stepExposure(v.renderer.Exposure(), a == ActionExposureUp))
	case ActionPause:
		v.paused = !v.paused
	case ActionResetCamera:
		v.camera.FitToBounds(Bounds(v.scene))
	}
	return nil
}

// pick selects the entity under the cursor. Window coordinates are scaled
// to the drawable size first.
func (v *Viewer) pick(x, y float32) {
	w, h := v.window.GetSize()
	ww, wh := v.window.WindowSize()
	if ww > 0 && wh > 0 {
		x *= float32(w) / float32(ww)
		y *= float32(h) / float32(wh)
	}
	viewProj := v.camera.ProjectionMatrix(float32(w) / float32(max(h, 1))).Mul4(v.camera.ViewMatrix())
	ray := picking.ScreenToRay(x, y, float32(w), float32(h), viewProj.Inv())

	hit, ok := picking.PickEntity(v.scene, ray)
	if !ok {
		v.selected = scene.NoParent
		return
	}
	v.selected = hit.Entity
	v.log.Info("entity selected",
		zap.Int("entity", int(hit.Entity)),
		zap.String("model", v.scene.Models[v.scene.Entities[hit.Entity].Model].Name),
		zap.Float32("distance", hit.Distance))
}

// update advances the entity controllers and pushes moved transforms
// through the per-entity sub-range path.
func (v *Viewer) update(dt float32) error {
	var forward, right, up float32
	if input.KeyState(sdl.SCANCODE_W) {
		forward++
	}
	if input.KeyState(sdl.SCANCODE_S) {
		forward--
	}
	if input.KeyState(sdl.SCANCODE_D) {
		right++
	}
	if input.KeyState(sdl.SCANCODE_A) {
		right--
	}
	if input.KeyState(sdl.SCANCODE_E) {
		up++
	}
	if input.KeyState(sdl.SCANCODE_Q) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		step := 60 * dt
		v.camera.HandleMovement(forward*step, right*step, up*step)
	}

	if v.paused {
		return nil
	}
	return v.renderer.UpdateEntities(v.scene, v.scene.Update(dt))
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Destroy()
	}
	if v.ctx != nil {
		v.ctx.Destroy()
	}
	for _, t := range v.textures {
		t.Destroy()
	}
	v.textures = nil
	if v.window != nil {
		v.window.Close()
	}
}
