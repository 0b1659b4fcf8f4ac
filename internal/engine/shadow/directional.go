package shadow

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/shader"
)

// Directional renders the sun's shadow into a single 2D depth map.
type Directional struct {
	target   *depthTarget
	program  *shader.Program
	settings Settings

	// LightSpace is the matrix of the last rendered pass.
	LightSpace mgl32.Mat4
}

// NewDirectional allocates the depth map.
func NewDirectional(settings Settings, program *shader.Program) (*Directional, error) {
	t, err := newDepthTarget(gl.TEXTURE_2D, settings.DirectionalResolution, 1, true)
	if err != nil {
		return nil, err
	}
	return &Directional{target: t, program: program, settings: settings, LightSpace: mgl32.Ident4()}, nil
}

// Active reports whether the directional pass would run. With no entities
// the pass is skipped and the map keeps its previous contents.
func (d *Directional) Active(light lighting.DirectionalLight, entities int) bool {
	return entities > 0 && light.Enabled && light.CastShadows
}

// Render draws the scene from the light. It returns whether a pass ran.
func (d *Directional) Render(light lighting.DirectionalLight, entities int, scene Drawer) bool {
	if !d.Active(light, entities) || scene.Empty() || !d.program.Valid() || !d.target.valid() {
		return false
	}
	s := d.settings
	d.LightSpace = DirectionalMatrix(light.Direction, s.DirectionalExtent, s.DirectionalNear, s.DirectionalFar)

	d.target.bind(true)
	d.program.Use()
	d.program.SetMat4("uLightSpace", d.LightSpace)
	scene.Draw()
	d.target.unbind()
	return true
}

// BindTexture binds the depth map to a texture unit index.
func (d *Directional) BindTexture(unit uint32) {
	if d.target.valid() {
		d.target.bindTexture(unit)
	}
}

// Destroy releases GPU resources.
func (d *Directional) Destroy() {
	if d.target != nil {
		d.target.destroy()
	}
}
