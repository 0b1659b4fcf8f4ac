package shadow

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/shader"
)

// SpotJob is one spot light's layer of the 2D depth array.
type SpotJob struct {
	Light      int // Index into the scene's spot lights, also the array layer
	LightSpace mgl32.Mat4
}

// PlanSpot returns one job per enabled spot light within MaxSpotLights.
func PlanSpot(lights []lighting.SpotLight, s Settings) []SpotJob {
	var jobs []SpotJob
	for _, i := range lighting.EnabledSpots(lights) {
		l := lights[i]
		jobs = append(jobs, SpotJob{
			Light:      i,
			LightSpace: SpotMatrix(l.Position, l.Direction, s.SpotExtent, s.SpotNear, s.SpotFar),
		})
	}
	return jobs
}

// Spot renders spot light shadows into a 2D depth array, one layer per light.
// Layers of disabled lights are left as they were.
type Spot struct {
	target   *depthTarget
	program  *shader.Program
	settings Settings

	// LightSpace holds the matrix last rendered into each layer.
	LightSpace [lighting.MaxSpotLights]mgl32.Mat4
}

// NewSpot allocates the depth array.
func NewSpot(settings Settings, program *shader.Program) (*Spot, error) {
	t, err := newDepthTarget(gl.TEXTURE_2D_ARRAY, settings.SpotResolution, lighting.MaxSpotLights, true)
	if err != nil {
		return nil, err
	}
	s := &Spot{target: t, program: program, settings: settings}
	for i := range s.LightSpace {
		s.LightSpace[i] = mgl32.Ident4()
	}
	return s, nil
}

// Render draws each enabled light into its own layer and returns how many
// layers were drawn. A layer that cannot be attached aborts the pass.
func (s *Spot) Render(lights []lighting.SpotLight, scene Drawer) (int, error) {
	jobs := PlanSpot(lights, s.settings)
	if len(jobs) == 0 || scene.Empty() || !s.program.Valid() || !s.target.valid() {
		return 0, nil
	}

	s.target.bind(false)
	defer s.target.unbind()
	s.program.Use()
	for i, job := range jobs {
		if err := s.target.selectLayer(int32(job.Light)); err != nil {
			return i, err
		}
		s.LightSpace[job.Light] = job.LightSpace
		s.program.SetMat4("uLightSpace", job.LightSpace)
		scene.Draw()
	}
	return len(jobs), nil
}

// BindTexture binds the depth array to a texture unit index.
func (s *Spot) BindTexture(unit uint32) {
	if s.target.valid() {
		s.target.bindTexture(unit)
	}
}

// Destroy releases GPU resources.
func (s *Spot) Destroy() {
	if s.target != nil {
		s.target.destroy()
	}
}
