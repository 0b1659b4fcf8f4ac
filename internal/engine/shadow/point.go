package shadow

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/shader"
)

// PointBlockBinding is the uniform block binding of the face matrices.
const PointBlockBinding = 0

// PointJob is one light's contribution to the cube-map array.
type PointJob struct {
	Light     int // Index into the scene's point lights, also the array slice
	FirstFace int // Layer-face of +X; faces follow at FirstFace+1..5
	Block     []byte
}

// PlanPoint returns one job per enabled point light within MaxPointLights.
func PlanPoint(lights []lighting.PointLight, near, far float32) []PointJob {
	var jobs []PointJob
	for _, i := range lighting.EnabledPoints(lights) {
		pos := lights[i].Position
		jobs = append(jobs, PointJob{
			Light:     i,
			FirstFace: i * 6,
			Block:     PointBlock(pos, far, PointFaceMatrices(pos, near, far)),
		})
	}
	return jobs
}

// Point renders omnidirectional shadows into a depth cube-map array with
// 6*MaxPointLights layer-faces, one draw per light.
type Point struct {
	target   *depthTarget
	program  *shader.Program
	ubo      uint32
	settings Settings
}

// NewPoint allocates the cube-map array and the face-matrix uniform buffer.
func NewPoint(settings Settings, program *shader.Program) (*Point, error) {
	t, err := newDepthTarget(gl.TEXTURE_CUBE_MAP_ARRAY, settings.PointResolution, PointLayers, false)
	if err != nil {
		return nil, err
	}
	p := &Point{target: t, program: program, settings: settings}
	gl.GenBuffers(1, &p.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, PointBlockSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return p, nil
}

// Render draws every enabled light. It returns the number of lights drawn;
// with no enabled lights nothing is bound or cleared.
func (p *Point) Render(lights []lighting.PointLight, scene Drawer) int {
	jobs := PlanPoint(lights, p.settings.PointNear, p.settings.PointFar)
	if len(jobs) == 0 || scene.Empty() || !p.program.Valid() || !p.target.valid() {
		return 0
	}

	p.target.bind(true)
	p.program.Use()
	gl.BindBufferBase(gl.UNIFORM_BUFFER, PointBlockBinding, p.ubo)
	for _, job := range jobs {
		gl.BindBuffer(gl.UNIFORM_BUFFER, p.ubo)
		gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(job.Block), gl.Ptr(job.Block))
		p.program.SetInt("uLightIndex", int32(job.Light))
		scene.Draw()
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	p.target.unbind()
	return len(jobs)
}

// Far returns the distance used to normalize stored depths.
func (p *Point) Far() float32 {
	return p.settings.PointFar
}

// BindTexture binds the cube-map array to a texture unit index.
func (p *Point) BindTexture(unit uint32) {
	if p.target.valid() {
		p.target.bindTexture(unit)
	}
}

// Destroy releases GPU resources.
func (p *Point) Destroy() {
	if p.target != nil {
		p.target.destroy()
	}
	if p.ubo != 0 {
		gl.DeleteBuffers(1, &p.ubo)
		p.ubo = 0
	}
}
