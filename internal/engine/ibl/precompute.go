// Package ibl precomputes image-based lighting from an equirectangular HDR
// panorama: an environment cubemap, a diffuse irradiance cubemap, a
// roughness-mipped specular prefilter cubemap and the split-sum BRDF table.
package ibl

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/engine/camera"
	"github.com/Faultbox/radiance/internal/engine/framebuffer"
	"github.com/Faultbox/radiance/internal/engine/shader"
	"github.com/Faultbox/radiance/internal/engine/shaders"
	"github.com/Faultbox/radiance/internal/engine/texture"
	"github.com/Faultbox/radiance/internal/logger"
)

// ErrIncompleteFramebuffer is wrapped, with the GL status, when a capture
// target cannot be completed. Precompute aborts on it.
var ErrIncompleteFramebuffer = framebuffer.ErrIncomplete

// ErrProgramUnavailable is returned when a stage's program failed to build.
var ErrProgramUnavailable = errors.New("ibl program unavailable")

// Kernel storage bindings shared with the GLSL sources.
const (
	irradianceKernelBinding = 4
	prefilterKernelBinding  = 5
	brdfKernelBinding       = 6
)

// Primitives draws the shared unit cube and full-screen quad.
type Primitives interface {
	DrawCube()
	DrawQuad()
}

// EnvironmentMap owns the four IBL outputs and the capture resources used
// to build them. Only use it on the GL thread.
type EnvironmentMap struct {
	Environment uint32 // Cubemap, mipmapped
	Irradiance  uint32 // Cubemap
	Prefilter   uint32 // Cubemap, PrefilterMips levels
	BRDF        uint32 // 2D RG16F

	settings Settings
	log      *zap.Logger

	equirect   *shader.Program
	irradiance *shader.Program
	prefilter  *shader.Program
	brdf       *shader.Program

	fbo, rbo uint32
	kernel   uint32
}

// New compiles the capture programs. A program that fails to compile is
// logged and leaves Precompute unable to run its stage.
func New(settings Settings) *EnvironmentMap {
	e := &EnvironmentMap{settings: settings, log: logger.Named("ibl")}

	build := func(name, vert, frag string) *shader.Program {
		p, err := shader.Compile(name, shader.Source{Vertex: vert, Fragment: frag}, nil)
		if err != nil {
			e.log.Error("shader build failed", zap.String("program", name), zap.Error(err))
		}
		return p
	}
	e.equirect = build("equirect", shaders.CubeVertexShader, shaders.EquirectFragmentShader)
	e.irradiance = build("irradiance", shaders.CubeVertexShader, shaders.IrradianceFragmentShader)
	e.prefilter = build("prefilter", shaders.CubeVertexShader, shaders.PrefilterFragmentShader)
	e.brdf = build("brdf", shaders.QuadVertexShader, shaders.BRDFFragmentShader)

	gl.GenFramebuffers(1, &e.fbo)
	gl.GenRenderbuffers(1, &e.rbo)
	gl.GenBuffers(1, &e.kernel)
	return e
}

// Settings returns the active settings.
func (e *EnvironmentMap) Settings() Settings {
	return e.settings
}

// SetSettings changes irradiance resolution or kernel for the next Precompute.
func (e *EnvironmentMap) SetSettings(s Settings) {
	e.settings = s
}

// Precompute rebuilds all four outputs from an equirectangular HDR texture.
// The kernels are deterministic, so an unchanged source yields identical
// textures.
func (e *EnvironmentMap) Precompute(source *texture.Texture, prims Primitives) error {
	for _, p := range []*shader.Program{e.equirect, e.irradiance, e.prefilter, e.brdf} {
		if !p.Valid() {
			return fmt.Errorf("%s: %w", p.Name, ErrProgramUnavailable)
		}
	}
	start := time.Now()

	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])
	defer func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}()

	gl.Disable(gl.CULL_FACE)
	defer gl.Enable(gl.CULL_FACE)
	gl.BindFramebuffer(gl.FRAMEBUFFER, e.fbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, e.rbo)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, e.rbo)

	for _, st := range Plan(e.settings) {
		var err error
		switch st.Kind {
		case StageEnvironment:
			err = e.captureEnvironment(st, source, prims)
		case StageIrradiance:
			err = e.convolveIrradiance(st, prims)
		case StagePrefilter:
			err = e.prefilterSpecular(st, prims)
		case StageBRDF:
			err = e.integrateBRDF(st, prims)
		}
		if err != nil {
			return fmt.Errorf("ibl %s: %w", st.Kind, err)
		}
	}

	e.log.Info("environment precomputed",
		zap.String("source", source.Path),
		zap.Int32("irradiance", clampIrradiance(e.settings.IrradianceSize)),
		zap.Bool("fast_irradiance", e.settings.FastIrradiance),
		zap.Duration("took", time.Since(start)))
	return nil
}

// resize points the shared depth renderbuffer and viewport at size.
func (e *EnvironmentMap) resize(size int32) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, e.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, size, size)
	gl.Viewport(0, 0, size, size)
}

// renderFaces draws the cube into each face of a cubemap level.
func (e *EnvironmentMap) renderFaces(p *shader.Program, cube uint32, mip int32, prims Primitives) error {
	views := camera.CubeFaceViews(mgl32.Vec3{})
	p.SetMat4("uProjection", camera.CubeProjection(0.1, 10))
	for face := uint32(0); face < 6; face++ {
		p.SetMat4("uView", views[face])
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, cube, mip)
		if err := framebuffer.Check(gl.FRAMEBUFFER); err != nil {
			return fmt.Errorf("mip %d face %d: %w", mip, face, err)
		}
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		prims.DrawCube()
	}
	return nil
}

// uploadKernel fills the shared kernel SSBO and binds it.
func (e *EnvironmentMap) uploadKernel(binding uint32, data []float32) {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, e.kernel)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data)*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, binding, e.kernel)
}

func (e *EnvironmentMap) captureEnvironment(st Stage, source *texture.Texture, prims Primitives) error {
	size := st.Levels[0].Size
	e.Environment = allocCube(e.Environment, size, 0, true)

	e.resize(size)
	e.equirect.Use()
	e.equirect.SetInt("uEquirect", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, source.ID)
	if err := e.renderFaces(e.equirect, e.Environment, 0, prims); err != nil {
		return err
	}

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.Environment)
	gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	return nil
}

func (e *EnvironmentMap) convolveIrradiance(st Stage, prims Primitives) error {
	size := st.Levels[0].Size
	e.Irradiance = allocCube(e.Irradiance, size, 0, false)
	e.uploadKernel(irradianceKernelBinding, StageKernel(st, 0))

	e.resize(size)
	e.irradiance.Use()
	e.irradiance.SetInt("uEnvironment", 0)
	e.irradiance.SetInt("uSampleCount", int32(st.Samples))
	e.irradiance.SetFloat("uResolution", EnvironmentSize)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.Environment)
	return e.renderFaces(e.irradiance, e.Irradiance, 0, prims)
}

func (e *EnvironmentMap) prefilterSpecular(st Stage, prims Primitives) error {
	e.Prefilter = allocCube(e.Prefilter, st.Levels[0].Size, int32(len(st.Levels)), false)

	e.prefilter.Use()
	e.prefilter.SetInt("uEnvironment", 0)
	e.prefilter.SetInt("uSampleCount", int32(st.Samples))
	e.prefilter.SetFloat("uResolution", EnvironmentSize)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.Environment)

	for i, lvl := range st.Levels {
		e.uploadKernel(prefilterKernelBinding, StageKernel(st, i))
		e.resize(lvl.Size)
		e.prefilter.SetFloat("uRoughness", lvl.Roughness)
		if err := e.renderFaces(e.prefilter, e.Prefilter, lvl.Mip, prims); err != nil {
			return err
		}
	}
	return nil
}

func (e *EnvironmentMap) integrateBRDF(st Stage, prims Primitives) error {
	size := st.Levels[0].Size
	if e.BRDF == 0 {
		gl.GenTextures(1, &e.BRDF)
	}
	gl.BindTexture(gl.TEXTURE_2D, e.BRDF)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG16F, size, size, 0, gl.RG, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	e.uploadKernel(brdfKernelBinding, StageKernel(st, 0))
	e.resize(size)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, e.BRDF, 0)
	if err := framebuffer.Check(gl.FRAMEBUFFER); err != nil {
		return err
	}

	e.brdf.Use()
	e.brdf.SetInt("uSampleCount", int32(st.Samples))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	prims.DrawQuad()
	return nil
}

// allocCube (re)allocates an RGB16F cubemap. mips > 0 allocates that many
// levels for explicit rendering; mipmapped requests a full chain generated
// after capture.
func allocCube(id uint32, size, mips int32, mipmapped bool) uint32 {
	if id != 0 {
		gl.DeleteTextures(1, &id)
	}
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for face := uint32(0); face < 6; face++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, gl.RGB16F, size, size, 0, gl.RGB, gl.FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	switch {
	case mips > 0:
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAX_LEVEL, mips-1)
		gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	case mipmapped:
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	default:
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	return id
}

// Bind attaches irradiance, prefilter and BRDF outputs to texture unit indices.
func (e *EnvironmentMap) Bind(irradianceUnit, prefilterUnit, brdfUnit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + irradianceUnit)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.Irradiance)
	gl.ActiveTexture(gl.TEXTURE0 + prefilterUnit)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.Prefilter)
	gl.ActiveTexture(gl.TEXTURE0 + brdfUnit)
	gl.BindTexture(gl.TEXTURE_2D, e.BRDF)
}

// Ready reports whether all four outputs exist.
func (e *EnvironmentMap) Ready() bool {
	return e != nil && e.Environment != 0 && e.Irradiance != 0 && e.Prefilter != 0 && e.BRDF != 0
}

// Destroy releases every texture, program and capture object.
func (e *EnvironmentMap) Destroy() {
	for _, id := range []*uint32{&e.Environment, &e.Irradiance, &e.Prefilter, &e.BRDF} {
		if *id != 0 {
			gl.DeleteTextures(1, id)
			*id = 0
		}
	}
	for _, p := range []*shader.Program{e.equirect, e.irradiance, e.prefilter, e.brdf} {
		if p != nil {
			p.Delete()
		}
	}
	if e.fbo != 0 {
		gl.DeleteFramebuffers(1, &e.fbo)
		e.fbo = 0
	}
	if e.rbo != 0 {
		gl.DeleteRenderbuffers(1, &e.rbo)
		e.rbo = 0
	}
	if e.kernel != 0 {
		gl.DeleteBuffers(1, &e.kernel)
		e.kernel = 0
	}
}
