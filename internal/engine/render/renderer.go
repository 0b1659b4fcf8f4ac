package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/engine/batch"
	"github.com/Faultbox/radiance/internal/engine/camera"
	"github.com/Faultbox/radiance/internal/engine/debug"
	"github.com/Faultbox/radiance/internal/engine/framebuffer"
	"github.com/Faultbox/radiance/internal/engine/ibl"
	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/shader"
	"github.com/Faultbox/radiance/internal/engine/shaders"
	"github.com/Faultbox/radiance/internal/engine/shadow"
	"github.com/Faultbox/radiance/internal/engine/texture"
	"github.com/Faultbox/radiance/internal/logger"
)

// ErrNotBuilt is returned by incremental updates issued before Rebuild.
var ErrNotBuilt = errors.New("renderer has no batch; call Rebuild")

// FrameStats reports what the last frame drew.
type FrameStats struct {
	Commands          int
	Instances         int
	DirectionalShadow bool
	PointShadowLights int
	SpotShadowLights  int
	EnvironmentReady  bool
}

// Renderer owns the batch buffers, the IBL outputs, the shadow maps and the
// HDR target. Structural scene edits go through Rebuild; per-entity
// transforms and per-material edits go through the sub-range updates.
type Renderer struct {
	ctx  *Context
	opts Options
	log  *zap.Logger

	batch     *batch.Batch
	buffers   batch.Buffers
	residency *residency

	lights    *lighting.Buffer
	lightSSBO uint32

	hdr *framebuffer.Framebuffer
	env *ibl.EnvironmentMap

	envPath string

	directional *shadow.Directional
	point       *shadow.Point
	spot        *shadow.Spot

	pbr        *shader.Program
	depth      *shader.Program
	pointDepth *shader.Program
	sky        *shader.Program
	gizmo      *shader.Program
	tonemap    *shader.Program

	width, height int32
	stats         FrameStats
}

// New creates a renderer. It must be called after the GL context exists.
// Shader failures are logged and disable the affected pass; framebuffer
// failures are returned.
func New(ctx *Context, opts Options) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r := &Renderer{
		ctx:    ctx,
		opts:   opts,
		log:    logger.Named("render"),
		lights: lighting.NewBuffer(),
		width:  opts.Width,
		height: opts.Height,
	}
	r.residency = newResidency(ctx.Textures)

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	defines := lightDefines()
	r.pbr = r.compile("pbr", shader.Source{Vertex: shaders.PBRVertexShader, Fragment: shaders.PBRFragmentShader}, defines)
	r.depth = r.compile("shadow_depth", shader.Source{Vertex: shaders.ShadowDepthVertexShader, Fragment: shaders.ShadowDepthFragmentShader}, nil)
	r.pointDepth = r.compile("point_shadow", shader.Source{
		Vertex:   shaders.PointShadowVertexShader,
		Geometry: shaders.PointShadowGeometryShader,
		Fragment: shaders.PointShadowFragmentShader,
	}, nil)
	r.sky = r.compile("sky", shader.Source{Vertex: shaders.SkyVertexShader, Fragment: shaders.SkyFragmentShader}, nil)
	r.gizmo = r.compile("gizmo", shader.Source{Vertex: shaders.GizmoVertexShader, Fragment: shaders.GizmoFragmentShader}, defines)
	r.tonemap = r.compile("tonemap", shader.Source{Vertex: shaders.QuadVertexShader, Fragment: shaders.TonemapFragmentShader}, nil)

	var err error
	if r.hdr, err = framebuffer.New(r.width, r.height, framebuffer.HDR); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("hdr target: %w", err)
	}
	if r.directional, err = shadow.NewDirectional(opts.Shadows, r.depth); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("directional shadow: %w", err)
	}
	if r.point, err = shadow.NewPoint(opts.Shadows, r.pointDepth); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("point shadow: %w", err)
	}
	if r.spot, err = shadow.NewSpot(opts.Shadows, r.depth); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("spot shadow: %w", err)
	}

	gl.GenBuffers(1, &r.lightSSBO)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, r.lightSSBO)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, lighting.BufferSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	r.env = ibl.New(opts.IBL)
	return r, nil
}

func (r *Renderer) compile(name string, src shader.Source, defines map[string]string) *shader.Program {
	p, err := shader.Compile(name, src, defines)
	if err != nil {
		r.log.Error("shader build failed", zap.String("program", name), zap.Error(err))
	}
	return p
}

// Rebuild regenerates every GPU table from the scene. Meshes referencing a
// missing material are pointed at material 0, which is created when the
// scene has none.
func (r *Renderer) Rebuild(s *scene.Scene) error {
	if len(s.Materials) == 0 {
		s.AddMaterial(scene.NewMaterial("default"))
	}
	if n := s.ResolveMaterials(0); n > 0 {
		r.log.Warn("meshes referenced missing materials", zap.Int("remapped", n))
	}

	b, err := batch.Build(s)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	r.residency.syncAll(s.Materials)
	r.buffers.Upload(b, batch.BuildMaterialTable(s.Materials, r.residency))
	r.batch = b

	r.log.Info("scene rebuilt",
		zap.Int("models", len(s.Models)),
		zap.Int("entities", len(s.Entities)),
		zap.Int("materials", len(s.Materials)),
		zap.Int("commands", len(b.Commands)),
		zap.Int("vertices", b.Geometry.VertexCount),
		zap.Int("indices", len(b.Geometry.Indices)),
	)
	return nil
}

// UpdateEntityTransform rewrites the matrices of every instance record the
// entity and its descendants own without touching the rest of the batch.
func (r *Renderer) UpdateEntityTransform(s *scene.Scene, e scene.EntityIndex) error {
	if r.batch == nil {
		return ErrNotBuilt
	}
	return writeSubtree(&r.buffers, r.batch, s, e)
}

// UpdateEntities rewrites the moved entities, as returned by scene.Update,
// from one pass over the world transforms.
func (r *Renderer) UpdateEntities(s *scene.Scene, moved []scene.EntityIndex) error {
	if r.batch == nil {
		return ErrNotBuilt
	}
	if len(moved) == 0 {
		return nil
	}
	world, err := s.WorldTransforms()
	if err != nil {
		return fmt.Errorf("entity transforms: %w", err)
	}
	return writeTransforms(&r.buffers, r.batch, world, moved)
}

// transformWriter is the part of batch.Buffers the sub-range updates use.
type transformWriter interface {
	UpdateInstanceTransform(records []int, world mgl32.Mat4)
}

// writeSubtree rewrites e and every entity whose parent chain passes
// through it, since children store offsets from their parent.
func writeSubtree(w transformWriter, b *batch.Batch, s *scene.Scene, e scene.EntityIndex) error {
	if int(e) < 0 || int(e) >= len(b.EntityRecords) || int(e) >= len(s.Entities) {
		return fmt.Errorf("entity %d: %w", e, scene.ErrNoEntity)
	}
	world, err := s.WorldTransforms()
	if err != nil {
		return fmt.Errorf("entity %d transform: %w", e, err)
	}
	return writeTransforms(w, b, world, append([]scene.EntityIndex{e}, s.Descendants(e)...))
}

func writeTransforms(w transformWriter, b *batch.Batch, world []mgl32.Mat4, entities []scene.EntityIndex) error {
	for _, e := range entities {
		if int(e) < 0 || int(e) >= len(b.EntityRecords) || int(e) >= len(world) {
			return fmt.Errorf("entity %d: %w", e, scene.ErrNoEntity)
		}
		w.UpdateInstanceTransform(b.EntityRecords[e], world[e])
	}
	return nil
}

// UpdateMaterial re-resolves the material's texture residency and rewrites
// its single record.
func (r *Renderer) UpdateMaterial(s *scene.Scene, id uint32) error {
	if r.batch == nil {
		return ErrNotBuilt
	}
	if int(id) >= len(s.Materials) {
		return fmt.Errorf("material %d of %d out of range", id, len(s.Materials))
	}
	m := s.Materials[id]
	r.residency.sync(m)
	r.buffers.UpdateMaterial(id, batch.NewMaterialRecord(m, r.residency))
	return nil
}

// UpdateMaterials re-resolves residency for every material and replaces the
// material table in place. Use it after bulk edits that keep the material
// count, such as loading a texture set; adding materials needs Rebuild.
func (r *Renderer) UpdateMaterials(s *scene.Scene) error {
	if r.batch == nil {
		return ErrNotBuilt
	}
	if n := r.buffers.MaterialCount(); n != len(s.Materials) {
		return fmt.Errorf("material count changed from %d to %d; call Rebuild", n, len(s.Materials))
	}
	r.residency.syncAll(s.Materials)
	r.buffers.UploadMaterials(batch.BuildMaterialTable(s.Materials, r.residency))
	return nil
}

// SetEnvironment loads an equirectangular HDR panorama and rebuilds the
// IBL outputs from it. The source texture is freed once captured.
func (r *Renderer) SetEnvironment(path string) error {
	src, err := texture.LoadEquirect(path)
	if err != nil {
		return fmt.Errorf("environment %s: %w", path, err)
	}
	defer src.Destroy()

	if err := r.env.Precompute(src, r.ctx); err != nil {
		return fmt.Errorf("environment %s: %w", path, err)
	}
	r.envPath = path
	return nil
}

// SetIBLSettings changes the irradiance settings and re-runs the precompute
// for the current environment, if one is loaded.
func (r *Renderer) SetIBLSettings(s ibl.Settings) error {
	r.env.SetSettings(s)
	r.opts.IBL = s
	if r.envPath == "" {
		return nil
	}
	return r.SetEnvironment(r.envPath)
}

// SetExposure sets the tonemapping exposure.
func (r *Renderer) SetExposure(exposure float32) {
	r.opts.Exposure = exposure
}

// Exposure returns the tonemapping exposure.
func (r *Renderer) Exposure() float32 {
	return r.opts.Exposure
}

// Stats returns what the last frame drew.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Frame renders one frame: shadow passes, the batched forward pass into the
// HDR target, light gizmos and sky, then tonemapping to the window. An
// incomplete shadow framebuffer aborts the frame with an error.
func (r *Renderer) Frame(s *scene.Scene, cam *camera.OrbitCamera) error {
	r.stats = FrameStats{
		Commands:         r.buffers.DrawCount(),
		EnvironmentReady: r.env.Ready(),
	}
	if r.batch != nil {
		r.stats.Instances = r.batch.InstanceCount()
	}

	data := r.lights.Pack(s.PointLights, s.SpotLights)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, r.lightSSBO)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	r.stats.DirectionalShadow = r.directional.Render(s.Directional, len(s.Entities), &r.buffers)
	r.stats.PointShadowLights = r.point.Render(s.PointLights, &r.buffers)
	spots, err := r.spot.Render(s.SpotLights, &r.buffers)
	r.stats.SpotShadowLights = spots
	if err != nil {
		return fmt.Errorf("spot shadow: %w", err)
	}

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(aspect(r.width, r.height))

	r.hdr.Bind()
	gl.Viewport(0, 0, r.width, r.height)
	gl.Enable(gl.DEPTH_TEST)
	r.hdr.Clear(0, 0, 0, 1)

	r.drawScene(s, cam.Position(), view, proj)
	r.drawGizmos(s, view, proj)
	r.drawSky(view, proj)

	r.hdr.Unbind()
	r.drawTonemap()
	return nil
}

func (r *Renderer) drawScene(s *scene.Scene, eye mgl32.Vec3, view, proj mgl32.Mat4) {
	if !r.pbr.Valid() || r.buffers.Empty() {
		return
	}
	p := r.pbr
	p.Use()
	p.SetMat4("uView", view)
	p.SetMat4("uProjection", proj)
	p.SetVec3("uCameraPos", eye)

	sun := s.Directional
	sunIntensity := sun.Intensity
	if !sun.Enabled {
		sunIntensity = 0
	}
	p.SetVec3("uSunDirection", sun.Direction.Normalize())
	p.SetVec3("uSunColor", sun.Color)
	p.SetFloat("uSunIntensity", sunIntensity)

	ambient := r.opts.AmbientStrength
	if r.env.Ready() {
		r.env.Bind(UnitIrradiance, UnitPrefilter, UnitBRDF)
	} else {
		ambient = 0
	}
	p.SetFloat("uAmbientStrength", ambient)
	p.SetFloat("uMaxReflectionLod", ibl.PrefilterMips-1)
	p.SetInt("uIrradiance", int32(UnitIrradiance))
	p.SetInt("uPrefilter", int32(UnitPrefilter))
	p.SetInt("uBrdfLUT", int32(UnitBRDF))

	r.directional.BindTexture(UnitDirShadow)
	r.point.BindTexture(UnitPointArray)
	r.spot.BindTexture(UnitSpotArray)
	p.SetInt("uDirShadow", int32(UnitDirShadow))
	p.SetInt("uPointShadows", int32(UnitPointArray))
	p.SetInt("uSpotShadows", int32(UnitSpotArray))

	dirShadows := int32(0)
	if r.directional.Active(sun, len(s.Entities)) {
		dirShadows = 1
	}
	p.SetInt("uDirShadows", dirShadows)
	p.SetMat4("uLightSpace", r.directional.LightSpace)
	p.SetFloat("uPointFar", r.point.Far())
	for i, m := range r.spot.LightSpace {
		p.SetMat4(fmt.Sprintf("uSpotLightSpace[%d]", i), m)
	}

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, LightBinding, r.lightSSBO)
	r.buffers.Draw()
}

func (r *Renderer) drawGizmos(s *scene.Scene, view, proj mgl32.Mat4) {
	n := min(len(s.PointLights), lighting.MaxPointLights)
	if n == 0 || !r.gizmo.Valid() {
		return
	}
	r.gizmo.Use()
	r.gizmo.SetMat4("uView", view)
	r.gizmo.SetMat4("uProjection", proj)
	r.gizmo.SetFloat("uSize", r.opts.GizmoSize)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, LightBinding, r.lightSSBO)
	r.ctx.DrawCubeInstanced(n)
}

func (r *Renderer) drawSky(view, proj mgl32.Mat4) {
	if !r.env.Ready() || !r.sky.Valid() {
		return
	}
	gl.DepthFunc(gl.LEQUAL)
	gl.Disable(gl.CULL_FACE)
	r.sky.Use()
	r.sky.SetMat4("uView", view)
	r.sky.SetMat4("uProjection", proj)
	r.sky.SetFloat("uLod", 0)
	r.sky.SetInt("uEnvironment", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, r.env.Environment)
	r.ctx.DrawCube()
	gl.Enable(gl.CULL_FACE)
	gl.DepthFunc(gl.LESS)
}

func (r *Renderer) drawTonemap() {
	gl.Viewport(0, 0, r.width, r.height)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if !r.tonemap.Valid() {
		return
	}
	gl.Disable(gl.DEPTH_TEST)
	r.tonemap.Use()
	r.tonemap.SetInt("uHDR", 0)
	r.tonemap.SetFloat("uExposure", r.opts.Exposure)
	r.tonemap.SetFloat("uGamma", r.opts.Gamma)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.hdr.ColorTexture())
	r.ctx.DrawQuad()
	gl.Enable(gl.DEPTH_TEST)
}

// Resize resizes the HDR target to the new drawable size.
func (r *Renderer) Resize(width, height int32) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	r.hdr.Resize(width, height)
	r.log.Debug("resized", zap.Int32("width", width), zap.Int32("height", height))
}

// Screenshot reads back the tonemapped window contents and writes a PNG
// into dir. It returns the file path.
func (r *Renderer) Screenshot(dir string) (string, error) {
	pixels := framebuffer.ReadPixels(0, r.width, r.height)
	path, err := debug.NewScreenshotCapture(dir, "radiance").CaptureFromPixels(pixels, int(r.width), int(r.height))
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	r.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// Destroy releases every GPU resource the renderer owns. The Context is
// left to its owner.
func (r *Renderer) Destroy() {
	r.residency.releaseAll()
	r.buffers.Destroy()
	if r.lightSSBO != 0 {
		gl.DeleteBuffers(1, &r.lightSSBO)
		r.lightSSBO = 0
	}
	if r.env != nil {
		r.env.Destroy()
	}
	if r.directional != nil {
		r.directional.Destroy()
	}
	if r.point != nil {
		r.point.Destroy()
	}
	if r.spot != nil {
		r.spot.Destroy()
	}
	if r.hdr != nil {
		r.hdr.Destroy()
	}
	for _, p := range []*shader.Program{r.pbr, r.depth, r.pointDepth, r.sky, r.gizmo, r.tonemap} {
		if p != nil {
			p.Delete()
		}
	}
}
