// Package shaders provides embedded GLSL shader sources.
//
// Programs that size arrays by light count expect MAX_POINT_LIGHTS and
// MAX_SPOT_LIGHTS to be injected with shader.WithDefines.
package shaders

import _ "embed"

// PBRVertexShader reads its instance record at gl_BaseInstance + gl_InstanceID.
//
//go:embed pbr.vert
var PBRVertexShader string

// PBRFragmentShader shades with bindless material textures, IBL and shadows.
//
//go:embed pbr.frag
var PBRFragmentShader string

// ShadowDepthVertexShader projects instances with a single light-space matrix.
//
//go:embed shadow_depth.vert
var ShadowDepthVertexShader string

// ShadowDepthFragmentShader writes depth only.
//
//go:embed shadow_depth.frag
var ShadowDepthFragmentShader string

// PointShadowVertexShader passes world positions to the geometry stage.
//
//go:embed point_shadow.vert
var PointShadowVertexShader string

// PointShadowGeometryShader fans each triangle out to the six cube faces of
// one light's slice in the cube-map array.
//
//go:embed point_shadow.geom
var PointShadowGeometryShader string

// PointShadowFragmentShader stores linear distance to the light.
//
//go:embed point_shadow.frag
var PointShadowFragmentShader string

// CubeVertexShader renders the unit cube for cubemap capture.
//
//go:embed cube.vert
var CubeVertexShader string

// EquirectFragmentShader projects an equirectangular panorama onto a cube face.
//
//go:embed equirect.frag
var EquirectFragmentShader string

// IrradianceFragmentShader convolves the environment with a cosine kernel.
//
//go:embed irradiance.frag
var IrradianceFragmentShader string

// PrefilterFragmentShader convolves the environment with a GGX kernel.
//
//go:embed prefilter.frag
var PrefilterFragmentShader string

// QuadVertexShader draws a full-screen quad.
//
//go:embed quad.vert
var QuadVertexShader string

// BRDFFragmentShader integrates the split-sum BRDF lookup table.
//
//go:embed brdf.frag
var BRDFFragmentShader string

// SkyVertexShader draws the environment cube at the far plane.
//
//go:embed sky.vert
var SkyVertexShader string

// SkyFragmentShader samples the environment cubemap.
//
//go:embed sky.frag
var SkyFragmentShader string

// GizmoVertexShader places one small cube per point light.
//
//go:embed gizmo.vert
var GizmoVertexShader string

// GizmoFragmentShader outputs the light color.
//
//go:embed gizmo.frag
var GizmoFragmentShader string

// TonemapFragmentShader applies exposure, Reinhard and gamma.
//
//go:embed tonemap.frag
var TonemapFragmentShader string
