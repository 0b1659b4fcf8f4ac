package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Faultbox/radiance/internal/engine/framebuffer"
)

// depthTarget is a depth-only framebuffer backed by a 2D, 2D array or
// cube-map array texture.
type depthTarget struct {
	fbo          uint32
	texture      uint32
	kind         uint32 // gl.TEXTURE_2D, gl.TEXTURE_2D_ARRAY or gl.TEXTURE_CUBE_MAP_ARRAY
	resolution   int32
	layers       int32 // Array layers; for cube arrays this counts layer-faces
	prevViewport [4]int32
}

func newDepthTarget(kind uint32, resolution, layers int32, compare bool) (*depthTarget, error) {
	t := &depthTarget{kind: kind, resolution: resolution, layers: layers}

	gl.GenTextures(1, &t.texture)
	gl.BindTexture(kind, t.texture)
	switch kind {
	case gl.TEXTURE_2D:
		gl.TexImage2D(kind, 0, gl.DEPTH_COMPONENT32F, resolution, resolution, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	default:
		gl.TexImage3D(kind, 0, gl.DEPTH_COMPONENT32F, resolution, resolution, layers, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	}
	gl.TexParameteri(kind, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(kind, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if kind == gl.TEXTURE_CUBE_MAP_ARRAY {
		gl.TexParameteri(kind, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(kind, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(kind, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	} else {
		// Clamp to border with white so samples outside the frustum are lit.
		gl.TexParameteri(kind, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(kind, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		border := []float32{1, 1, 1, 1}
		gl.TexParameterfv(kind, gl.TEXTURE_BORDER_COLOR, &border[0])
	}
	if compare {
		gl.TexParameteri(kind, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(kind, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	if kind == gl.TEXTURE_2D_ARRAY {
		gl.FramebufferTextureLayer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, t.texture, 0, 0)
	} else {
		// Layered attachment for cube arrays; the geometry shader picks gl_Layer.
		gl.FramebufferTexture(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, t.texture, 0)
	}
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	err := framebuffer.Check(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(kind, 0)
	if err != nil {
		t.destroy()
		return nil, fmt.Errorf("shadow target: %w", err)
	}
	return t, nil
}

// bind makes the target current for a depth pass with front-face culling.
func (t *depthTarget) bind(clear bool) {
	gl.GetIntegerv(gl.VIEWPORT, &t.prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.resolution, t.resolution)
	if clear {
		gl.Clear(gl.DEPTH_BUFFER_BIT)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)
}

// selectLayer attaches one layer of a 2D array target and clears it. An
// incomplete framebuffer after the attach is returned and nothing is cleared.
func (t *depthTarget) selectLayer(layer int32) error {
	gl.FramebufferTextureLayer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, t.texture, 0, layer)
	if err := layerError(layer, gl.CheckFramebufferStatus(gl.FRAMEBUFFER)); err != nil {
		return err
	}
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	return nil
}

// layerError names the layer whose attachment left the framebuffer incomplete.
func layerError(layer int32, status uint32) error {
	if err := framebuffer.StatusError(status); err != nil {
		return fmt.Errorf("shadow layer %d: %w", layer, err)
	}
	return nil
}

// unbind restores the default framebuffer, viewport and back-face culling.
func (t *depthTarget) unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(t.prevViewport[0], t.prevViewport[1], t.prevViewport[2], t.prevViewport[3])
	gl.CullFace(gl.BACK)
}

// bindTexture binds the depth texture to a texture unit index.
func (t *depthTarget) bindTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(t.kind, t.texture)
}

func (t *depthTarget) destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.texture != 0 {
		gl.DeleteTextures(1, &t.texture)
		t.texture = 0
	}
}

func (t *depthTarget) valid() bool {
	return t != nil && t.fbo != 0 && t.texture != 0
}
