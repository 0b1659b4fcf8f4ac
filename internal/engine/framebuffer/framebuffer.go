// Package framebuffer provides offscreen render targets and completeness checks.
package framebuffer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// ErrIncomplete is wrapped by every completeness failure together with the
// GL status code.
var ErrIncomplete = errors.New("framebuffer incomplete")

// Format describes the color attachment of a Framebuffer.
type Format struct {
	Internal int32
	Pixel    uint32
	Type     uint32
}

var (
	// HDR is a float color target for lighting before tonemapping.
	HDR = Format{Internal: gl.RGBA16F, Pixel: gl.RGBA, Type: gl.FLOAT}
	// LDR is an 8-bit color target.
	LDR = Format{Internal: gl.RGBA8, Pixel: gl.RGBA, Type: gl.UNSIGNED_BYTE}
)

// Check returns an error wrapping ErrIncomplete when the framebuffer bound to
// target is not complete.
func Check(target uint32) error {
	return StatusError(gl.CheckFramebufferStatus(target))
}

// StatusError converts a CheckFramebufferStatus result to an error.
func StatusError(status uint32) error {
	if status == gl.FRAMEBUFFER_COMPLETE {
		return nil
	}
	return fmt.Errorf("%w: 0x%x", ErrIncomplete, status)
}

// Framebuffer manages an offscreen render target with color and depth attachments.
type Framebuffer struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
	format       Format
}

// New creates a framebuffer with the given color format.
func New(width, height int32, format Format) (*Framebuffer, error) {
	fb := &Framebuffer{
		width:  max(width, 1),
		height: max(height, 1),
		format: format,
	}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	fb.allocColor()
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	gl.GenRenderbuffers(1, &fb.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)

	if err := Check(gl.FRAMEBUFFER); err != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		fb.Destroy()
		return err
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (fb *Framebuffer) allocColor() {
	gl.TexImage2D(gl.TEXTURE_2D, 0, fb.format.Internal, fb.width, fb.height, 0, fb.format.Pixel, fb.format.Type, nil)
}

// Bind makes this framebuffer the current render target.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// BindWithViewport binds and sets viewport, saving previous state.
// Returns a restore function to restore the previous framebuffer and viewport.
func (fb *Framebuffer) BindWithViewport() func() {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// Clear clears color and depth buffers with the specified color.
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ColorTexture returns the color attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Resize reallocates the attachments if the dimensions changed.
func (fb *Framebuffer) Resize(width, height int32) {
	width, height = max(width, 1), max(height, 1)
	if width == fb.width && height == fb.height {
		return
	}
	fb.width = width
	fb.height = height

	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	fb.allocColor()

	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
}

// ReadPixels reads an RGBA8 rectangle from the framebuffer object fbo
// (0 for the window). Rows are bottom-up as OpenGL returns them.
func ReadPixels(fbo uint32, width, height int32) []byte {
	pixels := make([]byte, width*height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFBO))

	return pixels
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
}
