// Package render draws a batched scene with image-based lighting and
// shadows into an HDR target and tonemaps it to the window.
package render

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Faultbox/radiance/internal/engine/texture"
)

// Context holds GPU resources shared by every pass: the unit cube used by
// IBL capture, the sky and light gizmos, the full-screen quad used by the
// BRDF bake and tonemapping, and the texture residency registry.
// Create it once after the GL context exists.
type Context struct {
	Textures *texture.Registry

	cubeVAO, cubeVBO uint32
	quadVAO, quadVBO uint32
}

// NewContext uploads the shared primitives.
func NewContext() *Context {
	c := &Context{Textures: texture.NewRegistry()}

	cube := cubeVertices()
	gl.GenVertexArrays(1, &c.cubeVAO)
	gl.GenBuffers(1, &c.cubeVBO)
	gl.BindVertexArray(c.cubeVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.cubeVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(cube)*4, gl.Ptr(cube), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)

	quad := quadVertices()
	gl.GenVertexArrays(1, &c.quadVAO)
	gl.GenBuffers(1, &c.quadVBO)
	gl.BindVertexArray(c.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return c
}

// cubeVertices returns the 36 positions of a cube spanning -1..1, wound
// counter-clockwise seen from outside.
func cubeVertices() []float32 {
	corners := [8][3]float32{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // +Z
		{1, 0, 3, 2}, // -Z
		{5, 1, 2, 6}, // +X
		{0, 4, 7, 3}, // -X
		{7, 6, 2, 3}, // +Y
		{0, 1, 5, 4}, // -Y
	}
	out := make([]float32, 0, 36*3)
	for _, f := range faces {
		for _, k := range [6]int{0, 1, 2, 0, 2, 3} {
			c := corners[f[k]]
			out = append(out, c[0], c[1], c[2])
		}
	}
	return out
}

// quadVertices returns a triangle strip covering clip space: xy then uv.
func quadVertices() []float32 {
	return []float32{
		-1, 1, 0, 1,
		-1, -1, 0, 0,
		1, 1, 1, 1,
		1, -1, 1, 0,
	}
}

// DrawCube draws the unit cube with the current program.
func (c *Context) DrawCube() {
	gl.BindVertexArray(c.cubeVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)
}

// DrawCubeInstanced draws n cubes; the program reads gl_InstanceID.
func (c *Context) DrawCubeInstanced(n int) {
	if n <= 0 {
		return
	}
	gl.BindVertexArray(c.cubeVAO)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, 36, int32(n))
	gl.BindVertexArray(0)
}

// DrawQuad draws the full-screen quad.
func (c *Context) DrawQuad() {
	gl.BindVertexArray(c.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

// Destroy evicts every resident texture handle and frees the primitives.
func (c *Context) Destroy() {
	c.Textures.ReleaseAll()
	for _, id := range []*uint32{&c.cubeVBO, &c.quadVBO} {
		if *id != 0 {
			gl.DeleteBuffers(1, id)
			*id = 0
		}
	}
	for _, id := range []*uint32{&c.cubeVAO, &c.quadVAO} {
		if *id != 0 {
			gl.DeleteVertexArrays(1, id)
			*id = 0
		}
	}
}
