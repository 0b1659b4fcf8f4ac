package camera

import "github.com/go-gl/mathgl/mgl32"

// Cube face order: +X, -X, +Y, -Y, +Z, -Z, matching GL_TEXTURE_CUBE_MAP_POSITIVE_X + i.
var cubeFaces = [6]struct{ dir, up mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// CubeFaceViews returns the six look-at matrices from eye through each cube face.
func CubeFaceViews(eye mgl32.Vec3) [6]mgl32.Mat4 {
	var views [6]mgl32.Mat4
	for i, f := range cubeFaces {
		views[i] = mgl32.LookAtV(eye, eye.Add(f.dir), f.up)
	}
	return views
}

// CubeFaceDirection returns the outward direction of face i.
func CubeFaceDirection(i int) mgl32.Vec3 {
	return cubeFaces[i].dir
}

// CubeProjection is the 90 degree square projection used with CubeFaceViews.
func CubeProjection(near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(90), 1, near, far)
}
