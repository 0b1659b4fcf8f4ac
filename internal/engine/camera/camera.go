// Package camera provides the viewer's orbit camera and the fixed view sets
// used for cubemap rendering.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // Pitch (radians)
	RotationY float32 // Yaw (radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Projection
	FovY float32 // Degrees
	Near float32
	Far  float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        18.0,
		RotationX:       0.45,
		MinDistance:     1.0,
		MaxDistance:     200.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            45.0,
		Near:            0.1,
		Far:             500.0,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	offset := mgl32.Vec3{
		float32(math.Cos(pitch) * math.Sin(yaw)),
		float32(math.Sin(pitch)),
		float32(math.Cos(pitch) * math.Cos(yaw)),
	}
	return c.Center.Add(offset.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point in the camera's ground plane.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	speed := c.Distance * 0.01
	yaw := float64(c.RotationY)

	dir := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
	side := mgl32.Vec3{float32(math.Cos(yaw)), 0, float32(-math.Sin(yaw))}

	// Forward moves away from the eye, toward -dir.
	move := dir.Mul(-forward).Add(side.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	c.Center = c.Center.Add(move.Mul(speed))
}

// FitToBounds centers the camera on a box and backs off to see all of it.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Center = lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	extent := max(size.X(), size.Y(), size.Z())
	c.Distance = mgl32.Clamp(extent*1.2, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.45
	c.RotationY = 0.6
}
