// Package camera provides viewer cameras that drive terrain refinement.
// Positions use X for terrain rows, Z for columns and Y for height.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

var up = math.Vec3{X: 0, Y: 1, Z: 0}

// Viewer is a camera that can be snapshotted for a frame.
type Viewer interface {
	Position() math.Vec3
	Target() math.Vec3
}

// Lens holds the projection parameters.
type Lens struct {
	FOV    float32 // vertical, degrees
	Aspect float32 // width/height
	Near   float32
	Far    float32
}

// Projection returns the perspective matrix for the lens.
func (l Lens) Projection() math.Mat4 {
	return math.Perspective(radians(l.FOV), l.Aspect, l.Near, l.Far)
}

// ViewMatrix returns the view matrix for a viewer.
func ViewMatrix(v Viewer) math.Mat4 {
	return math.LookAt(v.Position(), v.Target(), up)
}

// Snapshot returns the refinement camera and the side planes of the view
// frustum for one frame. The far plane is left to the mesh's distance test.
func Snapshot(v Viewer, lens Lens) (lod.Camera, math.Frustum) {
	pos := v.Position()
	cam := lod.Camera{
		Position: pos,
		Forward:  v.Target().Sub(pos).Normalize(),
	}
	vp := lens.Projection().Mul(ViewMatrix(v))
	return cam, math.FrustumFromVP(vp).SidePlanes()
}

// FlyCamera moves freely with yaw and pitch. Yaw 0 looks along +X; positive
// pitch looks down.
type FlyCamera struct {
	Pos   math.Vec3
	Yaw   float32 // radians
	Pitch float32 // radians

	Speed    float32 // world units per Move step
	MaxPitch float32
}

// NewFlyCamera creates a fly camera at pos looking along +X.
func NewFlyCamera(pos math.Vec3) *FlyCamera {
	return &FlyCamera{
		Pos:      pos,
		Speed:    1,
		MaxPitch: 1.5,
	}
}

// Position returns the camera position in world space.
func (c *FlyCamera) Position() math.Vec3 { return c.Pos }

// Target returns a point one unit ahead of the camera.
func (c *FlyCamera) Target() math.Vec3 { return c.Pos.Add(c.Forward()) }

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: float32(cp * gomath.Cos(float64(c.Yaw))),
		Y: float32(-gomath.Sin(float64(c.Pitch))),
		Z: float32(cp * gomath.Sin(float64(c.Yaw))),
	}
}

// RightDirection returns the camera's right direction on the XZ plane.
func (c *FlyCamera) RightDirection() (x, z float32) {
	return float32(-gomath.Sin(float64(c.Yaw))), float32(gomath.Cos(float64(c.Yaw)))
}

// Turn rotates the camera, clamping pitch to MaxPitch either way.
func (c *FlyCamera) Turn(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch = clampf(c.Pitch+dpitch, -c.MaxPitch, c.MaxPitch)
}

// Move translates the camera along its heading on the ground plane, to
// its right and straight up, scaled by Speed.
func (c *FlyCamera) Move(forward, right, rise float32) {
	fx, fz := float32(gomath.Cos(float64(c.Yaw))), float32(gomath.Sin(float64(c.Yaw)))
	rx, rz := c.RightDirection()
	c.Pos.X += (fx*forward + rx*right) * c.Speed
	c.Pos.Z += (fz*forward + rz*right) * c.Speed
	c.Pos.Y += rise * c.Speed
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    200,
		RotationX:   0.5,
		MinDistance: 10,
		MaxDistance: 5000,
		MinPitch:    0.1,
		MaxPitch:    1.5,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	rx, ry := float64(c.RotationX), float64(c.RotationY)
	return c.Center.Add(math.Vec3{
		X: c.Distance * float32(gomath.Cos(rx)*gomath.Sin(ry)),
		Y: c.Distance * float32(gomath.Sin(rx)),
		Z: c.Distance * float32(gomath.Cos(rx)*gomath.Cos(ry)),
	})
}

// Target returns the orbit center.
func (c *OrbitCamera) Target() math.Vec3 { return c.Center }

// Rotate changes yaw and pitch, clamping pitch.
func (c *OrbitCamera) Rotate(dyaw, dpitch float32) {
	c.RotationY += dyaw
	c.RotationX = clampf(c.RotationX+dpitch, c.MinPitch, c.MaxPitch)
}

// Zoom scales the distance by 1-delta, clamped.
func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance = clampf(c.Distance-delta*c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(box math.Box3) {
	c.Center = box.Center()
	size := max(box.Max.X-box.Min.X, box.Max.Z-box.Min.Z)
	c.Distance = clampf(size*0.75, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0
}

func radians(deg float32) float32 { return deg * gomath.Pi / 180 }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
