package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// GroundFunc returns the terrain height under (row, col).
type GroundFunc func(row, col float32) float32

// Path is a deterministic fly-through: a figure eight across the extent,
// flown at Height above the ground and looking ahead along the curve.
type Path struct {
	Extent math.Rect2 // X rows, Y columns
	Height float32
	Pitch  float32 // degrees, positive looks down, clamped to the camera's MaxPitch
	Period int     // frames per loop
	Ground GroundFunc
}

// At positions cam for the given frame.
func (p Path) At(frame int, cam *FlyCamera) {
	period := max(p.Period, 1)
	t := 2 * gomath.Pi * float64(frame%period) / float64(period)

	cr := float64(p.Extent.Min.X+p.Extent.Max.X) / 2
	cc := float64(p.Extent.Min.Y+p.Extent.Max.Y) / 2
	ar := float64(p.Extent.Max.X-p.Extent.Min.X) / 2 * 0.8
	ac := float64(p.Extent.Max.Y-p.Extent.Min.Y) / 2 * 0.8

	row := float32(cr + ar*gomath.Sin(t))
	col := float32(cc + ac*gomath.Sin(2*t))
	// Heading follows the tangent of the curve.
	dr := ar * gomath.Cos(t)
	dc := 2 * ac * gomath.Cos(2*t)

	h := p.Height
	if p.Ground != nil {
		h += p.Ground(row, col)
	}
	cam.Pos = math.Vec3{X: row, Y: h, Z: col}
	cam.Yaw = float32(gomath.Atan2(dc, dr))
	cam.Pitch = 0
	cam.Turn(0, radians(p.Pitch))
}
