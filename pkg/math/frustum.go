package math

// Containment is the result of clipping a volume against a frustum.
type Containment int

const (
	// Outside means the volume is entirely outside at least one plane.
	Outside Containment = iota
	// Intersects means the volume straddles at least one plane.
	Intersects
	// Inside means the volume is inside every plane.
	Inside
)

// String returns the containment name.
func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Intersects:
		return "intersects"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// Plane represents a half-space: Normal·p + D >= 0 is inside.
type Plane struct {
	Normal Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane.
// Positive means on the inside.
func (p Plane) DistanceTo(pt Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the clip planes of a view volume.
// Planes are ordered left, right, bottom, top, near, far; a frustum built
// with SidePlanes carries only the first four.
type Frustum struct {
	Planes []Plane
}

// FrustumFromVP extracts the six frustum planes from a view-projection matrix
// (Gribb/Hartmann). Planes are normalized so DistanceTo returns world units.
func FrustumFromVP(vp Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	return Frustum{Planes: []Plane{
		planeOf(r3, r0, 1),
		planeOf(r3, r0, -1),
		planeOf(r3, r1, 1),
		planeOf(r3, r1, -1),
		planeOf(r3, r2, 1),
		planeOf(r3, r2, -1),
	}}
}

// SidePlanes returns a copy of f without the near and far planes.
// Distance culling is handled separately by the terrain engine.
func (f Frustum) SidePlanes() Frustum {
	n := len(f.Planes)
	if n > 4 {
		n = 4
	}
	planes := make([]Plane, n)
	copy(planes, f.Planes[:n])
	return Frustum{Planes: planes}
}

func planeOf(a, b Vec4, sign float32) Plane {
	x := a[0] + sign*b[0]
	y := a[1] + sign*b[1]
	z := a[2] + sign*b[2]
	d := a[3] + sign*b[3]
	l := Vec3{x, y, z}.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: Vec3{x / l, y / l, z / l}, D: d / l}
}

// Clip classifies an axis-aligned box against the frustum using the
// p-vertex/n-vertex test.
func (f Frustum) Clip(box Box3) Containment {
	result := Inside
	for _, p := range f.Planes {
		pv, nv := box.Max, box.Min
		if p.Normal.X < 0 {
			pv.X, nv.X = box.Min.X, box.Max.X
		}
		if p.Normal.Y < 0 {
			pv.Y, nv.Y = box.Min.Y, box.Max.Y
		}
		if p.Normal.Z < 0 {
			pv.Z, nv.Z = box.Min.Z, box.Max.Z
		}
		if p.DistanceTo(pv) < 0 {
			return Outside
		}
		if p.DistanceTo(nv) < 0 {
			result = Intersects
		}
	}
	return result
}

// ContainsPoint reports whether pt is inside every plane.
func (f Frustum) ContainsPoint(pt Vec3) bool {
	for _, p := range f.Planes {
		if p.DistanceTo(pt) < 0 {
			return false
		}
	}
	return true
}
