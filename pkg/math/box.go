package math

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox returns a box that any Extend call will replace.
func EmptyBox() Box3 {
	return Box3{
		Min: Vec3{1e30, 1e30, 1e30},
		Max: Vec3{-1e30, -1e30, -1e30},
	}
}

// Extend grows the box to contain p.
func (b Box3) Extend(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box3) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the box midpoint.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Rect2 is an axis-aligned rectangle on the ground plane.
type Rect2 struct {
	Min, Max Vec2
}

// RectOf returns the rectangle spanned by two corner points in any order.
func RectOf(a, b Vec2) Rect2 {
	return Rect2{
		Min: Vec2{min(a.X, b.X), min(a.Y, b.Y)},
		Max: Vec2{max(a.X, b.X), max(a.Y, b.Y)},
	}
}

// Intersects reports whether the two rectangles overlap, touching edges included.
func (r Rect2) Intersects(other Rect2) bool {
	return r.Min.X <= other.Max.X && other.Min.X <= r.Max.X &&
		r.Min.Y <= other.Max.Y && other.Min.Y <= r.Max.Y
}
