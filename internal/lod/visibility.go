package lod

import (
	"github.com/Faultbox/midgard-lod/pkg/math"
)

// VisState is the classification of a triangle against the view volume.
// The zero value is VisOut.
type VisState uint8

const (
	VisOut VisState = iota
	VisPartial
	VisIn
	VisUndef // not yet classified
)

func (v VisState) String() string {
	switch v {
	case VisOut:
		return "out"
	case VisPartial:
		return "partial"
	case VisIn:
		return "in"
	default:
		return "undef"
	}
}

// Camera is the viewer snapshot a frame is refined against.
// Positions use X for rows, Z for columns and Y for height.
type Camera struct {
	Position math.Vec3
	Forward  math.Vec3
}

// Clipper classifies world-space boxes against a view volume.
// math.Frustum satisfies it; pass Frustum.SidePlanes() since distance is
// culled separately with the far clip.
type Clipper interface {
	Clip(box math.Box3) math.Containment
}

// AllVisible is a Clipper that reports every box as inside.
type AllVisible struct{}

// Clip implements Clipper.
func (AllVisible) Clip(math.Box3) math.Containment { return math.Inside }

func visOf(c math.Containment) VisState {
	switch c {
	case math.Inside:
		return VisIn
	case math.Intersects:
		return VisPartial
	default:
		return VisOut
	}
}

// frameContext is the per-frame snapshot shared read-only by every tree.
type frameContext struct {
	pos           math.Vec2 // camera (row, col)
	forward       math.Vec2
	near, far     float32
	far2, farSq   float32
	varianceScale float32
	resolution    float32
	clipper       Clipper
}

func newFrameContext(cam Camera, clip Clipper, near, far float32, absMaxError uint16, resolution int) frameContext {
	if clip == nil {
		clip = AllVisible{}
	}
	ctx := frameContext{
		pos:           cam.Position.XZ(),
		forward:       cam.Forward.XZ(),
		near:          near,
		far:           far,
		far2:          far + far,
		farSq:         far * far,
		varianceScale: 1,
		resolution:    float32(resolution),
		clipper:       clip,
	}
	if float32(absMaxError)*far > 0 {
		ctx.varianceScale = ctx.resolution / (float32(absMaxError) * ctx.far2)
	}
	return ctx
}

// visibilityTriangle classifies an internal triangle by distance of its
// split point and by its height-extended bounding box.
func (b *BinTree) visibilityTriangle(i TriIndex) VisState {
	b.mesh.stats.VisibilityTests++
	ctx := &b.mesh.ctx

	d := math.Vec2{X: float32(b.mrow(i)), Y: float32(b.mcol(i))}.Sub(ctx.pos)
	if d.X > ctx.far || d.X < -ctx.far || d.Y > ctx.far || d.Y < -ctx.far || d.LengthSq() > ctx.farSq {
		return VisOut
	}

	return visOf(ctx.clipper.Clip(b.Bounds(i)))
}

// inheritedVisibility classifies i the way updateSplit would reach it: the
// first ancestor that is fully in or out decides for the whole subtree and
// leaves take the classification of their parent.
func (b *BinTree) inheritedVisibility(i TriIndex) VisState {
	level := Level(i)
	v := VisPartial
	for l := 0; l <= level; l++ {
		a := i >> uint(level-l)
		if b.layout.IsLeaf(a) {
			break
		}
		v = b.visibilityTriangle(a)
		if v != VisPartial {
			return v
		}
	}
	return v
}

// priorityCalc scales a triangle's error by its depth along the view
// direction. Nearer triangles score higher.
func (b *BinTree) priorityCalc(i TriIndex) Priority {
	b.mesh.stats.PriorityCalcs++
	ctx := &b.mesh.ctx

	c := math.Vec2{X: float32(b.mrow(i)), Y: float32(b.mcol(i))}.Sub(ctx.pos)
	z := ctx.far2 - ctx.forward.Dot(c)
	if z < ctx.near {
		z = ctx.near
	}
	z *= float32(b.treeError[i]) * ctx.varianceScale

	switch {
	case !(z > 0):
		return 0
	case z >= ctx.resolution:
		return Priority(ctx.resolution - 1)
	default:
		return Priority(z)
	}
}
