package heightfield

import (
	"errors"
	"fmt"
	stdmath "math"
)

// ErrUnknownFilter is returned by Apply for an unrecognised filter name.
var ErrUnknownFilter = errors.New("heightfield: unknown filter")

// Filter names accepted by Apply.
const (
	FilterCanyonize = "canyonize"  // amount: exponent offset
	FilterGlaciate  = "glaciate"   // amount: fraction of the raw range
	FilterScale     = "scale"      // amount: factor
	FilterTranslate = "translate"  // amount: raw offset
	FilterClampMin  = "clamp_min"  // amount: raw floor
	FilterClampMax  = "clamp_max"  // amount: raw ceiling
	FilterCloseEdge = "close_edge" // amount: world height of the rim
)

// Apply runs the named filter with its amount. Quantization must be set
// before close_edge since its amount is a world height.
func (g *Grid) Apply(name string, amount float64) error {
	switch name {
	case FilterCanyonize:
		g.Canyonize(amount)
	case FilterGlaciate:
		g.Glaciate(amount)
	case FilterScale:
		g.ScaleBy(amount)
	case FilterTranslate:
		g.Translate(amount)
	case FilterClampMin:
		g.ClampMin(clampRaw(stdmath.Round(amount)))
	case FilterClampMax:
		g.ClampMax(clampRaw(stdmath.Round(amount)))
	case FilterCloseEdge:
		g.CloseEdge(float32(amount))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return nil
}
