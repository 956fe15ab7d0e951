package heightfield

import (
	"encoding/binary"
	"fmt"
	"io"
	stdmath "math"
)

// Ground altitude tables (.gat) store a grid of cells, each with the
// altitude of its four corners and a walkability type. Altitudes grow
// downwards.

const (
	gatMagic   = "GRAT"
	gatMaxSide = 4096
)

type gatHeader struct {
	Magic         [4]byte
	Minor, Major  uint8
	Width, Height uint32
}

// gatCell corners are ordered bottom-left, bottom-right, top-left, top-right.
type gatCell struct {
	Heights [4]float32
	Type    uint32
}

// ReadGAT reads a ground altitude table. A table of w x h cells gives a grid
// of (h+1) x (w+1) samples, each the mean of the cell corners that meet
// there, negated so that up is positive. The grid is quantized over the
// table's altitude range.
func ReadGAT(r io.Reader) (*Grid, error) {
	var hdr gatHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: gat header: %v", ErrFormat, err)
	}
	if string(hdr.Magic[:]) != gatMagic {
		return nil, fmt.Errorf("%w: bad gat magic %q", ErrFormat, hdr.Magic[:])
	}
	if hdr.Major < 1 || hdr.Major > 3 {
		return nil, fmt.Errorf("%w: gat version %d.%d", ErrFormat, hdr.Major, hdr.Minor)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > gatMaxSide || hdr.Height > gatMaxSide {
		return nil, fmt.Errorf("%w: gat dimensions %dx%d", ErrFormat, hdr.Width, hdr.Height)
	}

	w, h := int(hdr.Width), int(hdr.Height)
	cells := make([]gatCell, w*h)
	if err := binary.Read(r, binary.LittleEndian, cells); err != nil {
		return nil, fmt.Errorf("%w: gat cells: %v", ErrFormat, err)
	}

	g, err := New(h+1, w+1)
	if err != nil {
		return nil, err
	}

	sum := make([]float64, len(g.data))
	count := make([]uint8, len(g.data))
	for y := range h {
		for x := range w {
			for k, a := range cells[y*w+x].Heights {
				i := (y+k>>1)*g.cols + x + k&1
				sum[i] -= float64(a)
				count[i]++
			}
		}
	}

	lo, hi := stdmath.Inf(1), stdmath.Inf(-1)
	for i := range sum {
		sum[i] /= float64(count[i])
		lo = min(lo, sum[i])
		hi = max(hi, sum[i])
	}

	g.SetRange(float32(lo), float32(hi))
	for i, v := range sum {
		g.data[i] = g.Quantize(float32(v))
	}
	return g, nil
}

// WriteGAT writes g as a version 1.2 ground altitude table with one cell per
// grid square. Every cell is walkable.
func WriteGAT(w io.Writer, g *Grid) error {
	hdr := gatHeader{
		Minor:  2,
		Major:  1,
		Width:  uint32(g.cols - 1),
		Height: uint32(g.rows - 1),
	}
	copy(hdr.Magic[:], gatMagic)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	cells := make([]gatCell, 0, (g.rows-1)*(g.cols-1))
	for y := range g.rows - 1 {
		for x := range g.cols - 1 {
			var c gatCell
			for k := range c.Heights {
				c.Heights[k] = -g.Height(y+k>>1, x+k&1)
			}
			cells = append(cells, c)
		}
	}
	return binary.Write(w, binary.LittleEndian, cells)
}
