package heightfield

import (
	stdmath "math"
	"math/rand"
)

// Sine fills the grid with two crossed half sine waves peaking at the
// centre, 20000 raw units high.
func (g *Grid) Sine() {
	for r := range g.rows {
		for c := range g.cols {
			v := stdmath.Sin(stdmath.Pi*float64(r)/float64(g.rows)) +
				stdmath.Sin(stdmath.Pi*float64(c)/float64(g.cols))
			g.Set(r, c, int16(10000*v))
		}
	}
}

// Fractal fills the grid with diamond-square noise spanning raw values
// [0, amplitude]. roughness in (0, 1) controls how fast the random offsets
// shrink per level; higher is rougher. The result depends only on seed and
// the grid size.
func (g *Grid) Fractal(seed int64, roughness float64, amplitude int) {
	n := 1
	for n+1 < max(g.rows, g.cols) {
		n <<= 1
	}
	size := n + 1
	h := make([]float64, size*size)
	rng := rand.New(rand.NewSource(seed))
	offset := func() float64 { return rng.Float64()*2 - 1 }

	for _, r := range []int{0, n} {
		for _, c := range []int{0, n} {
			h[r*size+c] = rng.Float64()
		}
	}

	spread := 1.0
	for step := n; step > 1; step /= 2 {
		half := step / 2
		for r := half; r < n; r += step {
			for c := half; c < n; c += step {
				sum := h[(r-half)*size+c-half] + h[(r-half)*size+c+half] +
					h[(r+half)*size+c-half] + h[(r+half)*size+c+half]
				h[r*size+c] = sum/4 + offset()*spread
			}
		}
		for r := 0; r <= n; r += half {
			for c := (r/half + 1) % 2 * half; c <= n; c += step {
				sum, cnt := 0.0, 0
				for _, d := range [4][2]int{{-half, 0}, {half, 0}, {0, -half}, {0, half}} {
					rr, cc := r+d[0], c+d[1]
					if rr >= 0 && rr <= n && cc >= 0 && cc <= n {
						sum += h[rr*size+cc]
						cnt++
					}
				}
				h[r*size+c] = sum/float64(cnt) + offset()*spread
			}
		}
		spread *= roughness
	}

	lo, hi := stdmath.Inf(1), stdmath.Inf(-1)
	for r := range g.rows {
		for c := range g.cols {
			lo = min(lo, h[r*size+c])
			hi = max(hi, h[r*size+c])
		}
	}
	amp := float64(min(amplitude, MaxRaw))
	for r := range g.rows {
		for c := range g.cols {
			var v float64
			if hi > lo {
				v = (h[r*size+c] - lo) / (hi - lo) * amp
			}
			g.Set(r, c, clampRaw(stdmath.Round(v)))
		}
	}
}

// Canyonize raises every sample to the power 1+f, deepening valleys
// relative to peaks. Negative samples are mirrored.
func (g *Grid) Canyonize(f float64) {
	f++
	for i, d := range g.data {
		v := stdmath.Pow(stdmath.Abs(float64(d)), f)
		if d < 0 {
			v = -v
		}
		g.data[i] = clampRaw(v)
	}
}

// Glaciate flattens interior samples that differ from the mean of their
// four neighbours by less than f of the full raw range.
func (g *Grid) Glaciate(f float64) {
	limit := f * 0xFFFF
	for r := 1; r+1 < g.rows; r++ {
		for c := 1; c+1 < g.cols; c++ {
			d := int(g.Get(r, c))
			dn := (int(g.Get(r-1, c)) + int(g.Get(r+1, c)) + int(g.Get(r, c-1)) + int(g.Get(r, c+1))) / 4
			if stdmath.Abs(float64(d-dn)) < limit {
				g.Set(r, c, int16(dn))
			}
		}
	}
}

// ScaleBy multiplies every sample by s.
func (g *Grid) ScaleBy(s float64) {
	for i, d := range g.data {
		g.data[i] = clampRaw(s * float64(d))
	}
}

// Translate adds t to every sample.
func (g *Grid) Translate(t float64) {
	for i, d := range g.data {
		g.data[i] = clampRaw(t + float64(d))
	}
}

// ClampMin raises samples below m to m.
func (g *Grid) ClampMin(m int16) {
	for i, d := range g.data {
		g.data[i] = max(d, m)
	}
}

// ClampMax lowers samples above m to m.
func (g *Grid) ClampMax(m int16) {
	for i, d := range g.data {
		g.data[i] = min(d, m)
	}
}

// CloseEdge sets the border samples to world height h, closing the terrain
// off at its rim.
func (g *Grid) CloseEdge(h float32) {
	v := g.Quantize(h)
	for r := range g.rows {
		g.Set(r, 0, v)
		g.Set(r, g.cols-1, v)
	}
	for c := range g.cols {
		g.Set(0, c, v)
		g.Set(g.rows-1, c, v)
	}
}
