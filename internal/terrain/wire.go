package terrain

import "slices"

// Wireframe returns a line list (index pairs) with every triangle edge of
// the mesh once, for debug overlays of the current refinement.
func (m *Mesh) Wireframe() []uint32 {
	seen := make(map[[2]uint32]struct{}, len(m.Indices))
	lines := make([]uint32, 0, len(m.Indices)*2)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := m.Indices[t : t+3]
		for k := range 3 {
			e := [2]uint32{tri[k], tri[(k+1)%3]}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			lines = append(lines, e[0], e[1])
		}
	}
	return slices.Clip(lines)
}
