package terrain

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ writes the mesh as a Wavefront OBJ with one group per tile.
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", len(m.Vertices), m.TriangleCount())
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vt %g %g\n", v.TexCoord[0], v.TexCoord[1])
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
	}
	for _, g := range m.Groups {
		fmt.Fprintf(bw, "g tree%d\n", g.Tree)
		idx := m.Indices[g.StartIndex : g.StartIndex+g.IndexCount]
		for t := 0; t+2 < len(idx); t += 3 {
			a, b, c := idx[t]+1, idx[t+1]+1, idx[t+2]+1
			fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
	}
	return bw.Flush()
}

// WriteWireOBJ writes the mesh edges as Wavefront OBJ line elements.
func (m *Mesh) WriteWireOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	lines := m.Wireframe()
	fmt.Fprintf(bw, "# %d vertices, %d edges\n", len(m.Vertices), len(lines)/2)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
	}
	for i := 0; i+1 < len(lines); i += 2 {
		fmt.Fprintf(bw, "l %d %d\n", lines[i]+1, lines[i+1]+1)
	}
	return bw.Flush()
}
