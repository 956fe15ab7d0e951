package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print mesh and heightmap statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := newWorld(a.cfg)
			if err != nil {
				return err
			}
			m, g := w.mesh, w.grid
			l := m.Layout()

			fmt.Fprintf(cmd.OutOrStdout(), "terrain %s\n", sourceName(a.cfg))
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendRows([]table.Row{
				{"Samples", fmt.Sprintf("%d x %d", g.Rows(), g.Cols())},
				{"Tiles", fmt.Sprintf("%d x %d of %d cells", m.TileRows(), m.TileCols(), l.Edge)},
				{"Trees", m.TreeCount()},
				{"Levels per tree", l.Levels()},
				{"Triangles per tree", humanize.Comma(int64(l.TriNo - 1))},
				{"Leaves", humanize.Comma(int64(m.TreeCount()) * int64(l.TriNo-l.LeafTriNo))},
				{"Height range", fmt.Sprintf("%.2f .. %.2f", g.WorldHeight(g.Min()), g.WorldHeight(g.Max()))},
				{"Max error", fmt.Sprintf("%d raw (%.3f world)", m.AbsMaxError(), float32(m.AbsMaxError())*g.Scale())},
				{"Triangle budget", fmt.Sprintf("%s soft, %s hard",
					humanize.Comma(int64(m.Options().MaxTriangles)), humanize.Comma(int64(m.Options().AbsMaxTriangles)))},
				{"Memory", humanize.Bytes(m.MemoryBytes())},
			})
			tbl.Render()
			return nil
		},
	}
}
