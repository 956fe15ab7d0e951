package main

import (
	"bytes"
	"fmt"
	"image/png"
	gomath "math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/camera"
	"github.com/Faultbox/midgard-lod/internal/heightfield"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/terrain"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the refined mesh or the heightmap to a file",
	}

	var (
		frame       int
		visibleOnly bool
		orbit       bool
		orbitYaw    float32
		zoom        float32
		wireframe   bool
		gridNormals bool
	)
	mesh := &cobra.Command{
		Use:   "mesh <file.obj>",
		Short: "Refine for one view of the terrain and write a Wavefront OBJ",
		Long: `Refine the terrain for one view and write the active triangles.
By default the view is a frame of the fly-through; --orbit looks at the whole
terrain from an orbit camera fitted to its bounds instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorld(a.cfg)
			if err != nil {
				return err
			}
			if orbit {
				cam := camera.NewOrbitCamera()
				cam.FitToBounds(w.bounds())
				cam.Rotate(orbitYaw*gomath.Pi/180, 0)
				cam.Zoom(zoom)
				// The first frames only queue work for the following ones.
				for range frame + 1 {
					w.refineFrom(cam)
				}
			} else {
				cam := camera.NewFlyCamera(math.Vec3{})
				for f := range frame + 1 {
					w.refine(cam, f)
				}
			}

			opts := terrain.Options{VisibleOnly: visibleOnly}
			if gridNormals {
				opts.Normals = w.grid
			}
			out := terrain.Build(w.mesh, opts)

			var buf bytes.Buffer
			if wireframe {
				err = out.WriteWireOBJ(&buf)
			} else {
				err = out.WriteOBJ(&buf)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write mesh: %w", err)
			}
			logger.Info("mesh exported",
				zap.String("file", args[0]),
				zap.Bool("orbit", orbit),
				zap.Bool("wireframe", wireframe),
				zap.Int("vertices", len(out.Vertices)),
				zap.Int("triangles", out.TriangleCount()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vertices, %d triangles\n", args[0], len(out.Vertices), out.TriangleCount())
			return nil
		},
	}
	f := mesh.Flags()
	f.IntVar(&frame, "frame", 0, "Frame to refine for; with --orbit, the number of extra refine passes")
	f.BoolVar(&visibleOnly, "visible-only", false, "Skip triangles outside the view")
	f.BoolVar(&orbit, "orbit", false, "View the whole terrain from an orbit camera")
	f.Float32Var(&orbitYaw, "orbit-yaw", 0, "Orbit camera yaw in degrees")
	f.Float32Var(&zoom, "zoom", 0, "Orbit camera zoom, a fraction of its distance (negative backs off)")
	f.BoolVar(&wireframe, "wireframe", false, "Write triangle edges as OBJ lines")
	f.BoolVar(&gridNormals, "grid-normals", false, "Sample normals from the full resolution heightfield")

	heightmap := &cobra.Command{
		Use:   "heightmap <file.{png,pgm,tga,ter,gat}>",
		Short: "Write the terrain heightmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGrid(a.cfg)
			if err != nil {
				return err
			}
			if err := writeHeightmap(args[0], g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d x %d samples\n", args[0], g.Rows(), g.Cols())
			return nil
		},
	}

	cmd.AddCommand(mesh, heightmap)
	return cmd
}

func writeHeightmap(path string, g *heightfield.Grid) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(&buf, g.ToImage())
	case ".pgm":
		err = heightfield.WritePGM(&buf, g)
	case ".tga":
		err = heightfield.EncodeTGA(&buf, g)
	case ".ter":
		err = heightfield.WriteTerragen(&buf, g)
	case ".gat":
		err = heightfield.WriteGAT(&buf, g)
	default:
		return fmt.Errorf("%w: no encoder for %q", heightfield.ErrFormat, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode heightmap: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write heightmap: %w", err)
	}
	return nil
}
