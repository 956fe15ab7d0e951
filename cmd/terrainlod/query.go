package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-lod/internal/camera"
	"github.com/Faultbox/midgard-lod/internal/heightfield"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		frame int
		edits []string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Sample heights and cast rays against the refined mesh",
	}
	cmd.PersistentFlags().IntVar(&frame, "frame", 0, "Fly-through frame to refine for")
	cmd.PersistentFlags().StringSliceVar(&edits, "set", nil, "Set a raw sample before refining, as row:col:raw (repeatable)")

	prepare := func() (*world, error) {
		w, err := newWorld(a.cfg)
		if err != nil {
			return nil, err
		}
		for _, e := range edits {
			row, col, raw, err := parseEdit(e)
			if err != nil {
				return nil, err
			}
			if row < 0 || col < 0 || row >= w.grid.Rows() || col >= w.grid.Cols() {
				return nil, fmt.Errorf("edit %q: outside the %d x %d grid", e, w.grid.Rows(), w.grid.Cols())
			}
			w.grid.Set(row, col, raw)
			if err := w.mesh.UpdateHeight(row, col); err != nil {
				return nil, fmt.Errorf("edit %q: %w", e, err)
			}
		}
		cam := camera.NewFlyCamera(math.Vec3{})
		for f := range frame + 1 {
			w.refine(cam, f)
		}
		return w, nil
	}

	height := &cobra.Command{
		Use:   "height <row> <col>",
		Short: "Print the height of the refined surface at a grid position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFloats(args)
			if err != nil {
				return err
			}
			w, err := prepare()
			if err != nil {
				return err
			}
			h, err := w.mesh.HeightAt(p[0], p[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "height %.3f at (%g, %g)\n", h, p[0], p[1])
			return nil
		},
	}

	ray := &cobra.Command{
		Use:   "ray <x1> <y1> <z1> <x2> <y2> <z2>",
		Short: "Intersect a segment with the refined surface",
		Long:  "Coordinates are world space: x is the row, y the height and z the column.",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFloats(args)
			if err != nil {
				return err
			}
			w, err := prepare()
			if err != nil {
				return err
			}
			hit, ok := w.mesh.RayTest(math.Vec3{X: p[0], Y: p[1], Z: p[2]}, math.Vec3{X: p[3], Y: p[4], Z: p[5]})
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no hit")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hit tree %d triangle %d at (%.3f, %.3f, %.3f)\n",
				hit.Tree, hit.Index, hit.Point.X, hit.Point.Y, hit.Point.Z)
			return nil
		},
	}

	cmd.AddCommand(height, ray)
	return cmd
}

// parseEdit reads row:col:raw.
func parseEdit(s string) (row, col int, raw int16, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("edit %q: want row:col:raw", s)
	}
	if row, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("edit %q: %w", s, err)
	}
	if col, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("edit %q: %w", s, err)
	}
	v, err := strconv.ParseInt(parts[2], 10, 16)
	if err != nil || v < heightfield.MinRaw {
		return 0, 0, 0, fmt.Errorf("edit %q: raw height must be in [%d, %d]", s, heightfield.MinRaw, heightfield.MaxRaw)
	}
	return row, col, int16(v), nil
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, s := range args {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
