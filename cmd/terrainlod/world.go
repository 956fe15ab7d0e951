package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/camera"
	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/heightfield"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

// world is a heightmap with its LOD mesh and the fly-through over it.
type world struct {
	grid *heightfield.Grid
	mesh *lod.Mesh
	path camera.Path
	lens camera.Lens
}

func loadGrid(cfg *config.Config) (*heightfield.Grid, error) {
	t := cfg.Terrain
	var g *heightfield.Grid
	var err error
	if t.Source == "" {
		g, err = heightfield.NewTiled(t.Rows, t.Cols, cfg.LOD.TileLevel)
		if err != nil {
			return nil, err
		}
		if t.Generator == config.GeneratorSine {
			g.Sine()
		} else {
			g.Fractal(t.Seed, float64(t.Roughness), t.Amplitude)
		}
		g.SetQuantization(t.Base, t.Scale)
	} else {
		g, err = heightfield.Load(t.Source)
		if err != nil {
			return nil, err
		}
		// Terragen and altitude tables carry their own quantization.
		switch strings.ToLower(filepath.Ext(t.Source)) {
		case ".ter", ".gat":
		default:
			g.SetQuantization(t.Base, t.Scale)
		}
	}

	for i, f := range t.Filters {
		if err := g.Apply(f.Op, f.Amount); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return g, nil
}

func lodOptions(cfg *config.Config) lod.Options {
	opts := lod.DefaultOptions()
	opts.TileLevel = cfg.LOD.TileLevel
	opts.MaxTriangles = cfg.LOD.MaxTriangles
	opts.AbsMaxTriangles = cfg.LOD.AbsMaxTriangles
	opts.PriorityResolution = cfg.LOD.PriorityResolution
	opts.Merge = cfg.LOD.Merge
	opts.NearClip = cfg.LOD.NearClip
	opts.FarClip = cfg.LOD.FarClip
	opts.FrameBudget = cfg.LOD.FrameBudget
	opts.EvictAfterFrames = cfg.LOD.EvictAfterFrames
	return opts
}

func newWorld(cfg *config.Config) (*world, error) {
	g, err := loadGrid(cfg)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	m, err := lod.New(g, lodOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	rows := float32(g.Rows() - 1)
	cols := float32(g.Cols() - 1)
	speed := max(cfg.Camera.Speed, 0.01)
	w := &world{
		grid: g,
		mesh: m,
		path: camera.Path{
			Extent: math.Rect2{Max: math.Vec2{X: rows, Y: cols}},
			Height: cfg.Camera.Height,
			Pitch:  cfg.Camera.Pitch,
			Period: max(int(2*(rows+cols)/speed), 1),
			Ground: func(row, col float32) float32 {
				h, err := m.HeightAt(row, col)
				if err != nil {
					return 0
				}
				return h
			},
		},
		lens: camera.Lens{
			FOV:    cfg.Camera.FOV,
			Aspect: cfg.Camera.Aspect,
			Near:   cfg.LOD.NearClip,
			Far:    cfg.LOD.FarClip,
		},
	}
	logger.Info("world ready",
		zap.Int("rows", g.Rows()),
		zap.Int("cols", g.Cols()),
		zap.Int("trees", m.TreeCount()),
		zap.String("source", sourceName(cfg)))
	return w, nil
}

// refine flies the camera to frame and refines the mesh for it.
func (w *world) refine(cam *camera.FlyCamera, frame int) lod.Stats {
	w.path.At(frame, cam)
	return w.refineFrom(cam)
}

func (w *world) refineFrom(v camera.Viewer) lod.Stats {
	view, frustum := camera.Snapshot(v, w.lens)
	return w.mesh.Refine(view, frustum)
}

// bounds is the world box of the heightfield.
func (w *world) bounds() math.Box3 {
	g := w.grid
	return math.Box3{
		Min: math.Vec3{Y: g.WorldHeight(g.Min())},
		Max: math.Vec3{X: float32(g.Rows() - 1), Y: g.WorldHeight(g.Max()), Z: float32(g.Cols() - 1)},
	}
}

func sourceName(cfg *config.Config) string {
	if cfg.Terrain.Source == "" {
		if cfg.Terrain.Generator == config.GeneratorSine {
			return "sine"
		}
		return fmt.Sprintf("fractal(seed=%d)", cfg.Terrain.Seed)
	}
	return cfg.Terrain.Source
}
