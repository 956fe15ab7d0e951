package config

import "github.com/spf13/pflag"

// Overrides holds command-line values that take priority over the config file.
// Zero values mean "not set".
type Overrides struct {
	ConfigPath   string
	Debug        bool
	LogFile      string
	MaxTriangles int
	TileLevel    int
	FarClip      float32
	NoMerge      bool
	Frames       int
	Source       string
	Seed         int64
	Metrics      string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Write logs to this file as well")
	fs.IntVar(&o.MaxTriangles, "max-triangles", 0, "Active triangle budget")
	fs.IntVar(&o.TileLevel, "tile-level", 0, "Tile edge is 2^level cells")
	fs.Float32Var(&o.FarClip, "far-clip", 0, "Far clip distance")
	fs.BoolVar(&o.NoMerge, "no-merge", false, "Only refine, never coarsen")
	fs.IntVar(&o.Frames, "frames", 0, "Number of frames to simulate")
	fs.StringVar(&o.Source, "terrain", "", "Heightmap file (png, tiff, bmp, pgm, tga, ter, gat)")
	fs.Int64Var(&o.Seed, "seed", 0, "Fractal terrain seed")
	fs.StringVar(&o.Metrics, "metrics", "", "Serve Prometheus metrics on this address")
	return o
}

// apply applies CLI overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.MaxTriangles > 0 {
		cfg.LOD.MaxTriangles = o.MaxTriangles
		if cfg.LOD.AbsMaxTriangles < o.MaxTriangles {
			cfg.LOD.AbsMaxTriangles = o.MaxTriangles
		}
	}
	if o.TileLevel > 0 {
		cfg.LOD.TileLevel = o.TileLevel
	}
	if o.FarClip > 0 {
		cfg.LOD.FarClip = o.FarClip
	}
	if o.NoMerge {
		cfg.LOD.Merge = false
	}
	if o.Frames > 0 {
		cfg.Simulation.Frames = o.Frames
	}
	if o.Source != "" {
		cfg.Terrain.Source = o.Source
	}
	if o.Seed != 0 {
		cfg.Terrain.Seed = o.Seed
	}
	if o.Metrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = o.Metrics
	}
}
