// Package config handles terrain engine configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// maxPriorityResolution keeps the top priority value free for the queue's
// "compute it" marker.
const maxPriorityResolution = 0xFFFE

// Config holds all engine and tool settings.
type Config struct {
	LOD        LODConfig        `yaml:"lod"`
	Camera     CameraConfig     `yaml:"camera"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Simulation SimulationConfig `yaml:"simulation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LODConfig holds the refinement knobs of the bintree mesh.
type LODConfig struct {
	TileLevel          int           `yaml:"tile_level"`          // Tile edge is 2^TileLevel cells
	MaxTriangles       int           `yaml:"max_triangles"`       // Soft budget of active triangles
	AbsMaxTriangles    int           `yaml:"abs_max_triangles"`   // Hard cap, splits stop here
	PriorityResolution int           `yaml:"priority_resolution"` // Number of queue buckets
	Merge              bool          `yaml:"merge"`               // Allow coarsening
	NearClip           float32       `yaml:"near_clip"`
	FarClip            float32       `yaml:"far_clip"`
	FrameBudget        time.Duration `yaml:"frame_budget"`       // 0 disables the time check
	EvictAfterFrames   int           `yaml:"evict_after_frames"` // 0 keeps invisible tiles as they are
}

// CameraConfig holds the simulated viewer settings.
type CameraConfig struct {
	FOV    float32 `yaml:"fov"` // Degrees
	Aspect float32 `yaml:"aspect"`
	Speed  float32 `yaml:"speed"`  // Grid units per frame
	Height float32 `yaml:"height"` // Altitude above the terrain
	Pitch  float32 `yaml:"pitch"`  // Degrees below the horizon
}

// TerrainConfig describes where height data comes from.
type TerrainConfig struct {
	Source    string         `yaml:"source"`    // Heightmap file; empty uses Generator
	Generator string         `yaml:"generator"` // fractal or sine
	Rows      int            `yaml:"rows"`      // Tiles along the row axis
	Cols      int            `yaml:"cols"`      // Tiles along the column axis
	Seed      int64          `yaml:"seed"`      // Fractal seed
	Roughness float32        `yaml:"roughness"` // Fractal persistence, 0..1
	Amplitude int            `yaml:"amplitude"` // Fractal peak in raw units
	Base      float32        `yaml:"base"`      // World height of raw 0
	Scale     float32        `yaml:"scale"`     // World height per raw unit
	Filters   []FilterConfig `yaml:"filters"`   // Applied in order after loading
}

// FilterConfig is one height-map filter step, e.g. {op: glaciate, amount: 0.01}.
type FilterConfig struct {
	Op     string  `yaml:"op"`
	Amount float64 `yaml:"amount"`
}

// Terrain generators.
const (
	GeneratorFractal = "fractal"
	GeneratorSine    = "sine"
)

// SimulationConfig controls the fly-through run.
type SimulationConfig struct {
	Frames int `yaml:"frames"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LOD: LODConfig{
			TileLevel:          5,
			MaxTriangles:       6000,
			AbsMaxTriangles:    20000,
			PriorityResolution: 256,
			Merge:              true,
			NearClip:           1,
			FarClip:            400,
			FrameBudget:        0,
			EvictAfterFrames:   0,
		},
		Camera: CameraConfig{
			FOV:    60,
			Aspect: 16.0 / 9.0,
			Speed:  1.5,
			Height: 40,
			Pitch:  15,
		},
		Terrain: TerrainConfig{
			Generator: GeneratorFractal,
			Rows:      4,
			Cols:      4,
			Seed:      1,
			Roughness: 0.55,
			Amplitude: 6000,
			Base:      0,
			Scale:     0.01,
		},
		Simulation: SimulationConfig{
			Frames: 120,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9102",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.LOD.TileLevel >= 1 && c.LOD.TileLevel <= 12, "lod.tile_level %d out of range [1,12]", c.LOD.TileLevel)
	check(c.LOD.MaxTriangles > 0, "lod.max_triangles must be positive")
	check(c.LOD.AbsMaxTriangles >= c.LOD.MaxTriangles, "lod.abs_max_triangles %d below max_triangles %d", c.LOD.AbsMaxTriangles, c.LOD.MaxTriangles)
	check(c.LOD.PriorityResolution >= 2 && c.LOD.PriorityResolution <= maxPriorityResolution, "lod.priority_resolution %d out of range [2,%d]", c.LOD.PriorityResolution, maxPriorityResolution)
	check(c.LOD.NearClip > 0, "lod.near_clip must be positive")
	check(c.LOD.FarClip > c.LOD.NearClip, "lod.far_clip must exceed near_clip")
	check(c.LOD.FrameBudget >= 0, "lod.frame_budget must not be negative")
	check(c.LOD.EvictAfterFrames >= 0, "lod.evict_after_frames must not be negative")
	check(c.Camera.FOV > 0 && c.Camera.FOV < 180, "camera.fov %.1f out of range (0,180)", c.Camera.FOV)
	check(c.Camera.Aspect > 0, "camera.aspect must be positive")
	check(c.Terrain.Rows > 0 && c.Terrain.Cols > 0, "terrain.rows and terrain.cols must be positive")
	check(c.Terrain.Roughness >= 0 && c.Terrain.Roughness <= 1, "terrain.roughness %.2f out of range [0,1]", c.Terrain.Roughness)
	check(c.Terrain.Scale > 0, "terrain.scale must be positive")
	check(c.Terrain.Generator == "" || c.Terrain.Generator == GeneratorFractal || c.Terrain.Generator == GeneratorSine,
		"terrain.generator %q is neither fractal nor sine", c.Terrain.Generator)
	for i, f := range c.Terrain.Filters {
		check(f.Op != "", "terrain.filters[%d] has no op", i)
	}
	check(c.Simulation.Frames >= 0, "simulation.frames must not be negative")

	return err
}
