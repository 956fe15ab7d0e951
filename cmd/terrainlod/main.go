// terrainlod drives the bintree terrain LOD engine from the command line:
// fly-through simulations, mesh inspection and buffer export.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the loaded configuration to the subcommands.
type app struct {
	overrides *config.Overrides
	cfg       *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "terrainlod",
		Short: "Continuous level of detail for height-field terrain",
		Long: `terrainlod builds a bintree LOD mesh over a heightmap and refines it
for a moving viewer under a triangle budget.

Commands:
  simulate  Fly a camera over the terrain and report per-frame statistics
  inspect   Print mesh and heightmap statistics
  export    Write the refined mesh or the heightmap to a file
  query     Sample heights and cast rays against the refined mesh
  config    Save the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}
	a.overrides = config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newSimulateCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
		newQueryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.overrides)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	a.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "terrainlod %s\n", version)
		},
	}
}
