package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/camera"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/metrics"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

func newSimulateCmd(a *app) *cobra.Command {
	var every int
	var linger time.Duration
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fly a camera over the terrain and report per-frame statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.simulate(ctx, cmd, every, linger)
		},
	}
	cmd.Flags().IntVar(&every, "every", 10, "Print every n-th frame")
	cmd.Flags().DurationVar(&linger, "linger", 0, "Keep serving metrics this long after the run")
	return cmd
}

func (a *app) simulate(ctx context.Context, cmd *cobra.Command, every int, linger time.Duration) error {
	w, err := newWorld(a.cfg)
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	if a.cfg.Metrics.Enabled {
		rec = metrics.NewRecorder()
		srv, _, err := rec.Serve(a.cfg.Metrics.Listen, logger.Named("metrics"))
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"Frame", "Active", "Visible", "Splits", "Merges", "Queued", "Priorities", "Took", "Stopped"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	var total lod.Stats
	var took time.Duration
	frames := a.cfg.Simulation.Frames
	cam := camera.NewFlyCamera(math.Vec3{})
	run := 0
	for frame := range frames {
		if ctx.Err() != nil {
			logger.Warn("simulation interrupted", zap.Int("frame", frame))
			break
		}
		s := w.refine(cam, frame)
		run++
		if rec != nil {
			rec.Observe(s)
		}
		total.Splits += s.Splits
		total.Merges += s.Merges
		total.PriorityCalcs += s.PriorityCalcs
		took += s.Duration

		if every > 0 && (frame%every == 0 || frame == frames-1) {
			tbl.AppendRow(table.Row{
				s.Frame,
				humanize.Comma(int64(s.Active)),
				humanize.Comma(int64(s.Visible)),
				humanize.Comma(int64(s.Splits)),
				humanize.Comma(int64(s.Merges)),
				humanize.Comma(int64(s.SplitQueue)),
				humanize.Comma(int64(s.PriorityCalcs)),
				s.Duration.Round(time.Microsecond),
				truncation(s.Truncated),
			})
		}
	}

	avg := time.Duration(0)
	if run > 0 {
		avg = took / time.Duration(run)
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d frames", run), "", "",
		humanize.Comma(int64(total.Splits)),
		humanize.Comma(int64(total.Merges)),
		"",
		humanize.Comma(int64(total.PriorityCalcs)),
		fmt.Sprintf("avg %s", avg.Round(time.Microsecond)),
		"",
	})
	tbl.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "mesh memory %s, %s active triangles\n",
		humanize.Bytes(w.mesh.MemoryBytes()), humanize.Comma(int64(w.mesh.ActiveCount())))

	if rec != nil && linger > 0 {
		logger.Info("lingering for metrics scrapes", zap.Duration("for", linger))
		select {
		case <-ctx.Done():
		case <-time.After(linger):
		}
	}
	return nil
}

func truncation(t lod.Truncation) string {
	if t == lod.NotTruncated {
		return ""
	}
	return t.String()
}
