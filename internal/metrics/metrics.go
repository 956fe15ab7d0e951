// Package metrics exports per-frame refinement statistics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/lod"
)

const (
	namespace = "terrainlod"
	subsystem = "refine"
)

// Recorder holds the refinement collectors on its own registry, so several
// recorders (one per mesh or per test) never collide.
type Recorder struct {
	registry *prometheus.Registry

	active     prometheus.Gauge
	visible    prometheus.Gauge
	splitQueue prometheus.Gauge
	mergeQueue prometheus.Gauge

	frames          prometheus.Counter
	splits          prometheus.Counter
	merges          prometheus.Counter
	priorityCalcs   prometheus.Counter
	visibilityTests prometheus.Counter
	truncated       *prometheus.CounterVec

	duration prometheus.Histogram
}

// NewRecorder creates a recorder with all collectors registered.
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}

	r := &Recorder{
		registry:        prometheus.NewRegistry(),
		active:          gauge("active_triangles", "Active triangles after the last frame."),
		visible:         gauge("visible_triangles", "Active triangles inside the view volume."),
		splitQueue:      gauge("split_queue_length", "Triangles waiting to be split."),
		mergeQueue:      gauge("merge_queue_length", "Diamonds waiting to be merged."),
		frames:          counter("frames_total", "Refined frames."),
		splits:          counter("splits_total", "Forced splits."),
		merges:          counter("merges_total", "Forced merges."),
		priorityCalcs:   counter("priority_calculations_total", "Triangle priority computations."),
		visibilityTests: counter("visibility_tests_total", "Triangle visibility classifications."),
		truncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "truncated_total",
			Help: "Frames whose split loop stopped early, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "duration_seconds",
			Help:    "Wall time of one refine pass.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
	r.registry.MustRegister(
		r.active, r.visible, r.splitQueue, r.mergeQueue,
		r.frames, r.splits, r.merges, r.priorityCalcs, r.visibilityTests,
		r.truncated, r.duration,
	)
	return r
}

// Observe records the statistics of one refine pass.
func (r *Recorder) Observe(s lod.Stats) {
	r.active.Set(float64(s.Active))
	r.visible.Set(float64(s.Visible))
	r.splitQueue.Set(float64(s.SplitQueue))
	r.mergeQueue.Set(float64(s.MergeQueue))

	r.frames.Inc()
	r.splits.Add(float64(s.Splits))
	r.merges.Add(float64(s.Merges))
	r.priorityCalcs.Add(float64(s.PriorityCalcs))
	r.visibilityTests.Add(float64(s.VisibilityTests))
	if s.Truncated != lod.NotTruncated {
		r.truncated.WithLabelValues(s.Truncated.String()).Inc()
	}
	r.duration.Observe(s.Duration.Seconds())
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler returns an http.Handler serving the /metrics scrape endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in the background. Close the returned
// server to stop it.
func (r *Recorder) Serve(addr string, log *zap.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.Stringer("addr", ln.Addr()))
	return srv, ln.Addr(), nil
}
