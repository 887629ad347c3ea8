package visualization

import (
	"context"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal"
	"saebequity/internal/errors"
)

// Options selects the chart backends and where they write
type Options struct {
	Dir             string
	Interactive     bool
	Static          bool
	Snapshot        bool
	SnapshotTimeout time.Duration
	BrowserPath     string
	Workers         int
}

// Artifacts lists the written chart files per backend, sorted by path
type Artifacts struct {
	Interactive []string
	Static      []string
	Snapshots   []string
}

// All returns every written chart file
func (a Artifacts) All() []string {
	out := append([]string{}, a.Interactive...)
	out = append(out, a.Static...)
	return append(out, a.Snapshots...)
}

// Visualizer renders the chart backends over a processed table and its report
type Visualizer struct {
	opts   Options
	logger *internal.Logger
}

// NewVisualizer creates a visualizer
func NewVisualizer(opts Options, logger *internal.Logger) *Visualizer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Visualizer{opts: opts, logger: logger}
}

// Render writes every enabled backend's charts. Chart files are independent and
// drawn concurrently on at most Workers goroutines. The snapshot backend is
// optional: when no browser is available it is skipped with a warning.
func (v *Visualizer) Render(ctx context.Context, table *dataset.Table, report hypothesis.Report) (Artifacts, error) {
	var artifacts Artifacts
	if !v.opts.Interactive && !v.opts.Static {
		v.logger.Info("[Visualizer] All chart backends disabled")
		return artifacts, nil
	}

	if err := os.MkdirAll(v.opts.Dir, 0o755); err != nil {
		return artifacts, errors.Output(v.opts.Dir, err)
	}

	figures, err := Prepare(table, report)
	if err != nil {
		return artifacts, errors.Computation("failed to prepare chart data", err)
	}

	startTime := time.Now()
	var interactive, static []string
	if v.opts.Interactive {
		interactive = InteractivePages()
	}
	if v.opts.Static {
		static = StaticCharts
	}

	interactivePaths := make([]string, len(interactive))
	staticPaths := make([]string, len(static))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Workers)
	for i, name := range interactive {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := RenderInteractive(figures, name, v.opts.Dir)
			if err != nil {
				return errors.Output(name, err)
			}
			interactivePaths[i] = path
			return nil
		})
	}
	for i, name := range static {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := RenderStatic(figures, name, v.opts.Dir)
			if err != nil {
				return errors.Output(name, err)
			}
			staticPaths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return artifacts, err
	}

	artifacts.Interactive = sorted(interactivePaths)
	artifacts.Static = sorted(staticPaths)
	v.logger.Info("[Visualizer] Wrote %d interactive and %d static charts to %s in %.2fms",
		len(artifacts.Interactive), len(artifacts.Static), v.opts.Dir,
		float64(time.Since(startTime).Nanoseconds())/1e6)

	if v.opts.Snapshot && len(artifacts.Interactive) > 0 {
		snapshots, err := NewSnapshotter(v.opts.BrowserPath, v.opts.SnapshotTimeout, v.logger).
			Capture(ctx, artifacts.Interactive, v.opts.Dir)
		switch {
		case err == nil:
		case core.IsBackendUnavailable(err):
			v.logger.Warn("[Visualizer] Browser snapshots skipped: %v", err)
		default:
			return artifacts, errors.Wrap(err, "browser snapshot failed")
		}
		artifacts.Snapshots = sorted(snapshots)
	}

	return artifacts, nil
}

func sorted(paths []string) []string {
	out := append([]string{}, paths...)
	sort.Strings(out)
	return out
}
