package app

import (
	"context"
	"path/filepath"
	"time"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/domain/run"
	"saebequity/internal"
	"saebequity/internal/analysis/tester"
	"saebequity/internal/config"
	processing "saebequity/internal/dataset"
	"saebequity/internal/errors"
	"saebequity/internal/reporting"
	"saebequity/internal/synthetic"
	"saebequity/internal/visualization"
)

// FiguresDir is the chart directory inside the report directory
const FiguresDir = "figures"

// PipelineRequest defines the inputs of one analysis run
type PipelineRequest struct {
	DataPath      string
	OutputDir     string
	Seed          int64
	SyntheticRows int
	Schools       int
	Charts        visualization.Options
	RunID         core.RunID // optional, generated when empty
}

// RequestFromConfig builds a full-run request from the application configuration
func RequestFromConfig(cfg *config.Config) PipelineRequest {
	return PipelineRequest{
		DataPath:      cfg.Data.File,
		OutputDir:     cfg.Output.Dir,
		Seed:          cfg.Analysis.Seed,
		SyntheticRows: cfg.Data.SyntheticRows,
		Schools:       cfg.Data.Schools,
		Charts: visualization.Options{
			Dir:             filepath.Join(cfg.Output.Dir, FiguresDir),
			Interactive:     cfg.Charts.Interactive,
			Static:          cfg.Charts.Static,
			Snapshot:        cfg.Charts.Snapshot,
			SnapshotTimeout: cfg.Charts.SnapshotTimeout,
			BrowserPath:     cfg.Charts.BrowserPath,
			Workers:         cfg.Charts.Workers,
		},
	}
}

// ChartsRequestFromConfig builds a static-charts-only request writing to the charts directory
func ChartsRequestFromConfig(cfg *config.Config) PipelineRequest {
	req := RequestFromConfig(cfg)
	req.SyntheticRows = cfg.Data.ChartRows
	req.Charts = visualization.Options{
		Dir:     cfg.Output.ChartsDir,
		Static:  true,
		Workers: cfg.Charts.Workers,
	}
	return req
}

// PipelineResult contains the complete output of a run
type PipelineResult struct {
	RunID     core.RunID
	Generator run.GeneratorSettings
	Table     *dataset.Table
	Summary   dataset.Summary
	Report    hypothesis.Report
	Charts    visualization.Artifacts
	Bundle    reporting.Bundle
	RuntimeMs int64
}

// Pipeline runs load, process, test, visualize and report, strictly in that order
type Pipeline struct {
	logger *internal.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{logger: logger}
}

// Run executes every stage and writes all report files
func (p *Pipeline) Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	startTime := time.Now()

	result, err := p.analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	result.Charts, err = visualization.NewVisualizer(req.Charts, p.logger).Render(ctx, result.Table, result.Report)
	if err != nil {
		return nil, errors.Wrap(err, "visualization failed")
	}

	result.Bundle, err = reporting.NewReporter(req.OutputDir, p.logger).Write(ctx, reporting.Input{
		RunID:     result.RunID,
		Seed:      req.Seed,
		Generator: result.Generator,
		Table:     result.Table,
		Report:    result.Report,
		Charts:    result.Charts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "reporting failed")
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	p.logger.Info("[Pipeline] Run %s finished in %dms: %d of %d hypotheses confirmed",
		result.RunID, result.RuntimeMs, result.Report.Confirmed(), len(result.Report.Results))
	return result, nil
}

// RunCharts executes the analysis and renders the chart backends only
func (p *Pipeline) RunCharts(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	startTime := time.Now()

	result, err := p.analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	result.Charts, err = visualization.NewVisualizer(req.Charts, p.logger).Render(ctx, result.Table, result.Report)
	if err != nil {
		return nil, errors.Wrap(err, "visualization failed")
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	p.logger.Info("[Pipeline] Wrote %d charts to %s in %dms", len(result.Charts.All()), req.Charts.Dir, result.RuntimeMs)
	return result, nil
}

// Verify replays the analysis recorded in m with its seed, input file and
// generator settings, and checks that the statistical results reproduce the
// recorded fingerprint. The manifest overrides the data settings of req.
func (p *Pipeline) Verify(ctx context.Context, m *run.Manifest, req PipelineRequest) (run.RunFingerprint, error) {
	runID, err := core.ParseRunID(m.RunID.String())
	if err != nil {
		return run.RunFingerprint{}, errors.WithCode(errors.CodeInvalidInput, err)
	}
	req.RunID = runID
	req.Seed = m.Fingerprint.Seed
	req.DataPath = m.InputPath
	if m.Generator != nil {
		req.SyntheticRows = m.Generator.Rows
		req.Schools = m.Generator.Schools
	}

	result, err := p.analyze(ctx, req)
	if err != nil {
		return run.RunFingerprint{}, err
	}

	replay := run.NewRunFingerprint(req.Seed, result.Table.Source, result.Table.Len(), result.Report)
	if err := m.Verify(replay); err != nil {
		return replay, errors.WithCode(errors.CodeComputation, err)
	}
	p.logger.Info("[Pipeline] Run %s reproduced (fingerprint %s)", runID, replay.Fingerprint)
	return replay, nil
}

// analyze runs the load, process and test stages
func (p *Pipeline) analyze(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	p.logger.Info("[Pipeline] Starting run %s (seed %d)", runID, req.Seed)

	synth := synthetic.DefaultConfig()
	synth.Seed = req.Seed
	if req.SyntheticRows > 0 {
		synth.Rows = req.SyntheticRows
	}
	if req.Schools > 0 {
		synth.Schools = req.Schools
	}

	raw, err := processing.NewLoader(synth, p.logger).Load(ctx, req.DataPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading data failed")
	}

	table, err := processing.NewProcessor(req.Seed, p.logger).Process(raw)
	if err != nil {
		return nil, errors.Wrap(err, "processing data failed")
	}
	summary := processing.Summarize(table)
	p.logger.Info("[Pipeline] %d students, %.1f%% minority, mean maths %.1f, mean Portuguese %.1f",
		summary.Students, summary.PctMinority, summary.MeanMath, summary.MeanPortuguese)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := tester.New(p.logger).RunAll(ctx, table)
	if err != nil {
		return nil, errors.Wrap(err, "hypothesis testing failed")
	}
	p.logger.Debug("[Pipeline] Test summary:\n%s", tester.SummaryReport(report))

	return &PipelineResult{
		RunID:     runID,
		Generator: run.GeneratorSettings{Rows: synth.Rows, Schools: synth.Schools},
		Table:     table,
		Summary:   summary,
		Report:    report,
	}, nil
}
