package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"saebequity/adapters/excel"
	"saebequity/app"
	"saebequity/domain/core"
	"saebequity/internal"
	"saebequity/internal/config"
	processing "saebequity/internal/dataset"
	"saebequity/internal/reporting"
	"saebequity/internal/synthetic"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes bad input data and failed statistics from other failures
func exitCode(err error) int {
	switch {
	case core.IsDataError(err):
		return 2
	case core.IsComputationError(err):
		return 3
	default:
		return 1
	}
}

// globalFlags override the loaded configuration when set on the command line
type globalFlags struct {
	dataFile string
	seed     int64
	rows     int
	schools  int
	logLevel string
	logFile  string
}

func (g *globalFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.dataFile, "data", "", "Input spreadsheet (.xlsx or .csv); synthetic data is used when it does not exist")
	f.Int64Var(&g.seed, "seed", 42, "Random seed for synthetic data and random assignments")
	f.IntVar(&g.rows, "rows", 0, "Synthetic row count")
	f.IntVar(&g.schools, "schools", 0, "Synthetic school count")
	f.StringVar(&g.logLevel, "log-level", "", "Log level (error, warn, info, debug, trace)")
	f.StringVar(&g.logFile, "log-file", "", "Log file path")
}

// setup loads the configuration, applies the flags that were set and opens the logger
func (g *globalFlags) setup(cmd *cobra.Command) (*config.Config, *internal.Logger, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.File = g.dataFile
	}
	if flags.Changed("seed") {
		cfg.Analysis.Seed = g.seed
	}
	if flags.Changed("rows") {
		cfg.Data.SyntheticRows = g.rows
		cfg.Data.ChartRows = g.rows
	}
	if flags.Changed("schools") {
		cfg.Data.Schools = g.schools
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = g.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, closeFn, err := internal.NewFileLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeFn, nil
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	var outDir, browser string
	var snapshot, noInteractive, noStatic bool

	cmd := &cobra.Command{
		Use:   "saebequity",
		Short: "Educational equity analysis of SAEB assessment data",
		Long: `Loads SAEB assessment data (or synthesizes it when the file is missing), tests four
hypotheses about the performance gap of minority students and writes a slide deck, a
detailed report, a results workbook, charts and a run manifest.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = outDir
			}
			if cmd.Flags().Changed("snapshot") {
				cfg.Charts.Snapshot = snapshot
			}
			if cmd.Flags().Changed("browser") {
				cfg.Charts.BrowserPath = browser
			}
			if noInteractive {
				cfg.Charts.Interactive = false
			}
			if noStatic {
				cfg.Charts.Static = false
			}

			result, err := app.NewPipeline(logger).Run(cmd.Context(), app.RequestFromConfig(cfg))
			if err != nil {
				logger.Error("[Main] Analysis failed: %v", err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reporting.ConsoleSummary(result.Summary, result.Report, result.Bundle))
			return nil
		},
	}

	g.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "reports", "Output directory")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "Capture browser screenshots of the interactive charts")
	cmd.Flags().StringVar(&browser, "browser", "", "Chrome or Chromium executable for snapshots (found automatically when empty)")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip the interactive HTML charts")
	cmd.Flags().BoolVar(&noStatic, "no-static", false, "Skip the static PNG charts")

	cmd.AddCommand(
		newChartsCmd(&g),
		newGenerateCmd(&g),
		newVerifyCmd(&g),
	)
	return cmd
}

func newChartsCmd(g *globalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Render the static chart images only",
		Long: `Runs the analysis and writes the static PNG charts.

Example: saebequity charts --dir static_charts --rows 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("dir") {
				cfg.Output.ChartsDir = dir
			}

			result, err := app.NewPipeline(logger).RunCharts(cmd.Context(), app.ChartsRequestFromConfig(cfg))
			if err != nil {
				logger.Error("[Main] Chart generation failed: %v", err)
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Charts written to %s:\n", cfg.Output.ChartsDir)
			for _, p := range result.Charts.All() {
				fmt.Fprintf(out, "  %s\n", filepath.Base(p))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "static_charts", "Chart output directory")
	return cmd
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var output string
	var processed bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic SAEB dataset",
		Long: `Writes a synthetic dataset with the documented race proportions and score model.
The format follows the output extension (.xlsx or .csv).

Example: saebequity generate --output basededados.xlsx --rows 10000 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			table, err := synthetic.Generate(synthetic.Config{
				Rows:    cfg.Data.SyntheticRows,
				Seed:    cfg.Analysis.Seed,
				Schools: cfg.Data.Schools,
			})
			if err != nil {
				return err
			}
			if processed {
				if table, err = processing.NewProcessor(cfg.Analysis.Seed, logger).Process(table); err != nil {
					return err
				}
			}

			switch strings.ToLower(filepath.Ext(output)) {
			case ".csv":
				err = excel.WriteTableCSV(output, table)
			case ".xlsx":
				err = excel.WriteTableXLSX(output, table)
			default:
				return fmt.Errorf("unsupported output format %q (use .xlsx or .csv)", filepath.Ext(output))
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			logger.Info("[Main] Wrote %d synthetic students to %s", table.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "basededados.xlsx", "Output file (.xlsx or .csv)")
	cmd.Flags().BoolVar(&processed, "processed", false, "Write the processed table with derived columns")
	return cmd
}

func newVerifyCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [manifest.json]",
		Short: "Replay a run and check its result fingerprint",
		Long: `Re-runs the analysis with the seed and input file recorded in a run manifest and
checks that the statistical results reproduce the recorded fingerprint.

Example: saebequity verify reports/manifest.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			m, err := reporting.ReadManifest(args[0])
			if err != nil {
				return fmt.Errorf("failed to read manifest %s: %w", args[0], err)
			}

			replay, err := app.NewPipeline(logger).Verify(cmd.Context(), m, app.RequestFromConfig(cfg))
			if err != nil {
				logger.Error("[Main] Verification failed: %v", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s reproduced: %s\n", m.RunID, replay.Fingerprint)
			return nil
		},
	}
	return cmd
}
