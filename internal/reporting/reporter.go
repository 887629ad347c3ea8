package reporting

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"saebequity/adapters/excel"
	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/domain/run"
	"saebequity/internal"
	processing "saebequity/internal/dataset"
	"saebequity/internal/errors"
	"saebequity/internal/visualization"
)

// Output file names inside the report directory
const (
	DeckFile       = "equity_report.pptx"
	TextReportFile = "detailed_report.txt"
	HTMLReportFile = "detailed_report.html"
	WorkbookFile   = "results.xlsx"
	ManifestFile   = "manifest.json"
)

// DeckTitle is the presentation title stored in the deck metadata
const DeckTitle = "Educational equity analysis"

// Bundle lists the files written by one run. Empty paths were not written.
type Bundle struct {
	Dir        string
	Deck       string
	TextReport string
	HTMLReport string
	Workbook   string
	Charts     []string
	Snapshots  []string
	Manifest   string
}

// Files returns every written path in write order
func (b Bundle) Files() []string {
	var out []string
	for _, p := range []string{b.Deck, b.TextReport, b.HTMLReport, b.Workbook} {
		if p != "" {
			out = append(out, p)
		}
	}
	out = append(out, b.Charts...)
	out = append(out, b.Snapshots...)
	if b.Manifest != "" {
		out = append(out, b.Manifest)
	}
	return out
}

// Input is everything a run hands to the reporter
type Input struct {
	RunID     core.RunID
	Seed      int64
	Generator run.GeneratorSettings // recorded only for synthetic tables
	Table     *dataset.Table
	Report    hypothesis.Report
	Charts    visualization.Artifacts
}

// Reporter writes the deck, the detailed report, the results workbook and the run manifest
type Reporter struct {
	dir    string
	logger *internal.Logger
}

// NewReporter creates a reporter writing into dir
func NewReporter(dir string, logger *internal.Logger) *Reporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reporter{dir: dir, logger: logger}
}

// Write produces every report file. The manifest is written last and lists
// the other files, chart files included.
func (r *Reporter) Write(ctx context.Context, in Input) (Bundle, error) {
	bundle := Bundle{Dir: r.dir}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return bundle, errors.Output(r.dir, err)
	}

	summary := processing.Summarize(in.Table)
	doc := BuildDocument(summary, in.Report)

	steps := []struct {
		name  string
		path  *string
		write func(path string) error
	}{
		{DeckFile, &bundle.Deck, func(path string) error {
			return WriteDeck(path, DeckTitle, BuildDeck(summary, in.Report), time.Now())
		}},
		{TextReportFile, &bundle.TextReport, func(path string) error {
			return os.WriteFile(path, []byte(RenderText(doc)), 0o644)
		}},
		{HTMLReportFile, &bundle.HTMLReport, func(path string) error {
			return os.WriteFile(path, RenderHTML(doc), 0o644)
		}},
		{WorkbookFile, &bundle.Workbook, func(path string) error {
			return excel.WriteResultsWorkbook(path, in.Table, in.Report)
		}},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return bundle, err
		}
		path := filepath.Join(r.dir, step.name)
		if err := step.write(path); err != nil {
			return bundle, errors.Output(path, err)
		}
		*step.path = path
		r.logger.Info("[Reporter] Wrote %s", path)
	}

	bundle.Charts = append(append([]string{}, in.Charts.Interactive...), in.Charts.Static...)
	bundle.Snapshots = in.Charts.Snapshots

	manifest := run.NewManifest(in.RunID, in.Seed, in.Table, in.Report)
	manifest.RecordGenerator(in.Generator)
	manifest.AddArtifact(run.ArtifactDeck, bundle.Deck)
	manifest.AddArtifact(run.ArtifactTextReport, bundle.TextReport)
	manifest.AddArtifact(run.ArtifactHTMLReport, bundle.HTMLReport)
	manifest.AddArtifact(run.ArtifactWorkbook, bundle.Workbook)
	for _, p := range bundle.Charts {
		manifest.AddArtifact(run.ArtifactChart, p)
	}
	for _, p := range bundle.Snapshots {
		manifest.AddArtifact(run.ArtifactSnapshot, p)
	}
	if err := manifest.Validate(); err != nil {
		return bundle, errors.Wrap(err, "invalid run manifest")
	}

	path := filepath.Join(r.dir, ManifestFile)
	if err := WriteManifest(path, manifest); err != nil {
		return bundle, errors.Output(path, err)
	}
	bundle.Manifest = path
	r.logger.Info("[Reporter] Wrote manifest %s (fingerprint %s)", path, manifest.Fingerprint.Fingerprint)
	return bundle, nil
}

// WriteManifest writes m as indented JSON
func WriteManifest(path string, m *run.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*run.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m run.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
