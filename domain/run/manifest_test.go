package run

import (
	"errors"
	"testing"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

func sampleReport(p float64) hypothesis.Report {
	tests := []hypothesis.TestOutcome{
		{Name: "math_score_difference", PValue: p, EffectSize: -12.5, Statistic: -3.1, NA: 200, NB: 200, Expected: hypothesis.Negative},
	}
	corr := []hypothesis.Correlation{{Name: "minority_x_infra", R: -0.2, PValue: 0.001, N: 400}}
	return hypothesis.Report{
		Alpha:   hypothesis.Alpha,
		Results: []hypothesis.Result{hypothesis.NewResult(hypothesis.KeySegregation, "t", "d", tests, corr, nil, nil)},
	}
}

func TestRunFingerprint_Deterministic(t *testing.T) {
	fp1 := NewRunFingerprint(42, dataset.SourceSynthetic, 10000, sampleReport(0.002))
	fp2 := NewRunFingerprint(42, dataset.SourceSynthetic, 10000, sampleReport(0.002))

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs %d", fp1.Seed, 42)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint(42, dataset.SourceSynthetic, 10000, sampleReport(0.002))

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different seed", NewRunFingerprint(43, dataset.SourceSynthetic, 10000, sampleReport(0.002))},
		{"different source", NewRunFingerprint(42, dataset.SourceFile, 10000, sampleReport(0.002))},
		{"different rows", NewRunFingerprint(42, dataset.SourceSynthetic, 9999, sampleReport(0.002))},
		{"different p-value", NewRunFingerprint(42, dataset.SourceSynthetic, 10000, sampleReport(0.003))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestManifest_Validate(t *testing.T) {
	table := dataset.NewTable(make([]dataset.Student, 10), nil, dataset.SourceSynthetic, "")
	m := NewManifest(core.NewRunID(), 42, table, sampleReport(0.01))

	if err := m.Validate(); err != nil {
		t.Fatalf("Unexpected validation error: %v", err)
	}
	if m.Confirmed != 1 {
		t.Errorf("Expected 1 confirmed hypothesis, got %d", m.Confirmed)
	}

	m.AddArtifact(ArtifactDeck, "reports/equity_report.pptx")
	m.AddArtifact(ArtifactChart, "reports/figures/a.png")
	m.AddArtifact(ArtifactChart, "reports/figures/b.png")
	if got := len(m.Paths(ArtifactChart)); got != 2 {
		t.Errorf("Expected 2 chart artifacts, got %d", got)
	}

	m.RunID = ""
	if err := m.Validate(); err == nil {
		t.Error("Expected validation error for empty run ID")
	}
}

func TestManifest_Verify(t *testing.T) {
	table := dataset.NewTable(make([]dataset.Student, 10), nil, dataset.SourceSynthetic, "")
	m := NewManifest(core.NewRunID(), 42, table, sampleReport(0.01))

	if err := m.Verify(NewRunFingerprint(42, dataset.SourceSynthetic, 10, sampleReport(0.01))); err != nil {
		t.Errorf("Expected matching replay, got %v", err)
	}

	err := m.Verify(NewRunFingerprint(42, dataset.SourceSynthetic, 10, sampleReport(0.02)))
	if !errors.Is(err, core.ErrHashMismatch) {
		t.Errorf("Expected ErrHashMismatch, got %v", err)
	}
}

func TestManifest_RecordGenerator(t *testing.T) {
	synthetic := dataset.NewTable(make([]dataset.Student, 10), nil, dataset.SourceSynthetic, "")
	m := NewManifest(core.NewRunID(), 42, synthetic, sampleReport(0.01))
	m.RecordGenerator(GeneratorSettings{Rows: 1500, Schools: 60})

	if m.Generator == nil || m.Generator.Rows != 1500 || m.Generator.Schools != 60 {
		t.Fatalf("Expected generator settings 1500/60, got %+v", m.Generator)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}

	m.Generator.Schools = 0
	if err := m.Validate(); err == nil {
		t.Error("Expected validation error for zero schools")
	}

	file := dataset.NewTable(make([]dataset.Student, 10), nil, dataset.SourceFile, "saeb.xlsx")
	fm := NewManifest(core.NewRunID(), 42, file, sampleReport(0.01))
	fm.RecordGenerator(GeneratorSettings{Rows: 1500, Schools: 60})
	if fm.Generator != nil {
		t.Errorf("File runs must not record generator settings, got %+v", fm.Generator)
	}
}

func TestManifest_RecordGeneratorIgnoresEmptySettings(t *testing.T) {
	table := dataset.NewTable(make([]dataset.Student, 10), nil, dataset.SourceSynthetic, "")
	m := NewManifest(core.NewRunID(), 42, table, sampleReport(0.01))
	m.RecordGenerator(GeneratorSettings{})

	if m.Generator != nil {
		t.Errorf("Expected no generator settings, got %+v", m.Generator)
	}
}
