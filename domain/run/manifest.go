package run

import (
	"fmt"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

// ArtifactKind classifies a file written by a run
type ArtifactKind string

const (
	ArtifactDeck       ArtifactKind = "deck"
	ArtifactTextReport ArtifactKind = "text_report"
	ArtifactHTMLReport ArtifactKind = "html_report"
	ArtifactWorkbook   ArtifactKind = "workbook"
	ArtifactChart      ArtifactKind = "chart"
	ArtifactSnapshot   ArtifactKind = "snapshot"
	ArtifactData       ArtifactKind = "data"
)

// Artifact is one written file
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	Path string       `json:"path"`
}

// GeneratorSettings are the synthetic generator inputs a replay needs
type GeneratorSettings struct {
	Rows    int `json:"rows"`
	Schools int `json:"schools"`
}

// Manifest is the record of one pipeline execution, written last
type Manifest struct {
	RunID       core.RunID         `json:"run_id"`
	InputPath   string             `json:"input_path,omitempty"`
	Generator   *GeneratorSettings `json:"generator,omitempty"`
	Alpha       float64            `json:"alpha"`
	Confirmed   int                `json:"confirmed_hypotheses"`
	Fingerprint RunFingerprint     `json:"fingerprint"`
	Artifacts   []Artifact         `json:"artifacts"`
	CreatedAt   core.Timestamp     `json:"created_at"`
}

// NewManifest creates a manifest for a finished analysis
func NewManifest(runID core.RunID, seed int64, table *dataset.Table, report hypothesis.Report) *Manifest {
	return &Manifest{
		RunID:       runID,
		InputPath:   table.Path,
		Alpha:       report.Alpha,
		Confirmed:   report.Confirmed(),
		Fingerprint: NewRunFingerprint(seed, table.Source, table.Len(), report),
		CreatedAt:   core.Now(),
	}
}

// RecordGenerator stores the generator settings when the run analyzed synthetic data
func (m *Manifest) RecordGenerator(settings GeneratorSettings) {
	if m.Fingerprint.Source != dataset.SourceSynthetic || settings.Rows <= 0 {
		return
	}
	m.Generator = &settings
}

// AddArtifact records a written file
func (m *Manifest) AddArtifact(kind ArtifactKind, path string) {
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: path})
}

// Paths returns the artifact paths of the given kind
func (m *Manifest) Paths(kind ArtifactKind) []string {
	var out []string
	for _, a := range m.Artifacts {
		if a.Kind == kind {
			out = append(out, a.Path)
		}
	}
	return out
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	if m.Fingerprint.Rows <= 0 {
		return core.NewValidationError("run_manifest", "row count must be positive")
	}
	if g := m.Generator; g != nil && (g.Rows <= 0 || g.Schools <= 0) {
		return core.NewValidationError("run_manifest", "generator rows and schools must be positive")
	}
	return nil
}

// Verify compares a replayed fingerprint against the recorded one
func (m *Manifest) Verify(replay RunFingerprint) error {
	if !m.Fingerprint.Fingerprint.Equals(replay.Fingerprint) {
		return fmt.Errorf("%w: run %s recorded %s, replay produced %s",
			core.ErrHashMismatch, m.RunID, m.Fingerprint.Fingerprint, replay.Fingerprint)
	}
	return nil
}
