package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saebequity/domain/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateCmd_CSV(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "saeb.csv")

	_, err := execute(t, "generate",
		"--output", output,
		"--rows", "200",
		"--schools", "20",
		"--log-file", filepath.Join(dir, "analysis.log"),
	)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 201)
	assert.Contains(t, lines[0], "NOTA_MATEMATICA")
	assert.NotContains(t, lines[0], "INFRA_BOA")
}

func TestGenerateCmd_Processed(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "saeb.csv")

	_, err := execute(t, "generate", "--processed",
		"--output", output,
		"--rows", "200",
		"--log-file", filepath.Join(dir, "analysis.log"),
	)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, strings.SplitN(string(data), "\n", 2)[0], "INFRA_BOA")
}

func TestGenerateCmd_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "generate",
		"--output", filepath.Join(dir, "saeb.json"),
		"--rows", "50",
		"--log-file", filepath.Join(dir, "analysis.log"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestRootCmd_InvalidRows(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--rows", "1", "--log-file", filepath.Join(dir, "analysis.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(fmt.Errorf("loading data failed: %w", core.NewMissingColumnError("NOTA_PORTUGUES"))))
	assert.Equal(t, 3, exitCode(fmt.Errorf("hypothesis 3: %w", core.ErrSingular)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("disk full")))
}

func TestVerifyCmd_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "verify", filepath.Join(dir, "manifest.json"), "--log-file", filepath.Join(dir, "analysis.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"out", "snapshot", "browser", "no-interactive", "no-static"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	for _, name := range []string{"data", "seed", "rows", "schools", "log-level", "log-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}
