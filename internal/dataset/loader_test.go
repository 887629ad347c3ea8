package dataset

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/internal"
	"saebequity/internal/errors"
	"saebequity/internal/synthetic"
)

func smallSynthetic() synthetic.Config {
	cfg := synthetic.DefaultConfig()
	cfg.Rows = 500
	cfg.Schools = 40
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileFallsBackToSynthetic(t *testing.T) {
	loader := NewLoader(smallSynthetic(), internal.Discard())

	table, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "basededados.xlsx"))
	require.NoError(t, err)

	assert.Equal(t, dataset.SourceSynthetic, table.Source)
	assert.Equal(t, 500, table.Len())
}

func TestLoad_EmptyPathFallsBackToSynthetic(t *testing.T) {
	table, err := NewLoader(smallSynthetic(), internal.Discard()).Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, dataset.SourceSynthetic, table.Source)
}

func TestLoad_UnreadableFileFallsBackToSynthetic(t *testing.T) {
	path := writeFile(t, "corrupt.xlsx", "definitely not a workbook")

	table, err := NewLoader(smallSynthetic(), internal.Discard()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, dataset.SourceSynthetic, table.Source)
}

func TestLoad_ReadsCSV(t *testing.T) {
	path := writeFile(t, "saeb.csv", "codigo escola,cor raca,NSE,nota matematica,nota portugues\n"+
		"1001,parda,0.5,210.5,200\n"+
		"1002,BRANCA,\"-1,25\",250,240.25\n")

	table, err := NewLoader(smallSynthetic(), internal.Discard()).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, dataset.SourceFile, table.Source)
	assert.Equal(t, path, table.Path)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "PARDA", table.Students[0].Race)
	assert.Equal(t, 210.5, table.Students[0].Math)
	assert.Equal(t, -1.25, table.Students[1].NSE)
	assert.True(t, table.Has(dataset.ColNSE))
	assert.False(t, table.Has(dataset.ColInfrastructure))
}

func TestLoad_MissingScoreColumnAborts(t *testing.T) {
	path := writeFile(t, "saeb.csv", "NSE,NOTA_MATEMATICA\n0.1,200\n")

	_, err := NewLoader(smallSynthetic(), internal.Discard()).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrMissingColumn))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), dataset.ColPortuguese)
}

func TestLoad_NonNumericValueAborts(t *testing.T) {
	path := writeFile(t, "saeb.csv", "NOTA_MATEMATICA,NOTA_PORTUGUES\n200,abc\n")

	_, err := NewLoader(smallSynthetic(), internal.Discard()).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrInvalidValue))
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(smallSynthetic(), internal.Discard()).Load(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
