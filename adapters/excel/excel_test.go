package excel

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal"
)

func sampleTable() *dataset.Table {
	students := []dataset.Student{
		{School: "1001", Race: "PARDA", NSE: 0.5, Math: 210.123456, Portuguese: 199.5},
		{School: "1002", Race: "BRANCA", NSE: -1.25, Math: 250, Portuguese: 240.25},
	}
	cols := []string{dataset.ColSchool, dataset.ColRace, dataset.ColNSE, dataset.ColMath, dataset.ColPortuguese}
	return dataset.NewTable(students, cols, dataset.SourceSynthetic, "")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "NOTA_MATEMATICA", NormalizeHeader(" nota matematica "))
	assert.Equal(t, "NSE", NormalizeHeader("nse"))
}

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, WriteTableCSV(path, sampleTable()))

	data, err := NewDataReader(path, internal.Discard()).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"CODIGO_ESCOLA", "COR_RACA", "NSE", "NOTA_MATEMATICA", "NOTA_PORTUGUES"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "210.1235", data.Rows[0][dataset.ColMath])
	assert.Equal(t, "-1.25", data.Rows[1][dataset.ColNSE])
}

func TestWriteTableCSV_BlankForMissingValues(t *testing.T) {
	table := sampleTable()
	table.Students[1].NSE = math.NaN()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, WriteTableCSV(path, table))

	data, err := NewDataReader(path, internal.Discard()).ReadData()
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "0.5", data.Rows[0][dataset.ColNSE])
	assert.Equal(t, "", data.Rows[1][dataset.ColNSE])
}

func TestWriteAndReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, WriteTableXLSX(path, sampleTable()))

	data, err := NewDataReader(path, internal.Discard()).ReadData()
	require.NoError(t, err)

	assert.Equal(t, SheetData, data.Sheet)
	assert.True(t, data.HasColumn(dataset.ColPortuguese))
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "PARDA", data.Rows[0][dataset.ColRace])
	assert.Equal(t, "250", data.Rows[1][dataset.ColMath])
}

func TestReadCSV_NormalizesHeadersAndSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	content := "nota matematica,Nota Portugues\n100,120\n,\n130,140\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	data, err := NewDataReader(path, internal.Discard()).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{dataset.ColMath, dataset.ColPortuguese}, data.Headers)
	assert.Len(t, data.Rows, 2)
}

func TestReadData_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "absent.xlsx"), internal.Discard()).ReadData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadData_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := NewDataReader(path, internal.Discard()).ReadData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestWriteResultsWorkbook(t *testing.T) {
	tests := []hypothesis.TestOutcome{
		{Name: "infrastructure_difference", GroupA: "high", GroupB: "low", NA: 10, NB: 10, PValue: 0.01, EffectSize: -0.2, Expected: hypothesis.Negative},
		{Name: "math_score_difference", GroupA: "high", GroupB: "low", NA: 10, NB: 10, PValue: 0.2, EffectSize: -3, Expected: hypothesis.Negative},
	}
	reg := hypothesis.Regression{
		Name:         "regression_math",
		Intercept:    hypothesis.Coefficient{Name: "intercept", Estimate: 200},
		Coefficients: []hypothesis.Coefficient{{Name: "teacher_share", Estimate: 3}},
	}
	report := hypothesis.Report{Alpha: hypothesis.Alpha, Results: []hypothesis.Result{
		hypothesis.NewResult(hypothesis.KeySegregation, "Socio-spatial segregation", "d", tests,
			[]hypothesis.Correlation{{Name: "minority_x_infra", R: -0.3, PValue: 0.001, N: 20}},
			[]hypothesis.Regression{reg}, nil),
	}}

	path := filepath.Join(t.TempDir(), "out", "results.xlsx")
	require.NoError(t, WriteResultsWorkbook(path, sampleTable(), report))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetTests, SheetCorrelations, SheetRegressions, SheetData}, f.GetSheetList())

	testRows, err := f.GetRows(SheetTests)
	require.NoError(t, err)
	assert.Len(t, testRows, 3)

	regRows, err := f.GetRows(SheetRegressions)
	require.NoError(t, err)
	assert.Len(t, regRows, 3, "header, intercept and one term")

	dataRows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	assert.Len(t, dataRows, 3)
}
