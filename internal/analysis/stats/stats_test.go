package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saebequity/domain/core"
)

func TestStudentTTest_KnownValues(t *testing.T) {
	res, err := StudentTTest([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 6})
	require.NoError(t, err)

	assert.InDelta(t, -1.0, res.T, 1e-12)
	assert.Equal(t, 8.0, res.DF)
	assert.InDelta(t, 0.346593507, res.PValue, 1e-6)
	assert.InDelta(t, -1.0, res.MeanDiff, 1e-12)
	assert.InDelta(t, -0.632455532, res.CohensD, 1e-6)
	assert.Equal(t, 5, res.NA)
}

func TestStudentTTest_StrongSeparation(t *testing.T) {
	a := make([]float64, 200)
	b := make([]float64, 200)
	for i := range a {
		a[i] = 100 + float64(i%10)
		b[i] = 150 + float64(i%10)
	}
	res, err := StudentTTest(a, b)
	require.NoError(t, err)

	assert.Less(t, res.PValue, 1e-10)
	assert.False(t, math.IsNaN(res.PValue))
	assert.InDelta(t, -50, res.MeanDiff, 1e-9)
}

func TestStudentTTest_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float64
		target error
	}{
		{"empty group", nil, []float64{1, 2}, core.ErrEmptyGroup},
		{"single element", []float64{1}, []float64{1, 2}, core.ErrInsufficientData},
		{"zero variance", []float64{3, 3, 3}, []float64{3, 3}, core.ErrDegenerate},
		{"nan value", []float64{1, math.NaN()}, []float64{1, 2}, core.ErrDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StudentTTest(tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestPearson(t *testing.T) {
	res, err := Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5})
	require.NoError(t, err)

	assert.InDelta(t, 0.774596669, res.R, 1e-6)
	assert.InDelta(t, 0.124027, res.PValue, 1e-4)
	assert.Equal(t, 5, res.N)

	perfect, err := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, perfect.R, 1e-12)
	assert.Less(t, perfect.PValue, 1e-6)
}

func TestPearson_Degenerate(t *testing.T) {
	_, err := Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, core.ErrDegenerate))

	_, err = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = Pearson([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)
}

func TestOLS_SimpleLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3.1, 4.9, 7.2, 8.8, 11.1}

	res, err := OLS(y, [][]float64{x}, []string{"x"})
	require.NoError(t, err)

	require.Len(t, res.Terms, 1)
	assert.Equal(t, "x", res.Terms[0].Name)
	assert.InDelta(t, 1.99, res.Terms[0].Estimate, 1e-9)
	assert.InDelta(t, 1.05, res.Intercept.Estimate, 1e-9)
	assert.InDelta(t, 0.99731, res.RSquared, 1e-4)
	assert.Less(t, res.FPValue, 0.001)
	assert.Less(t, res.Terms[0].PValue, 0.001)
	assert.Equal(t, 5, res.N)

	// closed form: SE(slope) = sqrt(s²/Sxx), SE(intercept) = sqrt(s²(1/n + x̄²/Sxx)), s² = 0.107/3
	assert.InDelta(t, 0.059722, res.Terms[0].StdErr, 1e-5)
	assert.InDelta(t, 0.198074, res.Intercept.StdErr, 1e-5)
}

func TestOLS_TwoPredictors(t *testing.T) {
	// y = 10 + 2*a - 3*b with a small deterministic perturbation
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{2, 1, 4, 3, 6, 5, 8, 7}
	y := make([]float64, len(a))
	for i := range a {
		y[i] = 10 + 2*a[i] - 3*b[i] + 0.01*float64(i%2)
	}

	res, err := OLS(y, [][]float64{a, b}, []string{"a", "b"})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Terms[0].Estimate, 0.01)
	assert.InDelta(t, -3.0, res.Terms[1].Estimate, 0.01)
	assert.Greater(t, res.RSquared, 0.999)
}

func TestOLS_Degenerate(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 6}

	_, err := OLS(y, [][]float64{{1, 1, 1, 1, 1}}, []string{"const"})
	assert.True(t, errors.Is(err, core.ErrSingular))

	_, err = OLS(y, [][]float64{x, x}, []string{"x", "x_copy"})
	assert.True(t, errors.Is(err, core.ErrDegenerate))

	scaled := []float64{2, 4, 6, 8, 10}
	_, err = OLS(y, [][]float64{x, scaled}, []string{"x", "x_scaled"})
	assert.True(t, errors.Is(err, core.ErrSingular), "collinear predictors")

	_, err = OLS([]float64{1, 2}, [][]float64{{1, 2}}, []string{"x"})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = OLS([]float64{3, 3, 3, 3, 3}, [][]float64{x}, []string{"x"})
	assert.True(t, errors.Is(err, core.ErrDegenerate))

	_, err = OLS([]float64{2, 4, 6, 8, 10}, [][]float64{x}, []string{"x"})
	assert.True(t, errors.Is(err, core.ErrDegenerate), "perfect fit")
}

func TestQuantile_Type7(t *testing.T) {
	data := []float64{4, 1, 3, 2}

	q, err := Quantile(data, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, q, 1e-12)

	q, err = Quantile(data, 0.7)
	require.NoError(t, err)
	assert.InDelta(t, 3.1, q, 1e-12)

	q, err = Quantile(data, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, q)

	m, err := Median([]float64{5, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)

	assert.Equal(t, []float64{4, 1, 3, 2}, data, "input must not be reordered")

	_, err = Quantile(nil, 0.5)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	_, err = Quantile(data, 1.5)
	assert.Error(t, err)
}

func TestDistributions_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, TTestPValue(0.5, 0))
	assert.InDelta(t, 1.0, TTestPValue(0, 10), 1e-12)
	assert.Equal(t, 1.0, CorrelationPValue(0.9, 2))
	assert.Equal(t, 1.0, FTestPValue(2, 0, 5))
	assert.InDelta(t, 0.05, FTestPValue(4.964603, 1, 10), 1e-4)
}
