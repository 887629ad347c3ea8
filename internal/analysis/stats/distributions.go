package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue computes the two-tailed p-value of t under Student's t-distribution
func TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}
	if math.IsInf(tStatistic, 0) {
		return 0
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	p := 2 * tDist.Survival(math.Abs(tStatistic))
	return math.Min(1, p)
}

// CorrelationPValue computes the two-tailed p-value of a Pearson correlation
func CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return 1.0
	}
	if math.Abs(correlation) >= 1 {
		return 0
	}

	// Transform correlation to t-statistic
	df := float64(sampleSize - 2)
	tStatistic := correlation * math.Sqrt(df/(1-correlation*correlation))

	return TTestPValue(tStatistic, df)
}

// FTestPValue computes the upper-tail p-value of the F-distribution
func FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return 1.0
	}
	if math.IsInf(fStatistic, 1) {
		return 0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return math.Max(0, 1-fDist.CDF(fStatistic))
}
