package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"saebequity/domain/core"
)

// TTestResult holds a two-sample comparison of group A against group B
type TTestResult struct {
	T        float64
	DF       float64
	PValue   float64
	NA, NB   int
	MeanA    float64
	MeanB    float64
	MeanDiff float64 // MeanA - MeanB
	CohensD  float64
}

// StudentTTest performs a two-sided two-sample t-test assuming equal variances.
// Each group needs at least two observations and the pooled variance must be positive.
func StudentTTest(a, b []float64) (TTestResult, error) {
	if len(a) < 2 {
		return TTestResult{}, core.NewGroupSizeError("A", len(a))
	}
	if len(b) < 2 {
		return TTestResult{}, core.NewGroupSizeError("B", len(b))
	}
	if hasNonFinite(a) || hasNonFinite(b) {
		return TTestResult{}, fmt.Errorf("%w: non-finite observation", core.ErrDegenerate)
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	df := na + nb - 2
	pooled := ((na-1)*varA + (nb-1)*varB) / df
	if pooled <= 0 {
		return TTestResult{}, fmt.Errorf("%w: zero pooled variance", core.ErrDegenerate)
	}

	diff := meanA - meanB
	se := math.Sqrt(pooled * (1/na + 1/nb))
	t := diff / se

	return TTestResult{
		T:        t,
		DF:       df,
		PValue:   TTestPValue(t, df),
		NA:       len(a),
		NB:       len(b),
		MeanA:    meanA,
		MeanB:    meanB,
		MeanDiff: diff,
		CohensD:  diff / math.Sqrt(pooled),
	}, nil
}

func hasNonFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
