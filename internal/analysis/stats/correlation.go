package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"saebequity/domain/core"
)

// CorrelationResult is a Pearson product-moment correlation
type CorrelationResult struct {
	R      float64
	PValue float64
	N      int
}

// Pearson correlates x and y. Constant inputs have no defined correlation and are rejected.
func Pearson(x, y []float64) (CorrelationResult, error) {
	if len(x) != len(y) {
		return CorrelationResult{}, fmt.Errorf("correlation inputs differ in length: %d vs %d", len(x), len(y))
	}
	if len(x) < 3 {
		return CorrelationResult{}, fmt.Errorf("%w: correlation needs at least 3 pairs, got %d", core.ErrInsufficientData, len(x))
	}
	if hasNonFinite(x) || hasNonFinite(y) {
		return CorrelationResult{}, fmt.Errorf("%w: non-finite observation", core.ErrDegenerate)
	}
	if isConstant(x) || isConstant(y) {
		return CorrelationResult{}, fmt.Errorf("%w: constant correlation input", core.ErrDegenerate)
	}

	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))

	return CorrelationResult{
		R:      r,
		PValue: CorrelationPValue(r, len(x)),
		N:      len(x),
	}, nil
}

func isConstant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}
