package stats

import (
	"fmt"
	"math"
	"sort"

	"saebequity/domain/core"
)

// Quantile returns the p-quantile of data using linear interpolation between
// closest ranks (Hyndman and Fan type 7). data is not modified.
func Quantile(data []float64, p float64) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: quantile of empty data", core.ErrInsufficientData)
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, p)
}

// QuantileSorted is Quantile for data already in ascending order
func QuantileSorted(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, fmt.Errorf("%w: quantile of empty data", core.ErrInsufficientData)
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("quantile probability %v outside [0, 1]", p)
	}

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// Median is the 0.5 quantile
func Median(data []float64) (float64, error) {
	return Quantile(data, 0.5)
}
