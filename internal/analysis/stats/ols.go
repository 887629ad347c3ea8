package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"saebequity/domain/core"
)

const (
	// perfectFitTolerance bounds SSE/SST below which residual variance is treated as zero
	perfectFitTolerance = 1e-12
	// rankTolerance bounds |R_ii| relative to the largest diagonal of R below which
	// the design is rank deficient
	rankTolerance = 1e-10
)

// Term is one estimated regression coefficient
type Term struct {
	Name     string
	Estimate float64
	StdErr   float64
	T        float64
	PValue   float64
}

// OLSResult is an ordinary least squares fit with an intercept
type OLSResult struct {
	Intercept   Term
	Terms       []Term
	RSquared    float64
	AdjRSquared float64
	F           float64
	FPValue     float64
	N           int
}

// OLS regresses y on the named predictor columns plus an intercept by QR
// decomposition of the design matrix. Constant or collinear predictors and
// perfect fits are rejected as degenerate.
func OLS(y []float64, predictors [][]float64, names []string) (OLSResult, error) {
	k := len(predictors)
	n := len(y)
	if k == 0 {
		return OLSResult{}, fmt.Errorf("regression needs at least one predictor")
	}
	if len(names) != k {
		return OLSResult{}, fmt.Errorf("regression has %d predictors but %d names", k, len(names))
	}
	if n <= k+1 {
		return OLSResult{}, fmt.Errorf("%w: %d observations for %d parameters", core.ErrInsufficientData, n, k+1)
	}
	if hasNonFinite(y) {
		return OLSResult{}, fmt.Errorf("%w: non-finite outcome", core.ErrDegenerate)
	}
	for j, col := range predictors {
		if len(col) != n {
			return OLSResult{}, fmt.Errorf("predictor %s has %d values, outcome has %d", names[j], len(col), n)
		}
		if hasNonFinite(col) {
			return OLSResult{}, fmt.Errorf("%w: non-finite values in %s", core.ErrDegenerate, names[j])
		}
		if isConstant(col) {
			return OLSResult{}, fmt.Errorf("%w: predictor %s is constant", core.ErrSingular, names[j])
		}
	}

	// Design matrix with leading intercept column
	X := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j, col := range predictors {
			X.Set(i, j+1, col[i])
		}
	}
	yv := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(X)

	p := k + 1
	var full mat.Dense
	qr.RTo(&full)
	rf := mat.NewTriDense(p, mat.Upper, nil)
	maxDiag := 0.0
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			rf.SetTri(i, j, full.At(i, j))
		}
		maxDiag = math.Max(maxDiag, math.Abs(full.At(i, i)))
	}
	for i := 0; i < p; i++ {
		if math.Abs(full.At(i, i)) <= rankTolerance*maxDiag {
			return OLSResult{}, fmt.Errorf("%w: predictors are collinear", core.ErrSingular)
		}
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return OLSResult{}, fmt.Errorf("%w: %v", core.ErrSingular, err)
	}

	// (X'X)^-1 = R^-1 R^-T, so coefficient variances come from the rows of R^-1
	var rInv mat.TriDense
	if err := rInv.InverseTri(rf); err != nil {
		return OLSResult{}, fmt.Errorf("%w: %v", core.ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	var sse, sst float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		sse += r * r
		d := y[i] - meanY
		sst += d * d
	}
	if sst == 0 {
		return OLSResult{}, fmt.Errorf("%w: outcome is constant", core.ErrDegenerate)
	}

	dfResid := n - k - 1
	sigma2 := sse / float64(dfResid)
	if sse <= perfectFitTolerance*sst {
		return OLSResult{}, fmt.Errorf("%w: perfect fit leaves no residual variance", core.ErrDegenerate)
	}

	terms := make([]Term, k+1)
	for j := 0; j <= k; j++ {
		var diag float64
		for c := j; c < p; c++ {
			diag += rInv.At(j, c) * rInv.At(j, c)
		}
		v := sigma2 * diag
		if v <= 0 || math.IsNaN(v) {
			return OLSResult{}, fmt.Errorf("%w: non-positive coefficient variance", core.ErrSingular)
		}
		se := math.Sqrt(v)
		est := beta.AtVec(j)
		t := est / se
		name := "intercept"
		if j > 0 {
			name = names[j-1]
		}
		terms[j] = Term{Name: name, Estimate: est, StdErr: se, T: t, PValue: TTestPValue(t, float64(dfResid))}
	}

	r2 := 1 - sse/sst
	adj := 1 - (1-r2)*float64(n-1)/float64(dfResid)
	f := ((sst - sse) / float64(k)) / sigma2

	return OLSResult{
		Intercept:   terms[0],
		Terms:       terms[1:],
		RSquared:    r2,
		AdjRSquared: adj,
		F:           f,
		FPValue:     FTestPValue(f, k, dfResid),
		N:           n,
	}, nil
}
