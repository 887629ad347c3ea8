package tester

import (
	"context"
	"fmt"
	"math"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal"
	"saebequity/internal/analysis/stats"
	"saebequity/internal/errors"
)

// Regressor names shared by the regression outputs
const (
	TermTeacherShare    = "teacher_share"
	TermMinorityShare   = "minority_share"
	TermCulturalCapital = "cultural_capital"
	TermNSE             = "nse"
	TermMinority        = "minority"
	TermPeerShare       = "peer_share"
)

// Tester runs the fixed battery of equity hypotheses over a processed table
type Tester struct {
	logger *internal.Logger
}

// New creates a tester
func New(logger *internal.Logger) *Tester {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Tester{logger: logger}
}

// RunAll executes the four hypotheses in order. Any statistical failure aborts
// the run; there are no partial reports.
func (t *Tester) RunAll(ctx context.Context, table *dataset.Table) (hypothesis.Report, error) {
	t.logger.Info("[Tester] Running %d hypotheses on %d students", len(hypothesis.Keys), table.Len())

	steps := []func(*dataset.Table) (hypothesis.Result, error){
		t.Segregation,
		t.TeacherQuality,
		t.CulturalCapital,
		t.PeerEffect,
	}

	report := hypothesis.Report{Alpha: hypothesis.Alpha}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return hypothesis.Report{}, err
		}
		result, err := step(table)
		if err != nil {
			return hypothesis.Report{}, err
		}
		status := "rejected"
		if result.Confirmed {
			status = "confirmed"
		}
		t.logger.Info("[Tester] %s: %s (headline %s, p=%.4f)", result.Title, status, result.Headline, result.PValue())
		report.Results = append(report.Results, result)
	}

	t.logger.Info("[Tester] %d of %d hypotheses confirmed", report.Confirmed(), len(report.Results))
	return report, nil
}

// Segregation tests whether schools with a high minority share have worse
// infrastructure and lower scores than the rest.
func (t *Tester) Segregation(table *dataset.Table) (hypothesis.Result, error) {
	key := hypothesis.KeySegregation
	t.logger.Debug("[Tester] Testing hypothesis %d: socio-spatial segregation", key.Number())

	if err := requireColumns(key, table, dataset.ColSchool); err != nil {
		return hypothesis.Result{}, err
	}
	schools := AggregateSchools(table)
	high, low, err := splitAtMedianShare(key, schools)
	if err != nil {
		return hypothesis.Result{}, err
	}

	comparisons := []struct {
		name, label string
		field       func(SchoolAggregate) float64
	}{
		{"infrastructure_difference", "Good-infrastructure share",
			func(s SchoolAggregate) float64 { return s.GoodInfraShare }},
		{"math_score_difference", "Mean maths score",
			func(s SchoolAggregate) float64 { return s.MeanMath }},
		{"portuguese_score_difference", "Mean Portuguese score",
			func(s SchoolAggregate) float64 { return s.MeanPortuguese }},
	}

	var tests []hypothesis.TestOutcome
	for _, c := range comparisons {
		outcome, err := compare(key, c.name, c.label, "high-minority schools", "low-minority schools",
			SchoolColumn(high, c.field), SchoolColumn(low, c.field), hypothesis.Negative)
		if err != nil {
			return hypothesis.Result{}, err
		}
		tests = append(tests, outcome)
	}

	corr, err := correlate(key, "correlation_minority_infra", "Minority share x good-infrastructure share",
		SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.MinorityShare }),
		SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.GoodInfraShare }))
	if err != nil {
		return hypothesis.Result{}, err
	}

	summary := []hypothesis.Stat{
		{Name: "high_minority_schools", Label: "High-minority schools", Value: float64(len(high))},
		{Name: "low_minority_schools", Label: "Low-minority schools", Value: float64(len(low))},
		{Name: "avg_infra_high_minority", Label: "Good-infrastructure share, high-minority schools", Value: tests[0].MeanA},
		{Name: "avg_infra_low_minority", Label: "Good-infrastructure share, low-minority schools", Value: tests[0].MeanB},
	}

	return hypothesis.NewResult(key, "Socio-spatial segregation",
		"Minority students are concentrated in schools with poorer infrastructure",
		tests, []hypothesis.Correlation{corr}, nil, summary), nil
}

// TeacherQuality tests whether high-minority schools have fewer qualified
// teachers, and how teacher share and minority share explain school scores.
func (t *Tester) TeacherQuality(table *dataset.Table) (hypothesis.Result, error) {
	key := hypothesis.KeyTeacherQuality
	t.logger.Debug("[Tester] Testing hypothesis %d: teacher quality", key.Number())

	if err := requireColumns(key, table, dataset.ColSchool); err != nil {
		return hypothesis.Result{}, err
	}
	schools := AggregateSchools(table)
	high, low, err := splitAtMedianShare(key, schools)
	if err != nil {
		return hypothesis.Result{}, err
	}

	qualified := func(s SchoolAggregate) float64 { return s.QualifiedShare }
	outcome, err := compare(key, "teacher_quality_difference", "Qualified-teacher share",
		"high-minority schools", "low-minority schools",
		SchoolColumn(high, qualified), SchoolColumn(low, qualified), hypothesis.Negative)
	if err != nil {
		return hypothesis.Result{}, err
	}

	minorityShare := SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.MinorityShare })
	teacherShare := SchoolColumn(schools, qualified)

	corr, err := correlate(key, "correlation_minority_teacher", "Minority share x qualified-teacher share",
		minorityShare, teacherShare)
	if err != nil {
		return hypothesis.Result{}, err
	}

	predictors := [][]float64{teacherShare, minorityShare}
	names := []string{TermTeacherShare, TermMinorityShare}
	regressions, err := regressScores(key, predictors, names,
		SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.MeanMath }),
		SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.MeanPortuguese }))
	if err != nil {
		return hypothesis.Result{}, err
	}

	summary := []hypothesis.Stat{
		{Name: "avg_teacher_quality_high_minority", Label: "Qualified-teacher share, high-minority schools", Value: outcome.MeanA},
		{Name: "avg_teacher_quality_low_minority", Label: "Qualified-teacher share, low-minority schools", Value: outcome.MeanB},
	}

	return hypothesis.NewResult(key, "Teacher quality",
		"Less qualified teachers work in schools with a higher concentration of minority students",
		[]hypothesis.TestOutcome{outcome}, []hypothesis.Correlation{corr}, regressions, summary), nil
}

// CulturalCapital compares minority and non-minority students on household
// cultural capital and socioeconomic level.
func (t *Tester) CulturalCapital(table *dataset.Table) (hypothesis.Result, error) {
	key := hypothesis.KeyCulturalCapital
	t.logger.Debug("[Tester] Testing hypothesis %d: cultural capital", key.Number())

	if err := requireColumns(key, table, dataset.ColCulturalCapital, dataset.ColNSE); err != nil {
		return hypothesis.Result{}, err
	}
	if err := requireObserved(key, table, dataset.ColCulturalCapital, dataset.ColNSE); err != nil {
		return hypothesis.Result{}, err
	}

	minority := dataset.NewTable(table.Filter(func(s dataset.Student) bool { return s.Minority }),
		nil, table.Source, table.Path)
	majority := dataset.NewTable(table.Filter(func(s dataset.Student) bool { return !s.Minority }),
		nil, table.Source, table.Path)

	var tests []hypothesis.TestOutcome
	for _, c := range []struct{ name, label, column string }{
		{"cultural_capital_difference", "Cultural capital", dataset.ColCulturalCapital},
		{"nse_difference", "Socioeconomic level", dataset.ColNSE},
	} {
		outcome, err := compare(key, c.name, c.label, "minority", "non-minority",
			minority.Column(c.column), majority.Column(c.column), hypothesis.Negative)
		if err != nil {
			return hypothesis.Result{}, err
		}
		tests = append(tests, outcome)
	}

	capital := table.Column(dataset.ColCulturalCapital)
	mathScores := table.Column(dataset.ColMath)
	portuguese := table.Column(dataset.ColPortuguese)

	corrMath, err := correlate(key, "correlation_capital_math", "Cultural capital x maths score", capital, mathScores)
	if err != nil {
		return hypothesis.Result{}, err
	}
	corrPort, err := correlate(key, "correlation_capital_portuguese", "Cultural capital x Portuguese score", capital, portuguese)
	if err != nil {
		return hypothesis.Result{}, err
	}

	predictors := [][]float64{capital, table.Column(dataset.ColNSE), table.Column(dataset.ColMinority)}
	names := []string{TermCulturalCapital, TermNSE, TermMinority}
	regressions, err := regressScores(key, predictors, names, mathScores, portuguese)
	if err != nil {
		return hypothesis.Result{}, err
	}

	summary := []hypothesis.Stat{
		{Name: "avg_capital_minority", Label: "Cultural capital, minority", Value: tests[0].MeanA},
		{Name: "avg_capital_non_minority", Label: "Cultural capital, non-minority", Value: tests[0].MeanB},
		{Name: "avg_nse_minority", Label: "NSE, minority", Value: tests[1].MeanA},
		{Name: "avg_nse_non_minority", Label: "NSE, non-minority", Value: tests[1].MeanB},
	}

	return hypothesis.NewResult(key, "Cultural capital",
		"Differences in family environment and home educational resources",
		tests, []hypothesis.Correlation{corrMath, corrPort}, regressions, summary), nil
}

// PeerEffect attaches each student's school minority share and compares students
// in the lowest share quartile against those in the highest.
func (t *Tester) PeerEffect(table *dataset.Table) (hypothesis.Result, error) {
	key := hypothesis.KeyPeerEffect
	t.logger.Debug("[Tester] Testing hypothesis %d: peer effect", key.Number())

	if err := requireColumns(key, table, dataset.ColSchool, dataset.ColCulturalCapital, dataset.ColNSE); err != nil {
		return hypothesis.Result{}, err
	}
	if err := requireObserved(key, table, dataset.ColNSE, dataset.ColCulturalCapital); err != nil {
		return hypothesis.Result{}, err
	}

	shareBySchool := schoolShares(AggregateSchools(table))
	peerShare := make([]float64, table.Len())
	for i, s := range table.Students {
		peerShare[i] = shareBySchool[s.School]
	}

	mathScores := table.Column(dataset.ColMath)
	portuguese := table.Column(dataset.ColPortuguese)

	corrMath, err := correlate(key, "correlation_peer_math", "School minority share x maths score", peerShare, mathScores)
	if err != nil {
		return hypothesis.Result{}, err
	}
	corrPort, err := correlate(key, "correlation_peer_portuguese", "School minority share x Portuguese score", peerShare, portuguese)
	if err != nil {
		return hypothesis.Result{}, err
	}

	predictors := [][]float64{
		peerShare,
		table.Column(dataset.ColNSE),
		table.Column(dataset.ColCulturalCapital),
		table.Column(dataset.ColMinority),
	}
	names := []string{TermPeerShare, TermNSE, TermCulturalCapital, TermMinority}
	regressions, err := regressScores(key, predictors, names, mathScores, portuguese)
	if err != nil {
		return hypothesis.Result{}, err
	}

	q1, err := stats.Quantile(peerShare, 0.25)
	if err != nil {
		return hypothesis.Result{}, errors.Computation(stepName(key, "peer share quartiles"), err)
	}
	q3, err := stats.Quantile(peerShare, 0.75)
	if err != nil {
		return hypothesis.Result{}, errors.Computation(stepName(key, "peer share quartiles"), err)
	}
	t.logger.Debug("[Tester] Peer share quartiles: q1=%.4f q3=%.4f", q1, q3)

	var lowMath, lowPort, highMath, highPort []float64
	for i, share := range peerShare {
		if share <= q1 {
			lowMath = append(lowMath, mathScores[i])
			lowPort = append(lowPort, portuguese[i])
		}
		if share >= q3 {
			highMath = append(highMath, mathScores[i])
			highPort = append(highPort, portuguese[i])
		}
	}

	peerMath, err := compare(key, "peer_effect_math", "Maths score", "lowest-share quartile", "highest-share quartile",
		lowMath, highMath, hypothesis.Positive)
	if err != nil {
		return hypothesis.Result{}, err
	}
	peerPort, err := compare(key, "peer_effect_portuguese", "Portuguese score", "lowest-share quartile", "highest-share quartile",
		lowPort, highPort, hypothesis.Positive)
	if err != nil {
		return hypothesis.Result{}, err
	}

	summary := []hypothesis.Stat{
		{Name: "avg_score_q1_math", Label: "Maths score, lowest-share quartile", Value: peerMath.MeanA},
		{Name: "avg_score_q4_math", Label: "Maths score, highest-share quartile", Value: peerMath.MeanB},
		{Name: "avg_score_q1_portuguese", Label: "Portuguese score, lowest-share quartile", Value: peerPort.MeanA},
		{Name: "avg_score_q4_portuguese", Label: "Portuguese score, highest-share quartile", Value: peerPort.MeanB},
	}

	return hypothesis.NewResult(key, "Peer effect",
		"Negative impact of the socioeconomic composition of the school",
		[]hypothesis.TestOutcome{peerMath, peerPort},
		[]hypothesis.Correlation{corrMath, corrPort}, regressions, summary), nil
}

func stepName(key hypothesis.Key, step string) string {
	return fmt.Sprintf("hypothesis %d: %s", key.Number(), step)
}

func requireColumns(key hypothesis.Key, table *dataset.Table, columns ...string) error {
	for _, col := range columns {
		if !table.Has(col) {
			return errors.Computation(stepName(key, "input check"), core.NewMissingColumnError(col))
		}
	}
	return nil
}

// requireObserved rejects covariates with blank cells; the regressions need every row
func requireObserved(key hypothesis.Key, table *dataset.Table, columns ...string) error {
	for _, col := range columns {
		missing := 0
		for _, v := range table.Column(col) {
			if math.IsNaN(v) {
				missing++
			}
		}
		if missing > 0 {
			return errors.Computation(stepName(key, "input check"), core.NewMissingValuesError(col, missing, table.Len()))
		}
	}
	return nil
}

func splitAtMedianShare(key hypothesis.Key, schools []SchoolAggregate) (high, low []SchoolAggregate, err error) {
	high, low, err = SplitByMedianShare(schools)
	if err != nil {
		return nil, nil, errors.Computation(stepName(key, "median minority share"), err)
	}
	return high, low, nil
}

func compare(key hypothesis.Key, name, label, groupA, groupB string, a, b []float64,
	expected hypothesis.Direction) (hypothesis.TestOutcome, error) {

	res, err := stats.StudentTTest(a, b)
	if err != nil {
		return hypothesis.TestOutcome{}, errors.Computation(stepName(key, name), err)
	}
	return hypothesis.TestOutcome{
		Name:       name,
		Label:      label,
		GroupA:     groupA,
		GroupB:     groupB,
		NA:         res.NA,
		NB:         res.NB,
		MeanA:      res.MeanA,
		MeanB:      res.MeanB,
		Statistic:  res.T,
		DF:         res.DF,
		PValue:     res.PValue,
		EffectSize: res.MeanDiff,
		CohensD:    res.CohensD,
		Expected:   expected,
	}, nil
}

func correlate(key hypothesis.Key, name, label string, x, y []float64) (hypothesis.Correlation, error) {
	res, err := stats.Pearson(x, y)
	if err != nil {
		return hypothesis.Correlation{}, errors.Computation(stepName(key, name), err)
	}
	return hypothesis.Correlation{Name: name, Label: label, R: res.R, PValue: res.PValue, N: res.N}, nil
}

// regressScores fits the same design against maths and Portuguese scores
func regressScores(key hypothesis.Key, predictors [][]float64, names []string, mathScores, portuguese []float64) ([]hypothesis.Regression, error) {
	outcomes := []struct {
		name, outcome string
		y             []float64
	}{
		{"regression_math", dataset.ColMath, mathScores},
		{"regression_portuguese", dataset.ColPortuguese, portuguese},
	}

	out := make([]hypothesis.Regression, 0, len(outcomes))
	for _, o := range outcomes {
		res, err := stats.OLS(o.y, predictors, names)
		if err != nil {
			return nil, errors.Computation(stepName(key, o.name), err)
		}
		reg := hypothesis.Regression{
			Name:        o.name,
			Outcome:     o.outcome,
			Intercept:   coefficient(res.Intercept),
			RSquared:    res.RSquared,
			AdjRSquared: res.AdjRSquared,
			F:           res.F,
			FPValue:     res.FPValue,
			N:           res.N,
		}
		for _, term := range res.Terms {
			reg.Coefficients = append(reg.Coefficients, coefficient(term))
		}
		out = append(out, reg)
	}
	return out, nil
}

func coefficient(term stats.Term) hypothesis.Coefficient {
	return hypothesis.Coefficient{
		Name:     term.Name,
		Estimate: term.Estimate,
		StdErr:   term.StdErr,
		T:        term.T,
		PValue:   term.PValue,
	}
}
