package tester

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal"
	processing "saebequity/internal/dataset"
	"saebequity/internal/errors"
	"saebequity/internal/synthetic"
)

func syntheticTable(t *testing.T, seed int64) *dataset.Table {
	t.Helper()
	cfg := synthetic.DefaultConfig()
	cfg.Seed = seed
	raw, err := synthetic.Generate(cfg)
	require.NoError(t, err)
	table, err := processing.NewProcessor(seed, internal.Discard()).Process(raw)
	require.NoError(t, err)
	return table
}

func TestRunAll_Synthetic(t *testing.T) {
	report, err := New(internal.Discard()).RunAll(context.Background(), syntheticTable(t, 42))
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Equal(t, hypothesis.Alpha, report.Alpha)
	for i, res := range report.Results {
		assert.Equal(t, hypothesis.Keys[i], res.Key)
		assert.NotEmpty(t, res.Title)
		assert.NotEmpty(t, res.Headline)

		anySupports := false
		for _, o := range res.Tests {
			assert.Equal(t, o.PValue < hypothesis.Alpha, o.Significant, o.Name)
			assert.Equal(t, o.Significant && o.Expected.Matches(o.EffectSize), o.Supports, o.Name)
			assert.InDelta(t, o.MeanA-o.MeanB, o.EffectSize, 1e-9)
			assert.GreaterOrEqual(t, o.PValue, 0.0)
			assert.LessOrEqual(t, o.PValue, 1.0)
			anySupports = anySupports || o.Supports
		}
		assert.Equal(t, anySupports, res.Confirmed, res.Title)
	}

	// Minority students score 50 points lower, so schools and peer groups with
	// more minority students trail the rest.
	seg, _ := report.Get(hypothesis.KeySegregation)
	assert.True(t, seg.Confirmed)
	peer, _ := report.Get(hypothesis.KeyPeerEffect)
	assert.True(t, peer.Confirmed)

	teacher, _ := report.Get(hypothesis.KeyTeacherQuality)
	require.Len(t, teacher.Regressions, 2)
	_, ok := teacher.Regressions[0].Coefficient(TermMinorityShare)
	assert.True(t, ok)

	capital, _ := report.Get(hypothesis.KeyCulturalCapital)
	require.Len(t, capital.Regressions, 2)
	minority, ok := capital.Regressions[0].Coefficient(TermMinority)
	require.True(t, ok)
	assert.InDelta(t, -50, minority.Estimate, 5)
	nse, ok := capital.Regressions[0].Coefficient(TermNSE)
	require.True(t, ok)
	assert.InDelta(t, 20, nse.Estimate, 3)
}

func TestRunAll_Deterministic(t *testing.T) {
	tester := New(internal.Discard())

	a, err := tester.RunAll(context.Background(), syntheticTable(t, 7))
	require.NoError(t, err)
	b, err := tester.RunAll(context.Background(), syntheticTable(t, 7))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(internal.Discard()).RunAll(ctx, syntheticTable(t, 42))
	assert.ErrorIs(t, err, context.Canceled)
}

func singleSchoolTable() *dataset.Table {
	students := make([]dataset.Student, 20)
	for i := range students {
		students[i] = dataset.Student{
			School:          "1000",
			Minority:        i%2 == 0,
			NSE:             float64(i % 5),
			CulturalCapital: float64(i % 3),
			Math:            200 + float64(i),
			Portuguese:      210 - float64(i),
		}
	}
	cols := []string{dataset.ColSchool, dataset.ColMinority, dataset.ColNSE, dataset.ColCulturalCapital,
		dataset.ColMath, dataset.ColPortuguese}
	return dataset.NewTable(students, cols, dataset.SourceFile, "single.csv")
}

func TestSegregation_SingleSchoolCannotBeSplit(t *testing.T) {
	_, err := New(internal.Discard()).Segregation(singleSchoolTable())
	require.Error(t, err)

	assert.True(t, stderrors.Is(err, core.ErrInsufficientData))
	assert.Equal(t, errors.CodeComputation, errors.GetCode(err))
	assert.Contains(t, err.Error(), "hypothesis 1")
}

func TestSegregation_RequiresSchoolCodes(t *testing.T) {
	table := singleSchoolTable()
	delete(table.Columns, dataset.ColSchool)

	_, err := New(internal.Discard()).Segregation(table)
	assert.True(t, stderrors.Is(err, core.ErrMissingColumn))
}

func TestCulturalCapital_ConstantInputIsDegenerate(t *testing.T) {
	table := singleSchoolTable()
	for i := range table.Students {
		table.Students[i].CulturalCapital = 5
	}

	_, err := New(internal.Discard()).CulturalCapital(table)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrDegenerate))
	assert.Contains(t, err.Error(), "cultural_capital_difference")
}

func TestCovariateHypotheses_RejectBlankCells(t *testing.T) {
	tester := New(internal.Discard())
	steps := []struct {
		name string
		run  func(*dataset.Table) (hypothesis.Result, error)
		key  string
	}{
		{"cultural capital", tester.CulturalCapital, "hypothesis 3"},
		{"peer effect", tester.PeerEffect, "hypothesis 4"},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			table := singleSchoolTable()
			table.Students[3].NSE = math.NaN()

			_, err := step.run(table)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, core.ErrInvalidValue))
			assert.True(t, core.IsDataError(err))
			assert.Contains(t, err.Error(), step.key)
			assert.Contains(t, err.Error(), "NSE is blank in 1 of 20 rows")
		})
	}
}

func TestRunAll_BlankUnusedCovariates(t *testing.T) {
	cfg := synthetic.DefaultConfig()
	cfg.Rows = 3000
	cfg.Schools = 100
	raw, err := synthetic.Generate(cfg)
	require.NoError(t, err)
	clean, err := processing.NewProcessor(cfg.Seed, internal.Discard()).Process(raw)
	require.NoError(t, err)

	for i := 0; i < raw.Len(); i += 10 {
		raw.Students[i].Infrastructure = math.NaN()
		raw.Students[i].ClassSize = math.NaN()
	}
	table, err := processing.NewProcessor(cfg.Seed, internal.Discard()).Process(raw)
	require.NoError(t, err)
	assert.Equal(t, clean.Len(), table.Len())

	report, err := New(internal.Discard()).RunAll(context.Background(), table)
	require.NoError(t, err)
	assert.Len(t, report.Results, 4)
}

func TestAggregateSchools(t *testing.T) {
	students := []dataset.Student{
		{School: "B", Minority: true, Math: 100, GoodInfra: true},
		{School: "A", Minority: false, Math: 300},
		{School: "B", Minority: false, Math: 200},
		{School: "A", Minority: false, Math: 310, QualifiedTeachers: true},
	}
	schools := AggregateSchools(dataset.NewTable(students, nil, dataset.SourceFile, ""))

	require.Len(t, schools, 2)
	assert.Equal(t, "A", schools[0].Code)
	assert.Equal(t, 2, schools[0].Students)
	assert.Equal(t, 0.0, schools[0].MinorityShare)
	assert.Equal(t, 0.5, schools[0].QualifiedShare)
	assert.Equal(t, 305.0, schools[0].MeanMath)
	assert.Equal(t, 0.5, schools[1].MinorityShare)
	assert.Equal(t, 0.5, schools[1].GoodInfraShare)
	assert.Equal(t, 150.0, schools[1].MeanMath)
}

func TestSummaryReport(t *testing.T) {
	report, err := New(internal.Discard()).RunAll(context.Background(), syntheticTable(t, 42))
	require.NoError(t, err)

	text := SummaryReport(report)
	assert.True(t, strings.HasPrefix(text, "EDUCATIONAL EQUITY ANALYSIS REPORT"))
	for _, res := range report.Results {
		assert.Contains(t, text, "HYPOTHESIS: "+res.Title)
		for _, o := range res.Tests {
			assert.Contains(t, text, o.Name+": "+Significance(o.Significant))
		}
		for _, c := range res.Correlations {
			assert.Contains(t, text, c.Name+": ")
		}
	}

	assert.Equal(t, "No tests have been run yet.\n", SummaryReport(hypothesis.Report{}))
}
