package hypothesis

import (
	"math"
)

// Alpha is the fixed significance level for every test
const Alpha = 0.05

// Key identifies one of the four hypotheses
type Key string

const (
	KeySegregation     Key = "hypothesis_1"
	KeyTeacherQuality  Key = "hypothesis_2"
	KeyCulturalCapital Key = "hypothesis_3"
	KeyPeerEffect      Key = "hypothesis_4"
)

// Keys lists the hypotheses in execution order
var Keys = []Key{KeySegregation, KeyTeacherQuality, KeyCulturalCapital, KeyPeerEffect}

// Number returns the 1-based position of the hypothesis
func (k Key) Number() int {
	for i, key := range Keys {
		if key == k {
			return i + 1
		}
	}
	return 0
}

// Direction is the sign the hypothesis predicts for a mean difference
type Direction int

const (
	Negative Direction = -1
	Positive Direction = 1
)

// Matches reports whether effect has the predicted sign
func (d Direction) Matches(effect float64) bool {
	switch d {
	case Negative:
		return effect < 0
	case Positive:
		return effect > 0
	}
	return false
}

func (d Direction) String() string {
	if d == Negative {
		return "negative"
	}
	return "positive"
}

// TestOutcome is a two-sample mean comparison between group A and group B
type TestOutcome struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	GroupA      string    `json:"group_a"`
	GroupB      string    `json:"group_b"`
	NA          int       `json:"n_a"`
	NB          int       `json:"n_b"`
	MeanA       float64   `json:"mean_a"`
	MeanB       float64   `json:"mean_b"`
	Statistic   float64   `json:"t_statistic"`
	DF          float64   `json:"df"`
	PValue      float64   `json:"p_value"`
	EffectSize  float64   `json:"effect_size"`
	CohensD     float64   `json:"cohens_d"`
	Expected    Direction `json:"expected_direction"`
	Significant bool      `json:"significant"`
	Supports    bool      `json:"supports"`
}

// Evaluate sets Significant and Supports from the p-value and effect
func (o *TestOutcome) Evaluate() {
	o.Significant = o.PValue < Alpha
	o.Supports = o.Significant && o.Expected.Matches(o.EffectSize)
}

// Correlation is a Pearson correlation between two variables
type Correlation struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	R      float64 `json:"r"`
	PValue float64 `json:"p_value"`
	N      int     `json:"n"`
}

// Coefficient is one estimated regression term
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	T        float64 `json:"t"`
	PValue   float64 `json:"p_value"`
}

// Regression is an ordinary least squares fit with an intercept
type Regression struct {
	Name         string        `json:"name"`
	Outcome      string        `json:"outcome"`
	Intercept    Coefficient   `json:"intercept"`
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	AdjRSquared  float64       `json:"adj_r_squared"`
	F            float64       `json:"f_statistic"`
	FPValue      float64       `json:"f_p_value"`
	N            int           `json:"n"`
}

// Coefficient returns the named term
func (r Regression) Coefficient(name string) (Coefficient, bool) {
	for _, c := range r.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Stat is a named descriptive figure attached to a result
type Stat struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Result is the immutable outcome of one hypothesis
type Result struct {
	Key          Key           `json:"key"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Tests        []TestOutcome `json:"tests"`
	Correlations []Correlation `json:"correlations"`
	Regressions  []Regression  `json:"regressions"`
	SummaryStats []Stat        `json:"summary_stats"`
	Confirmed    bool          `json:"confirmed"`
	Headline     string        `json:"headline_test"`
}

// NewResult assembles a result and derives Confirmed and the headline test.
// The headline is the supporting test with the smallest p-value, or the
// smallest p-value overall when nothing supports the hypothesis.
func NewResult(key Key, title, description string, tests []TestOutcome, correlations []Correlation,
	regressions []Regression, summary []Stat) Result {

	r := Result{
		Key:          key,
		Title:        title,
		Description:  description,
		Tests:        tests,
		Correlations: correlations,
		Regressions:  regressions,
		SummaryStats: summary,
	}

	best, bestSupporting := -1, -1
	for i := range r.Tests {
		r.Tests[i].Evaluate()
		t := r.Tests[i]
		if t.Supports {
			r.Confirmed = true
			if bestSupporting < 0 || t.PValue < r.Tests[bestSupporting].PValue {
				bestSupporting = i
			}
		}
		if best < 0 || t.PValue < r.Tests[best].PValue {
			best = i
		}
	}
	if bestSupporting >= 0 {
		best = bestSupporting
	}
	if best >= 0 {
		r.Headline = r.Tests[best].Name
	}
	return r
}

// HeadlineTest returns the test the result is summarized by
func (r Result) HeadlineTest() (TestOutcome, bool) {
	for _, t := range r.Tests {
		if t.Name == r.Headline {
			return t, true
		}
	}
	return TestOutcome{}, false
}

// Statistic is the headline t statistic
func (r Result) Statistic() float64 {
	t, _ := r.HeadlineTest()
	return t.Statistic
}

// PValue is the headline p-value, 1 when the result has no tests
func (r Result) PValue() float64 {
	t, ok := r.HeadlineTest()
	if !ok {
		return 1
	}
	return t.PValue
}

// EffectSize is the headline mean difference
func (r Result) EffectSize() float64 {
	t, _ := r.HeadlineTest()
	return t.EffectSize
}

// MinPValue returns the smallest p-value over all tests
func (r Result) MinPValue() float64 {
	min := 1.0
	for _, t := range r.Tests {
		min = math.Min(min, t.PValue)
	}
	return min
}

// MaxAbsEffect returns the largest absolute mean difference over all tests
func (r Result) MaxAbsEffect() float64 {
	max := 0.0
	for _, t := range r.Tests {
		max = math.Max(max, math.Abs(t.EffectSize))
	}
	return max
}

// Stat returns a summary figure by name
func (r Result) Stat(name string) (float64, bool) {
	for _, s := range r.SummaryStats {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// Report is the ordered set of results for one run
type Report struct {
	Alpha   float64  `json:"alpha"`
	Results []Result `json:"results"`
}

// Confirmed counts confirmed hypotheses
func (r Report) Confirmed() int {
	n := 0
	for _, res := range r.Results {
		if res.Confirmed {
			n++
		}
	}
	return n
}

// Get returns the result for key
func (r Report) Get(key Key) (Result, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return Result{}, false
}
