package visualization

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	gonumstat "gonum.org/v1/gonum/stat"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal/analysis/stats"
	"saebequity/internal/analysis/tester"
)

// maxScatterPoints caps student-level scatter series so the HTML stays small
const maxScatterPoints = 2000

// histogramBins is the bin count for score distributions
const histogramBins = 30

// Point is one scatter observation
type Point struct {
	X, Y float64
}

// GroupMeans holds the high/low minority-concentration school means
type GroupMeans struct {
	Label          string
	Schools        int
	GoodInfraShare float64
	QualifiedShare float64
	MeanMath       float64
}

// Histogram is a binned distribution over shared edges
type Histogram struct {
	Edges  []float64
	Counts map[string][]float64
}

// CorrelationMatrix is a symmetric Pearson matrix with its labels
type CorrelationMatrix struct {
	Labels []string
	Values [][]float64
}

// HypothesisSummary is the per-hypothesis figure behind the summary charts
type HypothesisSummary struct {
	Key       hypothesis.Key
	Title     string
	MinPValue float64
	MaxEffect float64
	Confirmed bool
}

// Figures holds everything the chart backends draw, computed once from the
// processed table and the report
type Figures struct {
	Students int
	Source   dataset.Source

	MathScores       []float64
	PortugueseScores []float64
	MinorityMath     []float64
	MajorityMath     []float64
	MinorityPort     []float64
	MajorityPort     []float64
	MinorityCapital  []float64
	MajorityCapital  []float64

	Schools []tester.SchoolAggregate
	Low     GroupMeans
	High    GroupMeans

	NSEMath     []Point
	CapitalMath []Point
	PeerMath    []Point

	// PeerQuartiles holds maths scores by quartile of the school minority share
	PeerQuartiles [4][]float64

	Correlation CorrelationMatrix
	Summary     []HypothesisSummary
}

// correlationColumns are the variables of the correlation matrix, in order
var correlationColumns = []string{
	dataset.ColMath, dataset.ColPortuguese, dataset.ColNSE,
	dataset.ColCulturalCapital, dataset.ColGoodInfra, dataset.ColQualifiedTeachers,
}

// Prepare computes the chart inputs. School-level figures are left empty when
// the table has no school codes.
func Prepare(table *dataset.Table, report hypothesis.Report) (*Figures, error) {
	if table.Len() == 0 {
		return nil, fmt.Errorf("no students to chart")
	}

	f := &Figures{
		Students:         table.Len(),
		Source:           table.Source,
		MathScores:       table.Column(dataset.ColMath),
		PortugueseScores: table.Column(dataset.ColPortuguese),
	}

	for _, s := range table.Students {
		if s.Minority {
			f.MinorityMath = append(f.MinorityMath, s.Math)
			f.MinorityPort = append(f.MinorityPort, s.Portuguese)
			f.MinorityCapital = append(f.MinorityCapital, s.CulturalCapital)
		} else {
			f.MajorityMath = append(f.MajorityMath, s.Math)
			f.MajorityPort = append(f.MajorityPort, s.Portuguese)
			f.MajorityCapital = append(f.MajorityCapital, s.CulturalCapital)
		}
	}

	step := sampleStep(table.Len())
	for i := 0; i < table.Len(); i += step {
		s := table.Students[i]
		f.NSEMath = append(f.NSEMath, Point{s.NSE, s.Math})
		f.CapitalMath = append(f.CapitalMath, Point{s.CulturalCapital, s.Math})
	}

	if table.Has(dataset.ColSchool) {
		f.Schools = tester.AggregateSchools(table)
		high, low, err := tester.SplitByMedianShare(f.Schools)
		if err != nil {
			return nil, err
		}
		f.High = groupMeans("High concentration", high)
		f.Low = groupMeans("Low concentration", low)
		if err := f.preparePeer(table, step); err != nil {
			return nil, err
		}
	}

	f.Correlation = correlationMatrix(table)

	for _, res := range report.Results {
		f.Summary = append(f.Summary, HypothesisSummary{
			Key:       res.Key,
			Title:     res.Title,
			MinPValue: res.MinPValue(),
			MaxEffect: res.MaxAbsEffect(),
			Confirmed: res.Confirmed,
		})
	}
	return f, nil
}

// preparePeer attaches the school minority share to each student and buckets
// maths scores by its quartiles: Q1 <= q25 < Q2 <= q50 < Q3 <= q75 < Q4
func (f *Figures) preparePeer(table *dataset.Table, step int) error {
	shares := make(map[string]float64, len(f.Schools))
	for _, s := range f.Schools {
		shares[s.Code] = s.MinorityShare
	}
	peer := make([]float64, table.Len())
	for i, s := range table.Students {
		peer[i] = shares[s.School]
	}

	cuts := make([]float64, 3)
	for i, q := range []float64{0.25, 0.5, 0.75} {
		v, err := stats.Quantile(peer, q)
		if err != nil {
			return err
		}
		cuts[i] = v
	}

	for i, s := range table.Students {
		bucket := sort.SearchFloat64s(cuts, peer[i])
		f.PeerQuartiles[bucket] = append(f.PeerQuartiles[bucket], s.Math)
		if i%step == 0 {
			f.PeerMath = append(f.PeerMath, Point{peer[i], s.Math})
		}
	}
	return nil
}

func groupMeans(label string, schools []tester.SchoolAggregate) GroupMeans {
	g := GroupMeans{Label: label, Schools: len(schools)}
	if len(schools) == 0 {
		return g
	}
	g.GoodInfraShare = gonumstat.Mean(tester.SchoolColumn(schools, func(s tester.SchoolAggregate) float64 { return s.GoodInfraShare }), nil)
	g.QualifiedShare = gonumstat.Mean(tester.SchoolColumn(schools, func(s tester.SchoolAggregate) float64 { return s.QualifiedShare }), nil)
	g.MeanMath = gonumstat.Mean(tester.SchoolColumn(schools, func(s tester.SchoolAggregate) float64 { return s.MeanMath }), nil)
	return g
}

func sampleStep(n int) int {
	if n <= maxScatterPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / maxScatterPoints))
}

// correlationMatrix correlates the present matrix columns. Undefined entries
// from constant columns are reported as 0.
func correlationMatrix(table *dataset.Table) CorrelationMatrix {
	var labels []string
	for _, col := range correlationColumns {
		if table.Has(col) {
			labels = append(labels, col)
		}
	}

	n := table.Len()
	var values [][]float64
	if n > 1 && len(labels) > 0 {
		data := mat.NewDense(n, len(labels), nil)
		for j, col := range labels {
			for i, v := range table.Column(col) {
				data.Set(i, j, v)
			}
		}

		var sym mat.SymDense
		gonumstat.CorrelationMatrix(&sym, data, nil)
		values = make([][]float64, len(labels))
		for i := range labels {
			values[i] = make([]float64, len(labels))
			for j := range labels {
				v := sym.At(i, j)
				if math.IsNaN(v) {
					v = 0
				}
				values[i][j] = v
			}
		}
	}
	return CorrelationMatrix{Labels: labels, Values: values}
}

// ScoreHistogram bins maths and Portuguese scores over common edges
func ScoreHistogram(f *Figures) Histogram {
	return NewHistogram(map[string][]float64{
		"Maths":      f.MathScores,
		"Portuguese": f.PortugueseScores,
	}, histogramBins)
}

// NewHistogram bins every series over bins equal-width intervals spanning all of them
func NewHistogram(series map[string][]float64, bins int) Histogram {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, data := range series {
		for _, v := range data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return Histogram{Counts: map[string][]float64{}}
	}
	if hi == lo {
		hi = lo + 1
	}
	// The top edge is exclusive in stat.Histogram
	edges := floats.Span(make([]float64, bins+1), lo, math.Nextafter(hi, math.Inf(1)))

	h := Histogram{Edges: edges, Counts: make(map[string][]float64, len(series))}
	for name, data := range series {
		sorted := append([]float64(nil), data...)
		sort.Float64s(sorted)
		h.Counts[name] = gonumstat.Histogram(nil, edges, sorted, nil)
	}
	return h
}

// BinLabels formats the lower edge of each bin
func (h Histogram) BinLabels() []string {
	if len(h.Edges) == 0 {
		return nil
	}
	labels := make([]string, len(h.Edges)-1)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.0f", h.Edges[i])
	}
	return labels
}

// FiveNumber returns min, Q1, median, Q3 and max of data
func FiveNumber(data []float64) []float64 {
	if len(data) == 0 {
		return []float64{0, 0, 0, 0, 0}
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	out := make([]float64, 0, 5)
	for _, q := range []float64{0, 0.25, 0.5, 0.75, 1} {
		v, _ := stats.QuantileSorted(sorted, q)
		out = append(out, v)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
