package dataset

import (
	"math"

	"github.com/montanaflynn/stats"

	"saebequity/domain/dataset"
	analysisstats "saebequity/internal/analysis/stats"
)

// Summarize computes the headline figures of a processed table
func Summarize(table *dataset.Table) dataset.Summary {
	summary := dataset.Summary{
		Students: table.Len(),
		Source:   table.Source,
	}
	if table.Len() == 0 {
		return summary
	}

	if table.Has(dataset.ColSchool) {
		schools := make(map[string]struct{})
		for _, s := range table.Students {
			schools[s.School] = struct{}{}
		}
		summary.Schools = len(schools)
	}

	summary.MeanMath, _ = stats.Mean(table.Column(dataset.ColMath))
	summary.MeanPortuguese, _ = stats.Mean(table.Column(dataset.ColPortuguese))
	summary.PctMinority = percent(table, dataset.ColMinority)
	summary.PctHighNSE = percent(table, dataset.ColHighNSE)
	summary.PctGoodInfrastructure = percent(table, dataset.ColGoodInfra)
	summary.PctQualifiedTeachers = percent(table, dataset.ColQualifiedTeachers)
	return summary
}

func percent(table *dataset.Table, column string) float64 {
	mean, err := stats.Mean(table.Column(column))
	if err != nil {
		return 0
	}
	return mean * 100
}

// Describe computes distribution statistics for every present numeric column.
// Blank cells are not counted.
func Describe(table *dataset.Table) []dataset.Descriptive {
	var out []dataset.Descriptive
	for _, col := range dataset.NumericColumns {
		if !table.Has(col) {
			continue
		}
		data := observed(table.Column(col))
		if len(data) == 0 {
			continue
		}

		d := dataset.Descriptive{Column: col, Count: len(data)}
		d.Mean, _ = stats.Mean(data)
		if len(data) > 1 {
			d.StdDev, _ = stats.StandardDeviationSample(data)
		}
		d.Min, _ = stats.Min(data)
		d.Max, _ = stats.Max(data)
		d.Median, _ = analysisstats.Quantile(data, 0.5)
		d.Q1, _ = analysisstats.Quantile(data, 0.25)
		d.Q3, _ = analysisstats.Quantile(data, 0.75)
		out = append(out, d)
	}
	return out
}

func observed(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
