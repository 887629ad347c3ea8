package tester

import (
	"fmt"
	"sort"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/internal/analysis/stats"
)

// SchoolAggregate holds per-school means of the student-level columns
type SchoolAggregate struct {
	Code           string
	Students       int
	MinorityShare  float64
	GoodInfraShare float64
	QualifiedShare float64
	MeanMath       float64
	MeanPortuguese float64
}

// AggregateSchools groups students by school code. The result is sorted by code
// so every downstream computation sees the same order.
func AggregateSchools(table *dataset.Table) []SchoolAggregate {
	index := make(map[string]int)
	var schools []SchoolAggregate

	for _, s := range table.Students {
		i, ok := index[s.School]
		if !ok {
			i = len(schools)
			index[s.School] = i
			schools = append(schools, SchoolAggregate{Code: s.School})
		}
		agg := &schools[i]
		agg.Students++
		agg.MinorityShare += boolValue(s.Minority)
		agg.GoodInfraShare += boolValue(s.GoodInfra)
		agg.QualifiedShare += boolValue(s.QualifiedTeachers)
		agg.MeanMath += s.Math
		agg.MeanPortuguese += s.Portuguese
	}

	for i := range schools {
		n := float64(schools[i].Students)
		schools[i].MinorityShare /= n
		schools[i].GoodInfraShare /= n
		schools[i].QualifiedShare /= n
		schools[i].MeanMath /= n
		schools[i].MeanPortuguese /= n
	}

	sort.Slice(schools, func(a, b int) bool { return schools[a].Code < schools[b].Code })
	return schools
}

// SchoolColumn extracts one aggregate field for every school
func SchoolColumn(schools []SchoolAggregate, field func(SchoolAggregate) float64) []float64 {
	out := make([]float64, len(schools))
	for i, s := range schools {
		out[i] = field(s)
	}
	return out
}

// schoolShares maps school code to minority share
func schoolShares(schools []SchoolAggregate) map[string]float64 {
	out := make(map[string]float64, len(schools))
	for _, s := range schools {
		out[s.Code] = s.MinorityShare
	}
	return out
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SplitByMedianShare puts schools at or above the median minority share in the
// high group and the rest in the low group
func SplitByMedianShare(schools []SchoolAggregate) (high, low []SchoolAggregate, err error) {
	median, err := stats.Median(SchoolColumn(schools, func(s SchoolAggregate) float64 { return s.MinorityShare }))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrInsufficientData, err)
	}
	for _, s := range schools {
		if s.MinorityShare >= median {
			high = append(high, s)
		} else {
			low = append(low, s)
		}
	}
	return high, low, nil
}
