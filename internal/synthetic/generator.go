package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"saebequity/domain/dataset"
)

// Config controls the synthetic SAEB-like dataset.
//
// Scores follow
//
//	200 - 50*minority + 20*NSE + 5*infra + 3*teacher + 4*capital - 30*classShare + N(0, 30)
//
// clipped to [0, 500], with an independent noise draw per subject.
type Config struct {
	Rows    int
	Seed    int64
	Schools int
}

func DefaultConfig() Config {
	return Config{
		Rows:    10000,
		Seed:    42,
		Schools: 400,
	}
}

// RaceShare is the target proportion of one race/colour category
type RaceShare struct {
	Race  string
	Share float64
}

// RaceShares are allocated by exact quota so the documented proportions hold for any row count
var RaceShares = []RaceShare{
	{dataset.RaceWhite, 0.40},
	{dataset.RaceBlack, 0.10},
	{dataset.RaceBrown, 0.40},
	{dataset.RaceYellow, 0.05},
	{dataset.RaceIndigenous, 0.05},
}

// Score model coefficients
const (
	baseScore        = 200.0
	minorityEffect   = -50.0
	nseEffect        = 20.0
	infraEffect      = 5.0
	teacherEffect    = 3.0
	capitalEffect    = 4.0
	peerEffect       = -30.0
	noiseSD          = 30.0
	minScore         = 0.0
	maxScore         = 500.0
	firstSchoolCode  = 1000
	minClassSize     = 15
	classSizeBuckets = 20
)

// Columns produced by Generate
var Columns = []string{
	dataset.ColSchool, dataset.ColRace, dataset.ColNSE, dataset.ColInfrastructure,
	dataset.ColTeacherQual, dataset.ColCulturalCapital, dataset.ColClassSize,
	dataset.ColClassMinorityShare, dataset.ColMath, dataset.ColPortuguese,
}

// Generate builds a deterministic table for cfg. The minority flag and derived
// indicators are left to the processor.
func Generate(cfg Config) (*dataset.Table, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.Schools <= 0 {
		return nil, fmt.Errorf("schools must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	races := allocateRaces(cfg.Rows)
	rng.Shuffle(len(races), func(i, j int) { races[i], races[j] = races[j], races[i] })

	students := make([]dataset.Student, cfg.Rows)
	for i := range students {
		s := &students[i]
		s.School = strconv.Itoa(firstSchoolCode + rng.Intn(cfg.Schools))
		s.Race = races[i]
		s.NSE = rng.NormFloat64()
		s.Infrastructure = rng.Float64() * 10
		s.TeacherQual = rng.Float64() * 10
		s.CulturalCapital = rng.Float64() * 10
		s.ClassSize = float64(minClassSize + rng.Intn(classSizeBuckets))
		s.ClassMinorityShare = rng.Float64()
	}

	for i := range students {
		s := &students[i]
		expected := expectedScore(s)
		s.Math = clip(expected + rng.NormFloat64()*noiseSD)
		s.Portuguese = clip(expected + rng.NormFloat64()*noiseSD)
	}

	return dataset.NewTable(students, Columns, dataset.SourceSynthetic, ""), nil
}

// allocateRaces returns exactly round(share*n) labels per category, the last absorbing the remainder
func allocateRaces(n int) []string {
	out := make([]string, 0, n)
	for i, rs := range RaceShares {
		count := int(math.Round(rs.Share * float64(n)))
		if i == len(RaceShares)-1 || len(out)+count > n {
			count = n - len(out)
		}
		for j := 0; j < count; j++ {
			out = append(out, rs.Race)
		}
	}
	return out
}

func expectedScore(s *dataset.Student) float64 {
	score := baseScore +
		nseEffect*s.NSE +
		infraEffect*s.Infrastructure +
		teacherEffect*s.TeacherQual +
		capitalEffect*s.CulturalCapital +
		peerEffect*s.ClassMinorityShare
	if dataset.IsMinorityRace(s.Race) {
		score += minorityEffect
	}
	return score
}

func clip(x float64) float64 {
	return math.Max(minScore, math.Min(maxScore, x))
}
