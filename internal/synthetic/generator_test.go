package synthetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saebequity/domain/dataset"
)

func TestGenerate_RowCountAndProportions(t *testing.T) {
	table, err := Generate(DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 10000, table.Len())
	assert.Equal(t, dataset.SourceSynthetic, table.Source)

	counts := make(map[string]int)
	minority := 0
	for _, s := range table.Students {
		counts[s.Race]++
		if dataset.IsMinorityRace(s.Race) {
			minority++
		}
	}

	assert.Equal(t, 4000, counts[dataset.RaceWhite])
	assert.Equal(t, 1000, counts[dataset.RaceBlack])
	assert.Equal(t, 4000, counts[dataset.RaceBrown])
	assert.Equal(t, 500, counts[dataset.RaceYellow])
	assert.Equal(t, 500, counts[dataset.RaceIndigenous])
	assert.Equal(t, 5500, minority)
}

func TestGenerate_AllocationAbsorbsRemainder(t *testing.T) {
	for _, n := range []int{1, 7, 13, 999} {
		races := allocateRaces(n)
		assert.Len(t, races, n, "rows=%d", n)
	}
}

func TestGenerate_Ranges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 2000
	table, err := Generate(cfg)
	require.NoError(t, err)

	schools := make(map[string]bool)
	for _, s := range table.Students {
		schools[s.School] = true
		assert.GreaterOrEqual(t, s.Math, 0.0)
		assert.LessOrEqual(t, s.Math, 500.0)
		assert.GreaterOrEqual(t, s.Portuguese, 0.0)
		assert.LessOrEqual(t, s.Portuguese, 500.0)
		assert.GreaterOrEqual(t, s.ClassSize, 15.0)
		assert.Less(t, s.ClassSize, 35.0)
		assert.GreaterOrEqual(t, s.Infrastructure, 0.0)
		assert.Less(t, s.Infrastructure, 10.0)
		assert.GreaterOrEqual(t, s.ClassMinorityShare, 0.0)
		assert.Less(t, s.ClassMinorityShare, 1.0)
	}
	assert.LessOrEqual(t, len(schools), cfg.Schools)
	assert.Greater(t, len(schools), cfg.Schools/2)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(DefaultConfig())
	require.NoError(t, err)
	b, err := Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Students, b.Students)

	cfg := DefaultConfig()
	cfg.Seed = 7
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Students, c.Students)
}

func TestGenerate_MinorityScoresLower(t *testing.T) {
	table, err := Generate(DefaultConfig())
	require.NoError(t, err)

	var sumMin, sumMaj float64
	var nMin, nMaj int
	for _, s := range table.Students {
		if dataset.IsMinorityRace(s.Race) {
			sumMin += s.Math
			nMin++
		} else {
			sumMaj += s.Math
			nMaj++
		}
	}
	assert.Less(t, sumMin/float64(nMin), sumMaj/float64(nMaj)-30)
}

func TestGenerate_InvalidConfig(t *testing.T) {
	_, err := Generate(Config{Rows: 0, Schools: 10})
	assert.Error(t, err)
	_, err = Generate(Config{Rows: 10, Schools: 0})
	assert.Error(t, err)
}
