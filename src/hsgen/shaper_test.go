package hsgen

import (
	"errors"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetCounts(t *testing.T) {
	counts := TargetCounts(300, 4000)
	require.Len(t, counts, 300)
	total := 0
	for i, c := range counts {
		total += c
		if i < 4000%300 {
			assert.Equal(t, 14, c)
		} else {
			assert.Equal(t, 13, c)
		}
	}
	assert.Equal(t, 4000, total)

	assert.Equal(t, []int{1, 1, 0, 0}, TargetCounts(4, 2))
}

func newTestShaper(t *testing.T, cfg Config) (*FrequencyShaper, *HiddenSolution, *Stream) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	s := NewStream(cfg.Seed)
	universe := Universe(cfg.N)
	h, err := Plant(s, without(universe, mapset.NewThreadUnsafeSet(cfg.Decoys...)), cfg.K)
	require.NoError(t, err)
	f, err := NewFrequencyShaper(cfg, universe, h)
	require.NoError(t, err)
	return f, h, s
}

func flatConfig(n, rows, c, k int) Config {
	return Config{
		N: n, M: rows, C: c, K: k, Seed: 17,
		Sizes:     SizeConfig{Kind: SizeFixed},
		Placement: PlacementConfig{Hits: HitsOne, Filler: FillerUniverse, CoverageFraction: 1},
		Shaping:   ShapingConfig{FlatRows: rows},
	}
}

func TestFlatRowsFrequencyFidelity(t *testing.T) {
	tests := []struct {
		name          string
		n, rows, c, k int
	}{
		{"sparse", 300, 1000, 4, 12},
		{"dense", 12, 40, 10, 3},
		{"full width", 5, 30, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, h, s := newTestShaper(t, flatConfig(tt.n, tt.rows, tt.c, tt.k))
			rows, err := f.FlatRows(s)
			require.NoError(t, err)
			require.Len(t, rows, tt.rows)

			target := TargetCounts(tt.n, tt.rows*tt.c)
			freq := FrequencyTable(tt.n, rows)
			for e := 1; e <= tt.n; e++ {
				assert.Equal(t, float64(target[e-1]), freq.AtVec(e-1), "element %d", e)
			}
			for _, b := range rows {
				require.Len(t, b, tt.c)
				requireDistinct(t, b)
			}

			repaired, err := RepairCoverage(s, rows, h)
			require.NoError(t, err)
			assert.True(t, Verify(h, rows))
			assert.LessOrEqual(t, repaired, tt.rows)

			after := FrequencyTable(tt.n, rows)
			moved := 0.0
			for e := 1; e <= tt.n; e++ {
				if d := after.AtVec(e-1) - freq.AtVec(e-1); d > 0 {
					moved += d
				}
			}
			assert.Equal(t, float64(repaired), moved, "each repair moves exactly one slot")
			for _, b := range rows {
				requireDistinct(t, b)
			}
		})
	}
}

func TestSeparateDuplicates(t *testing.T) {
	rows := []Subset{{1, 1, 2}, {3, 4, 5}, {2, 6, 6}}
	require.NoError(t, separateDuplicates(rows))
	counts := make(map[int]int)
	for _, b := range rows {
		requireDistinct(t, b)
		for _, e := range b {
			counts[e]++
		}
	}
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1, 4: 1, 5: 1, 6: 2}, counts)
}

func TestSeparateDuplicatesImpossible(t *testing.T) {
	err := separateDuplicates([]Subset{{1, 1}})
	require.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func decoyConfig() Config {
	return Config{
		N: 42, M: 500, C: 12, K: 11, Seed: 42,
		Sizes:     SizeConfig{Kind: SizeUniform, Min: 8, Max: 12},
		Placement: PlacementConfig{Hits: HitsOne, Filler: FillerUniverse, CoverageFraction: 1},
		Shaping: ShapingConfig{
			AnchorMin: 4, AnchorMax: 6,
			MixPerHidden: 2,
			BoostSubsets: 15,
			DecoysMin:    2, DecoysMax: 3,
			DecoySizes: &SizeConfig{Kind: SizeUniform, Min: 9, Max: 12},
		},
		Decoys: []int{3, 10, 21, 24, 30},
	}
}

func TestDecoyAnchors(t *testing.T) {
	cfg := decoyConfig()
	f, _, s := newTestShaper(t, cfg)
	subsets, err := f.DecoyAnchors(s)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(subsets), 4*len(cfg.Decoys))
	require.LessOrEqual(t, len(subsets), 6*len(cfg.Decoys))
	decoySet := mapset.NewThreadUnsafeSet(cfg.Decoys...)
	for _, b := range subsets {
		requireDistinct(t, b)
		assert.True(t, decoySet.ContainsAny(b...))
		assert.GreaterOrEqual(t, len(b), 8)
		assert.LessOrEqual(t, len(b), 12)
	}
}

func TestDecoyMixes(t *testing.T) {
	cfg := decoyConfig()
	f, h, s := newTestShaper(t, cfg)
	subsets, err := f.DecoyMixes(s)
	require.NoError(t, err)
	require.Len(t, subsets, 2*cfg.K)
	decoySet := mapset.NewThreadUnsafeSet(cfg.Decoys...)
	for _, b := range subsets {
		requireDistinct(t, b)
		assert.True(t, h.Hits(b))
		inter := decoySet.Intersect(mapset.NewThreadUnsafeSet(b...)).Cardinality()
		assert.True(t, inter >= 2 && inter <= 3, "subset %v has %d decoys", b, inter)
	}
}

func TestDecoyBoostCarriesNoHiddenElement(t *testing.T) {
	cfg := decoyConfig()
	f, h, s := newTestShaper(t, cfg)
	subsets, err := f.DecoyBoost(s)
	require.NoError(t, err)
	require.Len(t, subsets, 15)
	decoySet := mapset.NewThreadUnsafeSet(cfg.Decoys...)
	for _, b := range subsets {
		requireDistinct(t, b)
		assert.False(t, h.Hits(b))
		inter := decoySet.Intersect(mapset.NewThreadUnsafeSet(b...)).Cardinality()
		assert.True(t, inter >= 2 && inter <= 3, "subset %v has %d decoys", b, inter)
	}

	repaired, err := RepairCoverage(s, subsets, h)
	require.NoError(t, err)
	assert.Equal(t, 15, repaired)
	assert.True(t, Verify(h, subsets))
}

func TestShaperRejectsPlantedDecoy(t *testing.T) {
	cfg := decoyConfig()
	h := NewHiddenSolution([]int{3, 5, 7, 9, 11, 13, 15, 17, 19, 23, 25})
	_, err := NewFrequencyShaper(cfg, Universe(cfg.N), h)
	require.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func TestRepairCoverageLeavesHitSubsetsAlone(t *testing.T) {
	h := NewHiddenSolution([]int{1, 2})
	subsets := []Subset{{1, 5}, {6, 7}, {2, 8, 9}}
	repaired, err := RepairCoverage(NewStream(1), subsets, h)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, Subset{1, 5}, subsets[0])
	assert.Equal(t, Subset{2, 8, 9}, subsets[2])
	assert.True(t, h.Hits(subsets[1]))
}

func TestDealRowsNeverRepeats(t *testing.T) {
	counts := TargetCounts(5, 30*5)
	var flat []int
	for i, c := range counts {
		for range c {
			flat = append(flat, i+1)
		}
	}
	s := NewStream(3)
	s.Shuffle(flat)
	rows := dealRows(s, flat, 30, 5)
	require.Len(t, rows, 30)
	for _, b := range rows {
		require.Len(t, b, 5)
		requireDistinct(t, b)
	}
}
