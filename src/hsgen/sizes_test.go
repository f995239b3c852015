package hsgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeDistributionBounds(t *testing.T) {
	tests := []struct {
		name     string
		sc       SizeConfig
		c        int
		min, max int
	}{
		{"fixed", SizeConfig{Kind: SizeFixed}, 6, 6, 6},
		{"default is fixed", SizeConfig{}, 4, 4, 4},
		{"uniform", SizeConfig{Kind: SizeUniform, Min: 4, Max: 12}, 12, 4, 12},
		{"bimodal", SizeConfig{Kind: SizeBimodal, P: 0.3, Large: [2]int{8, 10}, Small: [2]int{2, 3}}, 10, 2, 10},
		{"bernoulli", SizeConfig{Kind: SizeBernoulli, P: 0.75}, 7, 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewSizeDistribution(tt.sc, tt.c, 50)
			require.NoError(t, err)
			assert.Equal(t, tt.min, d.Min())
			assert.Equal(t, tt.max, d.Max())

			s := NewStream(11)
			seen := make(map[int]bool)
			for range 2000 {
				v := d.Next(s)
				require.GreaterOrEqual(t, v, tt.min)
				require.LessOrEqual(t, v, tt.max)
				seen[v] = true
			}
			assert.True(t, seen[tt.min], "min %d never drawn", tt.min)
			assert.True(t, seen[tt.max], "max %d never drawn", tt.max)
		})
	}
}

func TestBimodalBandsOnly(t *testing.T) {
	d, err := NewSizeDistribution(SizeConfig{Kind: SizeBimodal, P: 0.5, Large: [2]int{8, 10}, Small: [2]int{2, 3}}, 10, 20)
	require.NoError(t, err)
	s := NewStream(5)
	for range 1000 {
		v := d.Next(s)
		inLarge := v >= 8 && v <= 10
		inSmall := v >= 2 && v <= 3
		require.True(t, inLarge || inSmall, "size %d outside both bands", v)
	}
}

func TestBernoulliFullOrPartialMostlyFull(t *testing.T) {
	d, err := NewSizeDistribution(SizeConfig{Kind: SizeBernoulli, P: 0.75}, 7, 56)
	require.NoError(t, err)
	s := NewStream(8)
	full := 0
	const draws = 4000
	for range draws {
		if d.Next(s) == 7 {
			full++
		}
	}
	assert.InDelta(t, 0.75, float64(full)/draws, 0.05)
}

func TestSizeDistributionInvalid(t *testing.T) {
	tests := []struct {
		name string
		sc   SizeConfig
		c, n int
	}{
		{"c above n", SizeConfig{Kind: SizeFixed}, 11, 10},
		{"c zero", SizeConfig{Kind: SizeFixed}, 0, 10},
		{"min above max", SizeConfig{Kind: SizeUniform, Min: 5, Max: 4}, 6, 10},
		{"min zero", SizeConfig{Kind: SizeUniform, Min: 0, Max: 4}, 6, 10},
		{"max above c", SizeConfig{Kind: SizeUniform, Min: 2, Max: 7}, 6, 10},
		{"bimodal p", SizeConfig{Kind: SizeBimodal, P: 1.5, Large: [2]int{3, 4}, Small: [2]int{1, 2}}, 6, 10},
		{"bimodal empty band", SizeConfig{Kind: SizeBimodal, P: 0.5, Large: [2]int{3, 4}}, 6, 10},
		{"bernoulli c=1", SizeConfig{Kind: SizeBernoulli, P: 0.5}, 1, 10},
		{"unknown", SizeConfig{Kind: "zipf"}, 6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSizeDistribution(tt.sc, tt.c, tt.n)
			require.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}
