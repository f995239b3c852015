package hsgen

import (
	"fmt"
	"sort"
)

// Profiles are named presets for the adversarial variants this generator
// supports. Each returns a fresh Config; callers may override any field.
var Profiles = map[string]func() Config{
	// Fixed width, 1..k planted elements per subset, filler from the whole
	// universe (so dedup may shorten rows).
	"planted": func() Config {
		return Config{
			N: 100, M: 1000, C: 6, K: 20, Seed: 42,
			Sizes: SizeConfig{Kind: SizeFixed},
			Placement: PlacementConfig{
				Hits: HitsUniform, MaxHidden: 20, Filler: FillerUniverse,
				CoverageFraction: 1,
			},
		}
	},

	// Decoys anchored in many medium/large subsets, mixed with planted
	// elements and boosted on their own, against frequency ranking and
	// small-subset-first heuristics alike. Declares a looser k than planted.
	"decoy": func() Config {
		return Config{
			N: 42, M: 500, C: 12, K: 11, HintK: 15, Seed: 42,
			Sizes: SizeConfig{Kind: SizeUniform, Min: 8, Max: 12},
			Placement: PlacementConfig{
				Hits: HitsOne, Filler: FillerUniverseDistinct, CoverageFraction: 1,
			},
			Shaping: ShapingConfig{
				AnchorMin: 40, AnchorMax: 50,
				MixPerHidden: 4,
				BoostSubsets: 20,
				DecoysMin:    2, DecoysMax: 3,
				AnchorSizes: &SizeConfig{Kind: SizeUniform, Min: 7, Max: 12},
				DecoySizes:  &SizeConfig{Kind: SizeUniform, Min: 9, Max: 12},
			},
			Decoys:       []int{3, 10, 21, 24, 30},
			ShuffleOrder: true,
		}
	},

	// Every element appears (m*c)/n times up to one, so frequency carries no
	// signal; exactly one repair per uncovered row.
	"uniform": func() Config {
		return Config{
			N: 300, M: 1000, C: 4, K: 12, Seed: 42,
			Sizes: SizeConfig{Kind: SizeFixed},
			Placement: PlacementConfig{
				Hits: HitsOne, Filler: FillerNonHidden, CoverageFraction: 1,
			},
			Shaping: ShapingConfig{FlatRows: 1000},
		}
	},

	// Exactly one planted element per subset, three quarters full width.
	"single-hit": func() Config {
		return Config{
			N: 56, M: 15000, C: 7, K: 8, Seed: 42,
			Sizes: SizeConfig{Kind: SizeBernoulli, P: 0.75},
			Placement: PlacementConfig{
				Hits: HitsOne, Filler: FillerNonHidden, CoverageFraction: 1,
			},
		}
	},

	// A handful of two-element subsets up front, then full-width rows with
	// one planted element each.
	"small-anchors": func() Config {
		return Config{
			N: 300, M: 11000, C: 6, K: 10, Seed: 42,
			Sizes: SizeConfig{Kind: SizeFixed},
			Placement: PlacementConfig{
				Hits: HitsOne, Filler: FillerNonHidden, CoverageFraction: 1,
			},
			SmallAnchors: 10,
		}
	},

	// Variable width with up to three planted elements per subset.
	"multi-hit": func() Config {
		return Config{
			N: 500, M: 1200, C: 12, K: 20, Seed: 42,
			Sizes: SizeConfig{Kind: SizeUniform, Min: 4, Max: 12},
			Placement: PlacementConfig{
				Hits: HitsUniform, MaxHidden: 3, Filler: FillerNonHidden,
				CoverageFraction: 1, SortElements: true,
			},
		}
	},

	// One or two planted elements, filler slots are frequent noise elements
	// with probability 0.4.
	"noise": func() Config {
		return Config{
			N: 200, M: 1500, C: 5, K: 20, Seed: 42,
			Sizes: SizeConfig{Kind: SizeFixed},
			Placement: PlacementConfig{
				Hits: HitsUniform, MaxHidden: 2, Filler: FillerDecoy,
				NoiseP: 0.4, CoverageFraction: 1, SortElements: true,
			},
			Decoys: []int{21, 22, 23, 24, 25},
		}
	},

	// Large and small bands at once.
	"bimodal": func() Config {
		return Config{
			N: 200, M: 2000, C: 10, K: 15, Seed: 42,
			Sizes: SizeConfig{Kind: SizeBimodal, P: 0.5, Large: [2]int{8, 10}, Small: [2]int{2, 3}},
			Placement: PlacementConfig{
				Hits: HitsUniform, MaxHidden: 2, Filler: FillerNonHidden,
				CoverageFraction: 1,
			},
		}
	},
}

func ProfileNames() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Profile(name string) (Config, error) {
	p, ok := Profiles[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown profile %q (have %v): %w", name, ProfileNames(), ErrConfiguration)
	}
	return p(), nil
}
