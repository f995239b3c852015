package hsgen

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"
)

// Placement decides the composition of one ordinary subset of a given size:
// how many hidden elements it holds and which filler completes it.
//
// Draw order per Build call:
//
//	coverage Bernoulli (only when coverage_fraction < 1)
//	hit count (uniform policy only)
//	hidden sample
//	filler: per-slot decoy Bernoullis (decoy pool), decoy sample, rest sample
//	element shuffle (unless sorted)
type Placement struct {
	cfg      PlacementConfig
	hidden   *HiddenSolution
	hList    []int
	universe []int
	// Universe \ H
	nonHidden []int
	decoys    []int
	// Universe \ (H ∪ decoys)
	rest []int
}

func NewPlacement(cfg PlacementConfig, universe []int, h *HiddenSolution, decoys []int) *Placement {
	decoySet := mapset.NewThreadUnsafeSet(decoys...)
	return &Placement{
		cfg:       cfg,
		hidden:    h,
		hList:     h.Elements(),
		universe:  universe,
		nonHidden: without(universe, h.set),
		decoys:    slices.Clone(decoys),
		rest:      without(universe, h.set, decoySet),
	}
}

func (p *Placement) hitCount(s *Stream, size int) int {
	switch p.cfg.Hits {
	case HitsUniform:
		return s.IntRange(1, min(p.cfg.MaxHidden, size, len(p.hList)))
	default:
		return 1
	}
}

// Build returns a subset of at most size distinct elements. With the
// universe filler pool, filler may repeat a hidden element and the subset
// shrinks after deduplication; every other pool yields exactly size.
func (p *Placement) Build(s *Stream, size int) (Subset, error) {
	if p.cfg.CoverageFraction < 1 && !s.Bernoulli(p.cfg.CoverageFraction) {
		elems, err := s.Sample(p.nonHidden, size)
		if err != nil {
			return nil, fmt.Errorf("Placement.Build: uncovered subset: %w", err)
		}
		return p.finish(s, elems), nil
	}

	r := p.hitCount(s, size)
	hits, err := s.Sample(p.hList, r)
	if err != nil {
		return nil, fmt.Errorf("Placement.Build: hidden draw: %w", err)
	}
	filler, err := p.filler(s, size-r, hits)
	if err != nil {
		return nil, fmt.Errorf("Placement.Build: filler draw: %w", err)
	}
	return p.finish(s, append(hits, filler...)), nil
}

func (p *Placement) filler(s *Stream, count int, hits []int) ([]int, error) {
	switch p.cfg.Filler {
	case FillerUniverse:
		return s.Sample(p.universe, count)
	case FillerUniverseDistinct:
		return s.Sample(without(p.universe, mapset.NewThreadUnsafeSet(hits...)), count)
	case FillerDecoy:
		return p.decoyFiller(s, count)
	default:
		return s.Sample(p.nonHidden, count)
	}
}

// decoyFiller makes each slot a decoy with probability noise_p. Decoys are
// drawn without replacement; when the decoy or rest pool runs short the
// other one absorbs the difference.
func (p *Placement) decoyFiller(s *Stream, count int) ([]int, error) {
	d := 0
	for range count {
		if s.Bernoulli(p.cfg.NoiseP) {
			d++
		}
	}
	d = min(d, len(p.decoys))
	if count-d > len(p.rest) {
		d = count - len(p.rest)
	}
	picked, err := s.Sample(p.decoys, d)
	if err != nil {
		return nil, err
	}
	others, err := s.Sample(p.rest, count-d)
	if err != nil {
		return nil, err
	}
	return append(picked, others...), nil
}

func (p *Placement) finish(s *Stream, elems []int) Subset {
	b := dedup(elems)
	if !p.cfg.SortElements {
		s.Shuffle(b)
	}
	return b
}

// dedup drops repeated elements, keeping first occurrences in order.
func dedup(elems []int) Subset {
	seen := mapset.NewThreadUnsafeSetWithSize[int](len(elems))
	out := make(Subset, 0, len(elems))
	for _, e := range elems {
		if seen.Add(e) {
			out = append(out, e)
		}
	}
	return out
}
