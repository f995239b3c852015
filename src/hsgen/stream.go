package hsgen

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

const streamSeedSalt = 0x9e3779b97f4a7c15

// Stream is the single random source of a generation run. It is threaded
// explicitly through every sampling call; the sequence of calls made on it is
// part of the reproducibility contract.
type Stream struct {
	src rand.Source
	rng *rand.Rand
}

func NewStream(seed uint64) *Stream {
	src := rand.NewPCG(seed, seed^streamSeedSalt)
	return &Stream{
		src: src,
		rng: rand.New(src),
	}
}

// Sample returns count distinct elements of pool chosen uniformly without
// replacement. A zero count consumes no entropy.
func (s *Stream) Sample(pool []int, count int) ([]int, error) {
	if count < 0 || count > len(pool) {
		return nil, fmt.Errorf("Sample: count=%d, pool=%d: %w", count, len(pool), ErrInsufficientPool)
	}
	if count == 0 {
		return []int{}, nil
	}
	idxs := make([]int, count)
	sampleuv.WithoutReplacement(idxs, len(pool), s.src)
	out := make([]int, count)
	for i, idx := range idxs {
		out[i] = pool[idx]
	}
	return out, nil
}

func (s *Stream) Choice(pool []int) (int, error) {
	if len(pool) == 0 {
		return 0, fmt.Errorf("Choice: empty pool: %w", ErrInsufficientPool)
	}
	return pool[s.rng.IntN(len(pool))], nil
}

// IntRange returns a uniform integer in [lo, hi]. Callers validate lo <= hi.
func (s *Stream) IntRange(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// Bernoulli reports true with probability p. It always consumes one draw,
// including for p in {0, 1}.
func (s *Stream) Bernoulli(p float64) bool {
	return distuv.Bernoulli{P: p, Src: s.src}.Rand() == 1
}

func (s *Stream) Shuffle(xs []int) {
	s.rng.Shuffle(len(xs), func(i, j int) {
		xs[i], xs[j] = xs[j], xs[i]
	})
}

func (s *Stream) shuffleSubsets(subsets []Subset) {
	s.rng.Shuffle(len(subsets), func(i, j int) {
		subsets[i], subsets[j] = subsets[j], subsets[i]
	})
}
