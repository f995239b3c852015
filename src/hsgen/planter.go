package hsgen

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Universe returns {1, ..., n} in ascending order.
func Universe(n int) []int {
	u := make([]int, n)
	for i := range n {
		u[i] = i + 1
	}
	return u
}

// Plant draws H, a uniform k-subset of universe. It is the only source of
// ground truth for a run.
func Plant(s *Stream, universe []int, k int) (*HiddenSolution, error) {
	if k > len(universe) {
		return nil, fmt.Errorf("Plant: k=%d > n=%d: %w", k, len(universe), ErrInsufficientPool)
	}
	elems, err := s.Sample(universe, k)
	if err != nil {
		return nil, fmt.Errorf("Plant: %w", err)
	}
	return NewHiddenSolution(elems), nil
}

// without returns the elements of pool not in any of the excluded sets,
// keeping pool order.
func without(pool []int, excluded ...mapset.Set[int]) []int {
	out := make([]int, 0, len(pool))
outer:
	for _, e := range pool {
		for _, ex := range excluded {
			if ex.Contains(e) {
				continue outer
			}
		}
		out = append(out, e)
	}
	return out
}
