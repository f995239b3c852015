package hsgen

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// FrequencyShaper builds the specially-shaped prefix subsets that bias how
// often elements recur across the collection.
type FrequencyShaper struct {
	cfg         ShapingConfig
	width       int
	universe    []int
	hidden      *HiddenSolution
	decoys      []int
	decoySet    mapset.Set[int]
	anchorSizes SizeDistribution
	decoySizes  SizeDistribution
}

func NewFrequencyShaper(cfg Config, universe []int, h *HiddenSolution) (*FrequencyShaper, error) {
	anchorSizes, err := cfg.anchorSizes()
	if err != nil {
		return nil, err
	}
	decoySizes, err := cfg.decoySizes()
	if err != nil {
		return nil, err
	}
	for _, d := range cfg.Decoys {
		if h.Contains(d) {
			return nil, fmt.Errorf("FrequencyShaper: decoy %d is a planted element: %w", d, ErrConfiguration)
		}
	}
	return &FrequencyShaper{
		cfg:         cfg.Shaping,
		width:       cfg.C,
		universe:    universe,
		hidden:      h,
		decoys:      cfg.Decoys,
		decoySet:    mapset.NewThreadUnsafeSet(cfg.Decoys...),
		anchorSizes: anchorSizes,
		decoySizes:  decoySizes,
	}, nil
}

// TargetCounts spreads slots over n elements as evenly as possible: the first
// slots mod n elements get one extra appearance. Index i holds element i+1.
func TargetCounts(n, slots int) []int {
	base, extra := slots/n, slots%n
	counts := make([]int, n)
	for i := range counts {
		counts[i] = base
		if i < extra {
			counts[i]++
		}
	}
	return counts
}

// FlatRows materializes TargetCounts(n, rows*width) as a flat multiset,
// shuffles it and slices it into rows of the configured width. Rows that
// received an element twice are fixed by swapping with other rows, which
// keeps every element's count exact; if no swap sequence is found the rows
// are dealt instead (see dealRows). Coverage is not guaranteed; run
// RepairCoverage afterwards.
func (f *FrequencyShaper) FlatRows(s *Stream) ([]Subset, error) {
	rows := f.cfg.FlatRows
	if rows == 0 {
		return nil, nil
	}
	counts := TargetCounts(len(f.universe), rows*f.width)
	flat := make([]int, 0, rows*f.width)
	for i, cnt := range counts {
		for range cnt {
			flat = append(flat, f.universe[i])
		}
	}
	s.Shuffle(flat)

	subsets := make([]Subset, rows)
	for i := range subsets {
		subsets[i] = Subset(flat[i*f.width : (i+1)*f.width : (i+1)*f.width])
	}
	if err := separateDuplicates(subsets); err != nil {
		return dealRows(s, flat, rows, f.width), nil
	}
	return subsets, nil
}

// dealRows groups the multiset by element, keeping the order of first
// appearance, and deals it round-robin: occurrence p goes to row p mod rows.
// An element occurs at most rows times, so its copies land in distinct rows.
func dealRows(s *Stream, flat []int, rows, width int) []Subset {
	var order []int
	count := make(map[int]int)
	for _, e := range flat {
		if count[e] == 0 {
			order = append(order, e)
		}
		count[e]++
	}
	subsets := make([]Subset, rows)
	for i := range subsets {
		subsets[i] = make(Subset, 0, width)
	}
	p := 0
	for _, e := range order {
		for range count[e] {
			subsets[p%rows] = append(subsets[p%rows], e)
			p++
		}
	}
	for _, b := range subsets {
		s.Shuffle(b)
	}
	return subsets
}

// separateDuplicates swaps every repeated element of a row with an element
// of another row such that neither row ends up with a repeat. Rows are
// scanned in order and partners are searched starting at the next row, so
// the result is a pure function of the input.
func separateDuplicates(rows []Subset) error {
	counts := make([]map[int]int, len(rows))
	for i, row := range rows {
		counts[i] = make(map[int]int, len(row))
		for _, e := range row {
			counts[i][e]++
		}
	}
	for i, row := range rows {
		if len(counts[i]) == len(row) {
			continue
		}
		for j, x := range row {
			if counts[i][x] < 2 {
				continue
			}
			t, q, ok := swapPartner(rows, counts, i, x)
			if !ok {
				return fmt.Errorf("no row can take a second copy of %d: %w", x, ErrConfiguration)
			}
			y := rows[t][q]
			rows[t][q], row[j] = x, y
			move(counts[t], y, x)
			move(counts[i], x, y)
		}
	}
	return nil
}

func move(count map[int]int, from, to int) {
	count[from]--
	if count[from] == 0 {
		delete(count, from)
	}
	count[to]++
}

func swapPartner(rows []Subset, counts []map[int]int, i, x int) (int, int, bool) {
	for step := 1; step < len(rows); step++ {
		t := (i + step) % len(rows)
		if counts[t][x] > 0 {
			continue
		}
		for q, y := range rows[t] {
			if counts[i][y] == 0 {
				return t, q, true
			}
		}
	}
	return 0, 0, false
}

// DecoyAnchors builds, for every decoy in order, anchor_min..anchor_max
// subsets containing it, filled from the rest of the universe.
func (f *FrequencyShaper) DecoyAnchors(s *Stream) ([]Subset, error) {
	if f.cfg.AnchorMax == 0 {
		return nil, nil
	}
	var subsets []Subset
	for _, d := range f.decoys {
		pool := without(f.universe, mapset.NewThreadUnsafeSet(d))
		cnt := s.IntRange(f.cfg.AnchorMin, f.cfg.AnchorMax)
		for range cnt {
			size := f.anchorSizes.Next(s)
			others, err := s.Sample(pool, size-1)
			if err != nil {
				return nil, fmt.Errorf("FrequencyShaper.DecoyAnchors: %w", err)
			}
			b := append(Subset{d}, others...)
			s.Shuffle(b)
			subsets = append(subsets, b)
		}
	}
	return subsets, nil
}

func (f *FrequencyShaper) drawDecoys(s *Stream) ([]int, error) {
	lo := min(f.cfg.DecoysMin, len(f.decoys))
	hi := min(f.cfg.DecoysMax, len(f.decoys))
	return s.Sample(f.decoys, s.IntRange(lo, hi))
}

// DecoyMixes builds mix_per_hidden subsets for every hidden element: the
// element, decoys_min..decoys_max decoys and filler free of decoys. Decoys
// then share subsets with true elements and compete with them under
// frequency ranking.
func (f *FrequencyShaper) DecoyMixes(s *Stream) ([]Subset, error) {
	if f.cfg.MixPerHidden == 0 {
		return nil, nil
	}
	var subsets []Subset
	for _, h := range f.hidden.Elements() {
		for range f.cfg.MixPerHidden {
			size := f.decoySizes.Next(s)
			picked, err := f.drawDecoys(s)
			if err != nil {
				return nil, fmt.Errorf("FrequencyShaper.DecoyMixes: %w", err)
			}
			b := append(Subset{h}, picked...)
			pool := without(f.universe, mapset.NewThreadUnsafeSet(h), f.decoySet)
			others, err := s.Sample(pool, size-len(b))
			if err != nil {
				return nil, fmt.Errorf("FrequencyShaper.DecoyMixes: %w", err)
			}
			b = append(b, others...)
			s.Shuffle(b)
			subsets = append(subsets, b)
		}
	}
	return subsets, nil
}

// DecoyBoost builds boost_subsets subsets of decoys_min..decoys_max decoys
// and filler outside H and the decoys. They carry no hidden element until
// coverage repair runs.
func (f *FrequencyShaper) DecoyBoost(s *Stream) ([]Subset, error) {
	subsets := make([]Subset, 0, f.cfg.BoostSubsets)
	for range f.cfg.BoostSubsets {
		size := f.decoySizes.Next(s)
		picked, err := f.drawDecoys(s)
		if err != nil {
			return nil, fmt.Errorf("FrequencyShaper.DecoyBoost: %w", err)
		}
		pool := without(f.universe, f.hidden.set, f.decoySet)
		others, err := s.Sample(pool, size-len(picked))
		if err != nil {
			return nil, fmt.Errorf("FrequencyShaper.DecoyBoost: %w", err)
		}
		b := append(Subset(picked), others...)
		s.Shuffle(b)
		subsets = append(subsets, b)
	}
	return subsets, nil
}

// RepairCoverage overwrites one uniformly chosen position of every subset
// that misses H with a uniformly chosen element of H, in a single pass. A
// patched subset had no hidden element, so no duplicate is introduced, and
// patching one subset never affects another. Returns the number patched.
func RepairCoverage(s *Stream, subsets []Subset, h *HiddenSolution) (int, error) {
	hList := h.Elements()
	repaired := 0
	for _, b := range subsets {
		if len(b) == 0 || h.Hits(b) {
			continue
		}
		pos := s.IntRange(0, len(b)-1)
		e, err := s.Choice(hList)
		if err != nil {
			return repaired, fmt.Errorf("RepairCoverage: %w", err)
		}
		b[pos] = e
		repaired++
	}
	return repaired, nil
}
