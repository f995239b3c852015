package hsgen

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

const defaultTopN = 10

// Verify reports whether h hits every subset.
func Verify(h *HiddenSolution, subsets []Subset) bool {
	for _, b := range subsets {
		if !h.Hits(b) {
			return false
		}
	}
	return true
}

func CoveredCount(h *HiddenSolution, subsets []Subset) int {
	covered := 0
	for _, b := range subsets {
		if h.Hits(b) {
			covered++
		}
	}
	return covered
}

// FrequencyTable counts, for every element e in [1, n], the subsets holding
// it. Entry e-1 belongs to element e. Elements outside [1, n] are ignored.
func FrequencyTable(n int, subsets []Subset) *mat.VecDense {
	freq := mat.NewVecDense(n, nil)
	for _, b := range subsets {
		for _, e := range b {
			if e >= 1 && e <= n {
				freq.SetVec(e-1, freq.AtVec(e-1)+1)
			}
		}
	}
	return freq
}

type ElementFrequency struct {
	Element  int
	Count    int
	InHidden bool
}

// Report holds the diagnostics of one instance. None of it is persisted.
type Report struct {
	Hidden     []int
	NumSubsets int
	// SizeCounts maps subset cardinality to the number of subsets of it.
	SizeCounts map[int]int
	SizeMean   float64
	SizeStdDev float64

	Frequencies     *mat.VecDense
	FrequencyMean   float64
	FrequencyStdDev float64
	Top             []ElementFrequency
	Decoys          []ElementFrequency

	Verified bool
	Covered  int
	Contrast bool
}

func (r *Report) CoveredFraction() float64 {
	if r.NumSubsets == 0 {
		return 1
	}
	return float64(r.Covered) / float64(r.NumSubsets)
}

// Analyze runs the Verifier on inst against h and collects the diagnostics.
// topN <= 0 selects the default of 10.
func Analyze(inst *Instance, h *HiddenSolution, decoys []int, topN int) *Report {
	if topN <= 0 {
		topN = defaultTopN
	}
	r := &Report{
		Hidden:     h.Elements(),
		NumSubsets: len(inst.Subsets),
		SizeCounts: make(map[int]int),
		Verified:   Verify(h, inst.Subsets),
		Covered:    CoveredCount(h, inst.Subsets),
		Contrast:   inst.Contrast,
	}

	sizes := make([]float64, len(inst.Subsets))
	for i, b := range inst.Subsets {
		r.SizeCounts[len(b)]++
		sizes[i] = float64(len(b))
	}
	if len(sizes) > 0 {
		r.SizeMean, r.SizeStdDev = stat.MeanStdDev(sizes, nil)
	}

	if inst.NumElements > 0 {
		r.Frequencies = FrequencyTable(inst.NumElements, inst.Subsets)
		r.FrequencyMean, r.FrequencyStdDev = stat.MeanStdDev(r.Frequencies.RawVector().Data, nil)
		r.Top = rankElements(r.Frequencies, Universe(inst.NumElements), h, topN)
		r.Decoys = rankElements(r.Frequencies, decoys, h, len(decoys))
	}
	return r
}

// rankElements returns up to limit candidates by descending frequency,
// smaller element first on ties.
func rankElements(freq *mat.VecDense, candidates []int, h *HiddenSolution, limit int) []ElementFrequency {
	n := freq.Len()
	pq := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for _, e := range candidates {
		if e < 1 || e > n {
			continue
		}
		pq.Put(e, -(freq.AtVec(e-1) - float64(e)/float64(n+1)))
	}
	ranked := make([]ElementFrequency, 0, min(limit, pq.Len()))
	for pq.Len() > 0 && len(ranked) < limit {
		item := pq.Get()
		ranked = append(ranked, ElementFrequency{
			Element:  item.Value,
			Count:    int(freq.AtVec(item.Value - 1)),
			InHidden: h.Contains(item.Value),
		})
	}
	return ranked
}

func (r *Report) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Planted hitting set (size %d): [%s]\n", len(r.Hidden), joinInts(r.Hidden, " "))

	fmt.Fprintf(s, "Subset sizes (mean %.2f, stddev %.2f):\n", r.SizeMean, r.SizeStdDev)
	sizes := maps.Keys(r.SizeCounts)
	slices.Sort(sizes)
	for _, size := range sizes {
		fmt.Fprintf(s, "  %d subsets of size %d\n", r.SizeCounts[size], size)
	}

	fmt.Fprintf(s, "Element frequency mean %.2f, stddev %.2f\n", r.FrequencyMean, r.FrequencyStdDev)
	fmt.Fprintf(s, "Top %d most frequent elements:\n", len(r.Top))
	for _, ef := range r.Top {
		mark := "✗"
		if ef.InHidden {
			mark = "✓"
		}
		fmt.Fprintf(s, "  Element %d: appears in %d subsets %s\n", ef.Element, ef.Count, mark)
	}

	if len(r.Decoys) > 0 {
		s.WriteString("Decoy element frequencies:\n")
		for _, ef := range r.Decoys {
			fmt.Fprintf(s, "  Element %d: appears in %d subsets\n", ef.Element, ef.Count)
		}
	}

	switch {
	case r.Verified:
		s.WriteString("VERIFIED: the planted hitting set hits every subset\n")
	case r.Contrast:
		s.WriteString("NON-COVERING (contrast instance): the planted set misses some subsets\n")
	default:
		s.WriteString("FAILED: the planted hitting set misses some subsets\n")
	}
	fmt.Fprintf(s, "Subsets containing a planted element: %d/%d (%.1f%%)",
		r.Covered, r.NumSubsets, 100*r.CoveredFraction())
	return s.String()
}
