package hsgen

import (
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"
)

// Generator drives a full run: plant, shape, place, repair, verify.
//
// Call order on the Stream, which fixes the output for a given seed:
//
//	plant H (from the universe minus the decoys)
//	small anchors
//	flat target-frequency rows
//	decoy anchors, decoy mixes, decoy boost
//	ordinary subsets until m exist
//	truncate to m
//	coverage repair (shaped prefix only in contrast mode)
//	subset order shuffle (shuffle_order only)
type Generator struct {
	cfg    Config
	stream *Stream
	logger *slog.Logger
}

type Option func(*Generator)

// WithLogger routes generation progress to l. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("hsgen: WithLogger(nil)")
	}
	return func(g *Generator) {
		g.logger = l
	}
}

// WithStream replaces the Stream seeded from Config.Seed. Panics on nil.
func WithStream(s *Stream) Option {
	if s == nil {
		panic("hsgen: WithStream(nil)")
	}
	return func(g *Generator) {
		g.stream = s
	}
}

func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:    cfg.withDefaults(),
		stream: NewStream(cfg.Seed),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Result is a verified instance together with its planted solution.
type Result struct {
	Instance *Instance
	Hidden   *HiddenSolution
	Repaired int
	// Shaped is the number of prefix subsets built by the shaping passes
	// before truncation.
	Shaped int
}

// Generate validates cfg and runs a Generator with the given options.
func Generate(cfg Config, opts ...Option) (*Result, error) {
	g, err := NewGenerator(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}

func (g *Generator) Generate() (*Result, error) {
	cfg := g.cfg
	s := g.stream
	universe := Universe(cfg.N)

	// decoys are never planted
	h, err := Plant(s, without(universe, mapset.NewThreadUnsafeSet(cfg.Decoys...)), cfg.K)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("planted hidden solution", "k", h.Len(), "hint_k", cfg.DeclaredK())

	shaper, err := NewFrequencyShaper(cfg, universe, h)
	if err != nil {
		return nil, err
	}
	subsets, err := g.prefix(s, shaper, universe, h)
	if err != nil {
		return nil, err
	}
	shaped := len(subsets)
	g.logger.Debug("built shaped prefix", "subsets", shaped)

	if len(subsets) < cfg.M {
		subsets, err = g.ordinary(s, subsets, universe, h)
		if err != nil {
			return nil, err
		}
	}
	subsets = subsets[:cfg.M]

	// in contrast mode only the coverage draws of ordinary subsets may miss H
	repairable := subsets
	if cfg.Contrast {
		repairable = subsets[:min(shaped, len(subsets))]
	}
	repaired, err := RepairCoverage(s, repairable, h)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("coverage repair", "patched", repaired)
	if cfg.ShuffleOrder {
		s.shuffleSubsets(subsets)
	}
	if cfg.Placement.SortElements {
		for _, b := range subsets {
			slices.Sort(b)
		}
	}

	inst := &Instance{
		NumElements: cfg.N,
		NumSubsets:  cfg.M,
		Width:       cfg.C,
		HintK:       cfg.DeclaredK(),
		Subsets:     subsets,
		Contrast:    cfg.Contrast,
	}
	if err := checkWidths(inst); err != nil {
		return nil, err
	}
	if !cfg.Contrast && !Verify(h, subsets) {
		return nil, fmt.Errorf("Generate: %d of %d subsets miss the planted solution: %w",
			cfg.M-CoveredCount(h, subsets), cfg.M, ErrInvariantViolation)
	}
	g.logger.Info("generated instance",
		"n", cfg.N, "m", cfg.M, "c", cfg.C, "k", cfg.K, "seed", cfg.Seed,
		"shaped", shaped, "repaired", repaired, "contrast", cfg.Contrast)
	if cfg.Contrast {
		g.logger.Warn("contrast instance does not satisfy the hitting-set property",
			"covered", CoveredCount(h, subsets), "m", cfg.M)
	}

	return &Result{
		Instance: inst,
		Hidden:   h,
		Repaired: repaired,
		Shaped:   shaped,
	}, nil
}

func (g *Generator) prefix(s *Stream, shaper *FrequencyShaper, universe []int, h *HiddenSolution) ([]Subset, error) {
	subsets, err := smallAnchors(s, g.cfg.SmallAnchors, universe, h)
	if err != nil {
		return nil, err
	}
	for _, pass := range []func(*Stream) ([]Subset, error){
		shaper.FlatRows,
		shaper.DecoyAnchors,
		shaper.DecoyMixes,
		shaper.DecoyBoost,
	} {
		batch, err := pass(s)
		if err != nil {
			return nil, err
		}
		subsets = append(subsets, batch...)
	}
	return subsets, nil
}

func (g *Generator) ordinary(s *Stream, subsets []Subset, universe []int, h *HiddenSolution) ([]Subset, error) {
	sizes, err := g.cfg.sizes()
	if err != nil {
		return nil, err
	}
	placement := NewPlacement(g.cfg.Placement, universe, h, g.cfg.Decoys)
	for len(subsets) < g.cfg.M {
		b, err := placement.Build(s, sizes.Next(s))
		if err != nil {
			return nil, fmt.Errorf("Generate: subset %d: %w", len(subsets), err)
		}
		subsets = append(subsets, b)
	}
	return subsets, nil
}

// smallAnchors builds count two-element subsets, each one hidden element
// plus a distinct non-hidden element. They are the cheapest possible picks
// for small-subset-first heuristics.
func smallAnchors(s *Stream, count int, universe []int, h *HiddenSolution) ([]Subset, error) {
	if count == 0 {
		return nil, nil
	}
	partners, err := s.Sample(without(universe, h.set), count)
	if err != nil {
		return nil, fmt.Errorf("smallAnchors: %w", err)
	}
	hList := h.Elements()
	subsets := make([]Subset, 0, count)
	for _, x := range partners {
		e, err := s.Choice(hList)
		if err != nil {
			return nil, fmt.Errorf("smallAnchors: %w", err)
		}
		b := Subset{e, x}
		s.Shuffle(b)
		subsets = append(subsets, b)
	}
	return subsets, nil
}

func checkWidths(inst *Instance) error {
	for i, b := range inst.Subsets {
		if len(b) < 1 || len(b) > inst.Width {
			return fmt.Errorf("Generate: subset %d has %d elements, c=%d: %w", i, len(b), inst.Width, ErrConfiguration)
		}
	}
	return nil
}
