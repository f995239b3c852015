package hsgen

import (
	"bytes"
	"fmt"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

const (
	SizeFixed     = "fixed"
	SizeUniform   = "uniform"
	SizeBimodal   = "bimodal"
	SizeBernoulli = "bernoulli"

	HitsOne     = "one"
	HitsUniform = "uniform"

	FillerUniverse         = "universe"
	FillerUniverseDistinct = "universe-distinct"
	FillerNonHidden        = "non-hidden"
	FillerDecoy            = "decoy"
)

// SizeConfig selects and parameterizes a SizeDistribution.
//
//	fixed:     always C
//	uniform:   U[Min, Max]
//	bimodal:   with probability P U[Large], else U[Small]
//	bernoulli: with probability P C, else U[1, C-1]
type SizeConfig struct {
	Kind  string  `yaml:"kind"`
	Min   int     `yaml:"min,omitempty"`
	Max   int     `yaml:"max,omitempty"`
	P     float64 `yaml:"p,omitempty"`
	Large [2]int  `yaml:"large,omitempty,flow"`
	Small [2]int  `yaml:"small,omitempty,flow"`
}

type PlacementConfig struct {
	Hits      string `yaml:"hits"`
	MaxHidden int    `yaml:"max_hidden,omitempty"`
	Filler    string `yaml:"filler"`
	// NoiseP is the per-slot probability of drawing a decoy in the decoy pool.
	NoiseP float64 `yaml:"noise_p,omitempty"`
	// CoverageFraction is the probability an ordinary subset receives hidden
	// elements at all. Values below 1 require Contrast, and Contrast requires
	// a value below 1. Zero outside contrast mode means unset, that is 1.
	CoverageFraction float64 `yaml:"coverage_fraction"`
	SortElements     bool    `yaml:"sort_elements,omitempty"`
}

type ShapingConfig struct {
	// FlatRows rows of width C are built by target-frequency slicing.
	FlatRows int `yaml:"flat_rows,omitempty"`

	AnchorMin    int `yaml:"anchor_min,omitempty"`
	AnchorMax    int `yaml:"anchor_max,omitempty"`
	MixPerHidden int `yaml:"mix_per_hidden,omitempty"`
	BoostSubsets int `yaml:"boost_subsets,omitempty"`
	DecoysMin    int `yaml:"decoys_min,omitempty"`
	DecoysMax    int `yaml:"decoys_max,omitempty"`
	// AnchorSizes and DecoySizes override Sizes for decoy anchors and for
	// mix/boost subsets respectively.
	AnchorSizes *SizeConfig `yaml:"anchor_sizes,omitempty"`
	DecoySizes  *SizeConfig `yaml:"decoy_sizes,omitempty"`
}

// Config is the full per-run configuration. It is fixed at setup. The zero
// values of Sizes.Kind, Placement.Hits, Placement.Filler and, outside
// contrast mode, Placement.CoverageFraction select fixed width, one hit,
// non-hidden filler and full coverage.
type Config struct {
	N     int    `yaml:"n"`
	M     int    `yaml:"m"`
	C     int    `yaml:"c"`
	K     int    `yaml:"k"`
	HintK int    `yaml:"hint_k,omitempty"`
	Seed  uint64 `yaml:"seed"`

	Sizes     SizeConfig      `yaml:"sizes"`
	Placement PlacementConfig `yaml:"placement"`
	Shaping   ShapingConfig   `yaml:"shaping,omitempty"`

	Decoys       []int `yaml:"decoys,omitempty,flow"`
	SmallAnchors int   `yaml:"small_anchors,omitempty"`
	ShuffleOrder bool  `yaml:"shuffle_order,omitempty"`
	Contrast     bool  `yaml:"contrast,omitempty"`
	TopN         int   `yaml:"top_n,omitempty"`
}

// DeclaredK is the k written to the instance header.
func (cfg Config) DeclaredK() int {
	if cfg.HintK > 0 {
		return cfg.HintK
	}
	return cfg.K
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("Validate: %s: %w", fmt.Sprintf(format, args...), ErrConfiguration)
}

func poolErrorf(format string, args ...any) error {
	return fmt.Errorf("Validate: %s: %w", fmt.Sprintf(format, args...), ErrInsufficientPool)
}

func (cfg Config) withDefaults() Config {
	if cfg.Sizes.Kind == "" {
		cfg.Sizes.Kind = SizeFixed
	}
	if cfg.Placement.Hits == "" {
		cfg.Placement.Hits = HitsOne
	}
	if cfg.Placement.Filler == "" {
		cfg.Placement.Filler = FillerNonHidden
	}
	if cfg.Placement.CoverageFraction == 0 && !cfg.Contrast {
		cfg.Placement.CoverageFraction = 1
	}
	return cfg
}

// Validate performs every setup check on cfg with defaults applied. Size and
// pool checks are done here, never per draw.
func (cfg Config) Validate() error {
	cfg = cfg.withDefaults()
	if cfg.N < 1 {
		return configErrorf("n=%d < 1", cfg.N)
	}
	if cfg.M < 0 {
		return configErrorf("m=%d < 0", cfg.M)
	}
	if cfg.K < 1 {
		return configErrorf("k=%d: a planted solution needs at least one element", cfg.K)
	}
	if cfg.K > cfg.N {
		return poolErrorf("k=%d > n=%d", cfg.K, cfg.N)
	}
	if cfg.C < 1 {
		return configErrorf("c=%d < 1", cfg.C)
	}
	if cfg.C > cfg.N {
		return configErrorf("c=%d > n=%d", cfg.C, cfg.N)
	}
	if cfg.HintK < 0 {
		return configErrorf("hint_k=%d < 0", cfg.HintK)
	}
	if cfg.TopN < 0 {
		return configErrorf("top_n=%d < 0", cfg.TopN)
	}
	if _, err := cfg.sizes(); err != nil {
		return err
	}
	if err := cfg.validatePlacement(); err != nil {
		return err
	}
	if err := cfg.validateDecoys(); err != nil {
		return err
	}
	return cfg.validateShaping()
}

func (cfg Config) validatePlacement() error {
	p := cfg.Placement
	switch p.Hits {
	case HitsOne:
	case HitsUniform:
		if p.MaxHidden < 1 {
			return configErrorf("max_hidden=%d < 1", p.MaxHidden)
		}
	default:
		return configErrorf("unknown hit policy %q", p.Hits)
	}
	if p.CoverageFraction < 0 || p.CoverageFraction > 1 {
		return configErrorf("coverage_fraction=%g not in [0,1]", p.CoverageFraction)
	}
	if p.CoverageFraction < 1 && !cfg.Contrast {
		return configErrorf("coverage_fraction=%g < 1 requires contrast mode", p.CoverageFraction)
	}
	if p.CoverageFraction == 1 && cfg.Contrast {
		return configErrorf("contrast mode requires coverage_fraction < 1")
	}
	if p.NoiseP < 0 || p.NoiseP > 1 {
		return configErrorf("noise_p=%g not in [0,1]", p.NoiseP)
	}

	sizes, _ := cfg.sizes()
	nonHidden := cfg.N - cfg.K
	switch p.Filler {
	case FillerUniverse, FillerUniverseDistinct:
	case FillerNonHidden:
		if sizes.Max()-1 > nonHidden {
			return poolErrorf("filler needs %d slots, non-hidden pool has %d", sizes.Max()-1, nonHidden)
		}
	case FillerDecoy:
		if len(cfg.Decoys) == 0 {
			return configErrorf("decoy filler without decoys")
		}
		if sizes.Max()-1 > nonHidden {
			return poolErrorf("filler needs %d slots, non-hidden pool has %d", sizes.Max()-1, nonHidden)
		}
	default:
		return configErrorf("unknown filler pool %q", p.Filler)
	}
	if p.CoverageFraction < 1 && sizes.Max() > nonHidden {
		return poolErrorf("uncovered subsets need %d slots, non-hidden pool has %d", sizes.Max(), nonHidden)
	}
	return nil
}

func (cfg Config) validateDecoys() error {
	seen := mapset.NewThreadUnsafeSet[int]()
	for _, d := range cfg.Decoys {
		if d < 1 || d > cfg.N {
			return configErrorf("decoy %d outside [1,%d]", d, cfg.N)
		}
		if !seen.Add(d) {
			return configErrorf("duplicate decoy %d", d)
		}
	}
	if len(cfg.Decoys) > cfg.N-cfg.K {
		return poolErrorf("%d decoys cannot be disjoint from %d hidden elements in a universe of %d", len(cfg.Decoys), cfg.K, cfg.N)
	}
	return nil
}

func (cfg Config) validateShaping() error {
	sh := cfg.Shaping
	if sh.FlatRows < 0 || sh.BoostSubsets < 0 || sh.MixPerHidden < 0 || cfg.SmallAnchors < 0 {
		return configErrorf("negative shaping count")
	}
	if sh.AnchorMin < 0 || sh.AnchorMin > sh.AnchorMax {
		return configErrorf("anchor range [%d,%d] is empty", sh.AnchorMin, sh.AnchorMax)
	}
	if cfg.SmallAnchors > 0 {
		if cfg.C < 2 {
			return configErrorf("small anchors have two elements, c=%d", cfg.C)
		}
		if cfg.SmallAnchors > cfg.N-cfg.K {
			return poolErrorf("small_anchors=%d > non-hidden pool %d", cfg.SmallAnchors, cfg.N-cfg.K)
		}
	}
	usesDecoys := sh.AnchorMax > 0 || sh.MixPerHidden > 0 || sh.BoostSubsets > 0
	if !usesDecoys {
		return nil
	}
	if len(cfg.Decoys) == 0 {
		return configErrorf("decoy shaping without decoys")
	}
	if sh.DecoysMin < 1 || sh.DecoysMin > sh.DecoysMax {
		return configErrorf("decoys per subset range [%d,%d] is empty", sh.DecoysMin, sh.DecoysMax)
	}
	if _, err := cfg.anchorSizes(); err != nil {
		return err
	}
	decoySizes, err := cfg.decoySizes()
	if err != nil {
		return err
	}
	perSubset := min(sh.DecoysMax, len(cfg.Decoys))
	if sh.BoostSubsets > 0 && decoySizes.Min() < perSubset {
		return configErrorf("boost subsets of size %d cannot hold %d decoys", decoySizes.Min(), perSubset)
	}
	if sh.MixPerHidden > 0 && decoySizes.Min() < perSubset+1 {
		return configErrorf("mix subsets of size %d cannot hold a hidden element and %d decoys", decoySizes.Min(), perSubset)
	}
	fewest := min(sh.DecoysMin, len(cfg.Decoys))
	plain := cfg.N - cfg.K - len(cfg.Decoys)
	if sh.BoostSubsets > 0 && decoySizes.Max()-fewest > plain {
		return poolErrorf("boost subsets need %d filler slots, pool outside H and decoys has %d", decoySizes.Max()-fewest, plain)
	}
	if sh.MixPerHidden > 0 && decoySizes.Max()-1-fewest > cfg.N-1-len(cfg.Decoys) {
		return poolErrorf("mix subsets need %d filler slots, pool has %d", decoySizes.Max()-1-fewest, cfg.N-1-len(cfg.Decoys))
	}
	return nil
}

func (cfg Config) sizes() (SizeDistribution, error) {
	return NewSizeDistribution(cfg.Sizes, cfg.C, cfg.N)
}

func (cfg Config) anchorSizes() (SizeDistribution, error) {
	if cfg.Shaping.AnchorSizes != nil {
		return NewSizeDistribution(*cfg.Shaping.AnchorSizes, cfg.C, cfg.N)
	}
	return cfg.sizes()
}

func (cfg Config) decoySizes() (SizeDistribution, error) {
	if cfg.Shaping.DecoySizes != nil {
		return NewSizeDistribution(*cfg.Shaping.DecoySizes, cfg.C, cfg.N)
	}
	return cfg.sizes()
}

// DecodeConfig overlays YAML onto base. Unknown keys are rejected.
func DecodeConfig(r io.Reader, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("DecodeConfig: %v: %w", err, ErrConfiguration)
	}
	return cfg, nil
}

func LoadConfig(filename string, base Config) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	return DecodeConfig(bytes.NewReader(data), base)
}
