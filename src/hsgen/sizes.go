package hsgen

import "fmt"

// SizeDistribution yields the cardinality of each subset to build.
// Every value returned lies in [Min(), Max()] and within [1, n].
type SizeDistribution interface {
	Next(s *Stream) int
	Min() int
	Max() int
}

type fixedSize struct {
	c int
}

func (d fixedSize) Next(*Stream) int { return d.c }
func (d fixedSize) Min() int         { return d.c }
func (d fixedSize) Max() int         { return d.c }

type uniformSize struct {
	lo, hi int
}

func (d uniformSize) Next(s *Stream) int { return s.IntRange(d.lo, d.hi) }
func (d uniformSize) Min() int           { return d.lo }
func (d uniformSize) Max() int           { return d.hi }

// bimodalSize draws from the large band with probability p, else the small one.
type bimodalSize struct {
	p            float64
	large, small uniformSize
}

func (d bimodalSize) Next(s *Stream) int {
	if s.Bernoulli(d.p) {
		return d.large.Next(s)
	}
	return d.small.Next(s)
}

func (d bimodalSize) Min() int { return min(d.large.lo, d.small.lo) }
func (d bimodalSize) Max() int { return max(d.large.hi, d.small.hi) }

// fullOrPartialSize returns c with probability p, else U[1, c-1].
type fullOrPartialSize struct {
	p float64
	c int
}

func (d fullOrPartialSize) Next(s *Stream) int {
	if s.Bernoulli(d.p) {
		return d.c
	}
	return s.IntRange(1, d.c-1)
}

func (d fullOrPartialSize) Min() int { return 1 }
func (d fullOrPartialSize) Max() int { return d.c }

func sizeErrorf(kind, format string, args ...any) error {
	return fmt.Errorf("SizeDistribution(%s): %s: %w", kind, fmt.Sprintf(format, args...), ErrConfiguration)
}

func checkBand(kind string, lo, hi, c int) error {
	if lo < 1 || lo > hi {
		return sizeErrorf(kind, "range [%d,%d] is empty or below 1", lo, hi)
	}
	if hi > c {
		return sizeErrorf(kind, "max=%d exceeds c=%d", hi, c)
	}
	return nil
}

func checkProbability(kind string, p float64) error {
	if p < 0 || p > 1 {
		return sizeErrorf(kind, "p=%g not in [0,1]", p)
	}
	return nil
}

// NewSizeDistribution builds and validates the distribution named by sc.
// c is the declared maximum width and must itself be within [1, n].
func NewSizeDistribution(sc SizeConfig, c, n int) (SizeDistribution, error) {
	if c < 1 || c > n {
		return nil, sizeErrorf(sc.Kind, "c=%d not in [1,%d]", c, n)
	}
	switch sc.Kind {
	case SizeFixed, "":
		return fixedSize{c: c}, nil
	case SizeUniform:
		if err := checkBand(sc.Kind, sc.Min, sc.Max, c); err != nil {
			return nil, err
		}
		return uniformSize{lo: sc.Min, hi: sc.Max}, nil
	case SizeBimodal:
		if err := checkProbability(sc.Kind, sc.P); err != nil {
			return nil, err
		}
		if err := checkBand(sc.Kind, sc.Large[0], sc.Large[1], c); err != nil {
			return nil, err
		}
		if err := checkBand(sc.Kind, sc.Small[0], sc.Small[1], c); err != nil {
			return nil, err
		}
		return bimodalSize{
			p:     sc.P,
			large: uniformSize{lo: sc.Large[0], hi: sc.Large[1]},
			small: uniformSize{lo: sc.Small[0], hi: sc.Small[1]},
		}, nil
	case SizeBernoulli:
		if err := checkProbability(sc.Kind, sc.P); err != nil {
			return nil, err
		}
		if c < 2 {
			return nil, sizeErrorf(sc.Kind, "partial band [1,c-1] is empty for c=%d", c)
		}
		return fullOrPartialSize{p: sc.P, c: c}, nil
	}
	return nil, sizeErrorf(sc.Kind, "unknown kind")
}
