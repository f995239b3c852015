package hsgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"
)

// Subset is one row of an instance. Stored order is cosmetic.
type Subset []int

// Instance is (n, m, c, k, subsets). HintK is the k written to the header;
// it is a hint to solvers and need not equal the planted |H|.
type Instance struct {
	NumElements int
	NumSubsets  int
	Width       int
	HintK       int
	Subsets     []Subset

	// Contrast marks an instance deliberately generated without the
	// hitting-set guarantee. It is persisted in the hidden-solution sidecar,
	// not in the instance file.
	Contrast bool
}

// HiddenSolution is the planted hitting set H. Immutable once planted.
type HiddenSolution struct {
	elems []int
	set   mapset.Set[int]
}

func NewHiddenSolution(elems []int) *HiddenSolution {
	sorted := slices.Clone(elems)
	slices.Sort(sorted)
	return &HiddenSolution{
		elems: sorted,
		set:   mapset.NewThreadUnsafeSet(sorted...),
	}
}

func (h *HiddenSolution) Len() int { return len(h.elems) }

func (h *HiddenSolution) Contains(e int) bool { return h.set.Contains(e) }

// Elements returns H in ascending order.
func (h *HiddenSolution) Elements() []int { return slices.Clone(h.elems) }

// Hits reports whether b intersects H.
func (h *HiddenSolution) Hits(b Subset) bool {
	for _, e := range b {
		if h.set.Contains(e) {
			return true
		}
	}
	return false
}

func (h *HiddenSolution) String() string {
	return joinInts(h.elems, " ")
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "N. elements: %d\n", inst.NumElements)
	fmt.Fprintf(s, "N. subsets: %d\n", inst.NumSubsets)
	fmt.Fprintf(s, "Width: %d\n", inst.Width)
	fmt.Fprintf(s, "Declared k: %d\n", inst.HintK)
	for i, b := range inst.Subsets {
		fmt.Fprintf(s, "B[%d] = {%s}\n", i, joinInts(b, ", "))
	}
	return s.String()
}

func joinInts(xs []int, sep string) string {
	s := new(strings.Builder)
	for i, x := range xs {
		if i > 0 {
			s.WriteString(sep)
		}
		s.WriteString(strconv.Itoa(x))
	}
	return s.String()
}

func parseInts(line string) ([]int, error) {
	fields := strings.Fields(line)
	out := make([]int, len(fields))
	for i, tok := range fields {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (inst *Instance) parseHeader(scanner *bufio.Scanner) error {
	if !scanner.Scan() {
		return fmt.Errorf("missing header: %w", ErrMalformedInstance)
	}
	header, err := parseInts(scanner.Text())
	if err != nil {
		return fmt.Errorf("Error while parsing header: %v: %w", err, ErrMalformedInstance)
	}
	if len(header) != 4 {
		return fmt.Errorf("header has %d fields, want 4: %w", len(header), ErrMalformedInstance)
	}
	for _, v := range header {
		if v < 0 {
			return fmt.Errorf("negative header value %d: %w", v, ErrMalformedInstance)
		}
	}
	inst.NumElements, inst.NumSubsets, inst.Width, inst.HintK = header[0], header[1], header[2], header[3]
	inst.Subsets = make([]Subset, 0, inst.NumSubsets)
	return nil
}

func (inst *Instance) parseSubsets(scanner *bufio.Scanner) error {
	i := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i == inst.NumSubsets {
			return fmt.Errorf("more than %d subsets: %w", inst.NumSubsets, ErrMalformedInstance)
		}
		b, err := parseInts(line)
		if err != nil {
			return fmt.Errorf("Error while parsing subset %d: %v: %w", i, err, ErrMalformedInstance)
		}
		if len(b) > inst.Width {
			return fmt.Errorf("subset %d has %d elements, width is %d: %w", i, len(b), inst.Width, ErrMalformedInstance)
		}
		seen := mapset.NewThreadUnsafeSetWithSize[int](len(b))
		for _, e := range b {
			if e < 1 || e > inst.NumElements {
				return fmt.Errorf("subset %d: element %d outside [1,%d]: %w", i, e, inst.NumElements, ErrMalformedInstance)
			}
			if !seen.Add(e) {
				return fmt.Errorf("subset %d: duplicate element %d: %w", i, e, ErrMalformedInstance)
			}
		}
		inst.Subsets = append(inst.Subsets, b)
		i++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if i != inst.NumSubsets {
		return fmt.Errorf("found %d subsets, header declares %d: %w", i, inst.NumSubsets, ErrMalformedInstance)
	}
	return nil
}

// ReadInstance parses the line-oriented instance format.
func ReadInstance(r io.Reader) (*Instance, error) {
	inst := new(Instance)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if err := inst.parseHeader(scanner); err != nil {
		return nil, err
	}
	if err := inst.parseSubsets(scanner); err != nil {
		return nil, err
	}
	return inst, nil
}

func LoadInstance(filename string) (*Instance, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadInstance(file)
}

// contrastMarker is the sidecar comment line flagging a contrast instance.
const contrastMarker = "# contrast"

// ReadHidden parses a hidden-solution sidecar: one line of space-separated
// elements, optionally followed by comment lines starting with '#'. It
// reports whether the sidecar carries the contrast marker.
func ReadHidden(r io.Reader) (*HiddenSolution, bool, error) {
	var elems []string
	contrast := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			if line == contrastMarker {
				contrast = true
			}
			continue
		}
		elems = append(elems, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	h, err := ParseHidden(strings.Join(elems, " "))
	if err != nil {
		return nil, false, err
	}
	return h, contrast, nil
}

// ParseHidden accepts elements separated by spaces, commas or newlines.
func ParseHidden(text string) (*HiddenSolution, error) {
	elems, err := parseInts(strings.ReplaceAll(text, ",", " "))
	if err != nil {
		return nil, fmt.Errorf("Error while parsing hidden solution: %v: %w", err, ErrMalformedInstance)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("empty hidden solution: %w", ErrMalformedInstance)
	}
	if mapset.NewThreadUnsafeSet(elems...).Cardinality() != len(elems) {
		return nil, fmt.Errorf("hidden solution has duplicates: %w", ErrMalformedInstance)
	}
	return NewHiddenSolution(elems), nil
}

func LoadHidden(filename string) (*HiddenSolution, bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()
	return ReadHidden(file)
}
