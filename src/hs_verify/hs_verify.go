package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hitting_set_gen/src/hsgen"
)

// loadHidden resolves the hidden solution of the instance at instPath and
// whether it is flagged as a contrast instance. An empty arg means the
// <instPath>.hidden sidecar; an existing file is loaded; anything else is
// parsed as an inline element list, which never carries the flag.
func loadHidden(instPath, arg string) (*hsgen.HiddenSolution, bool, error) {
	if arg == "" {
		return hsgen.LoadHidden(instPath + ".hidden")
	}
	if _, err := os.Stat(arg); err == nil {
		return hsgen.LoadHidden(arg)
	}
	h, err := hsgen.ParseHidden(arg)
	return h, false, err
}

func verify(instPath, hiddenArg string, decoys []int, topN int) (*hsgen.Report, error) {
	inst, err := hsgen.LoadInstance(instPath)
	if err != nil {
		return nil, err
	}
	h, contrast, err := loadHidden(instPath, hiddenArg)
	if err != nil {
		return nil, err
	}
	inst.Contrast = contrast
	for _, e := range h.Elements() {
		if e < 1 || e > inst.NumElements {
			return nil, fmt.Errorf("hidden element %d outside [1,%d]: %w", e, inst.NumElements, hsgen.ErrMalformedInstance)
		}
	}
	if h.Len() != inst.HintK {
		slog.Debug("declared k differs from the hidden solution", "path", instPath, "k", inst.HintK, "hidden", h.Len())
	}
	return hsgen.Analyze(inst, h, decoys, topN), nil
}

func main() {
	var paths []string
	var decoys []int
	var hiddenArg string
	var topN int
	var verbose bool

	flag.Func("inst", "a list of instance file paths, separated by a whitespace", func(s string) error {
		paths = strings.Fields(s)
		return nil
	})
	flag.StringVar(&hiddenArg, "hidden", "", "Hidden solution file or inline list like 3,7,9 (default <inst>.hidden)")
	flag.Func("decoys", "Decoy elements to rank, like 3,10,21", func(s string) error {
		d, err := hsgen.ParseHidden(s)
		if err != nil {
			return err
		}
		decoys = d.Elements()
		return nil
	})
	flag.IntVar(&topN, "top", 10, "Number of most frequent elements in the report")
	flag.BoolVar(&verbose, "v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Must specify at least a path")
		os.Exit(1)
	}

	failed := 0
	for _, p := range paths {
		report, err := verify(p, hiddenArg, decoys, topN)
		if err != nil {
			slog.Error("cannot verify instance, skipping", "path", p, "err", err)
			failed++
			continue
		}
		fmt.Printf("Instance %v:\n%v\n\n", p, report)
		switch {
		case report.Verified:
		case report.Contrast:
			slog.Warn("contrast instance is non-covering as flagged", "path", p, "covered", report.Covered, "m", report.NumSubsets)
		default:
			failed++
		}
	}
	if failed > 0 {
		slog.Error("verification failed", "instances", failed, "of", len(paths))
		os.Exit(1)
	}
}
