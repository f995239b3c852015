package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"hitting_set_gen/src/hsgen"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// overrides holds the values of the flags that patch individual Config
// fields. Only flags actually present on the command line are applied.
type overrides struct {
	n, m, c, k, hintK int
	seed              uint64
	contrast          bool
	topN              int
}

func (o overrides) apply(cfg *hsgen.Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			cfg.N = o.n
		case "m":
			cfg.M = o.m
		case "c":
			cfg.C = o.c
		case "k":
			cfg.K = o.k
		case "hintk":
			cfg.HintK = o.hintK
		case "seed":
			cfg.Seed = o.seed
		case "contrast":
			cfg.Contrast = o.contrast
		case "top":
			cfg.TopN = o.topN
		}
	})
}

// batchPath numbers path for the i-th instance of a batch: out.txt becomes
// out_3.txt. A batch of one keeps path unchanged.
func batchPath(path string, i, batch int) string {
	if batch == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i, ext)
}

// generateBatch runs batch independent generations with seeds cfg.Seed,
// cfg.Seed+1, ... Each one owns its Generator and Stream, so results do not
// depend on scheduling. Either every instance succeeds or none is returned.
func generateBatch(cfg hsgen.Config, batch int, logger *slog.Logger) ([]*hsgen.Result, error) {
	results := make([]*hsgen.Result, batch)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range batch {
		c := cfg
		c.Seed = cfg.Seed + uint64(i)
		g.Go(func() error {
			res, err := hsgen.Generate(c, hsgen.WithLogger(logger.With("instance", i)))
			if err != nil {
				return fmt.Errorf("instance %d (seed %d): %w", i, c.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeBatch stages every instance and sidecar of the batch and renames
// them into place only once all of them are written. It returns the
// instance paths.
func writeBatch(results []*hsgen.Result, outPath, hiddenPath string, noHidden bool) ([]string, error) {
	var staged []*hsgen.Staged
	discard := func() {
		for _, st := range staged {
			st.Discard()
		}
	}
	paths := make([]string, len(results))
	for i, res := range results {
		paths[i] = batchPath(outPath, i, len(results))
		st, err := hsgen.StageInstance(paths[i], res.Instance)
		if err != nil {
			discard()
			return nil, err
		}
		staged = append(staged, st)
		if noHidden {
			continue
		}
		hidden := paths[i] + ".hidden"
		if hiddenPath != "" {
			hidden = batchPath(hiddenPath, i, len(results))
		}
		st, err = hsgen.StageHidden(hidden, res.Hidden, res.Instance.Contrast)
		if err != nil {
			discard()
			return nil, err
		}
		staged = append(staged, st)
	}
	for _, st := range staged {
		if err := st.Commit(); err != nil {
			discard()
			return nil, err
		}
	}
	return paths, nil
}

func loadConfig(profile, configPath string, o overrides, fs *flag.FlagSet) (hsgen.Config, error) {
	cfg, err := hsgen.Profile(profile)
	if err != nil {
		return cfg, err
	}
	if configPath != "" {
		cfg, err = hsgen.LoadConfig(configPath, cfg)
		if err != nil {
			return cfg, err
		}
	}
	o.apply(&cfg, fs)
	return cfg, nil
}

func main() {
	var profile, configPath, outPath, hiddenPath string
	var batch int
	var noHidden, verbose, quiet, printConfig, list bool
	var o overrides

	flag.StringVar(&profile, "profile", "planted", "Named preset to start from (see -list)")
	flag.StringVar(&configPath, "config", "", "YAML file overlaid on the profile")
	flag.StringVar(&outPath, "out", "instance.txt", "The output file")
	flag.StringVar(&hiddenPath, "hidden-out", "", "The hidden solution file (default <out>.hidden)")
	flag.BoolVar(&noHidden, "no-hidden", false, "Do not write the hidden solution")
	flag.IntVar(&o.n, "n", 0, "The number of elements")
	flag.IntVar(&o.m, "m", 0, "The number of subsets")
	flag.IntVar(&o.c, "c", 0, "The maximum subset size")
	flag.IntVar(&o.k, "k", 0, "The size of the planted hitting set")
	flag.IntVar(&o.hintK, "hintk", 0, "The k written to the header, if different from the planted size")
	flag.Uint64Var(&o.seed, "seed", 0, "The random seed")
	flag.BoolVar(&o.contrast, "contrast", false, "Generate a flagged non-covering instance (requires coverage_fraction < 1)")
	flag.IntVar(&o.topN, "top", 0, "Number of most frequent elements in the report")
	flag.IntVar(&batch, "batch", 1, "Generate this many instances with consecutive seeds")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
	flag.BoolVar(&quiet, "q", false, "Do not print the report")
	flag.BoolVar(&printConfig, "print-config", false, "Print the merged configuration as YAML and exit")
	flag.BoolVar(&list, "list", false, "List the available profiles and exit")

	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if list {
		for _, name := range hsgen.ProfileNames() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := loadConfig(profile, configPath, o, flag.CommandLine)
	if err != nil {
		logger.Error("cannot build configuration", "err", err)
		os.Exit(1)
	}
	if printConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			logger.Error("cannot encode configuration", "err", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}
	if batch < 1 {
		fmt.Fprintln(os.Stderr, "Must generate at least one instance")
		os.Exit(1)
	}

	results, err := generateBatch(cfg, batch, logger)
	if err != nil {
		logger.Error("generation failed", "err", err)
		os.Exit(1)
	}

	paths, err := writeBatch(results, outPath, hiddenPath, noHidden)
	if err != nil {
		logger.Error("cannot write instances", "err", err)
		os.Exit(1)
	}
	for i, res := range results {
		logger.Info("wrote instance", "path", paths[i], "seed", cfg.Seed+uint64(i))
		if !quiet {
			fmt.Printf("Instance %v:\n%v\n\n", paths[i], hsgen.Analyze(res.Instance, res.Hidden, cfg.Decoys, cfg.TopN))
		}
	}
}
