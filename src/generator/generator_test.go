package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"hitting_set_gen/src/hsgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchPath(t *testing.T) {
	assert.Equal(t, "out.txt", batchPath("out.txt", 0, 1))
	assert.Equal(t, "out_0.txt", batchPath("out.txt", 0, 3))
	assert.Equal(t, "dir/inst_2", batchPath("dir/inst", 2, 3))
}

func TestOverridesOnlyApplyWhenSet(t *testing.T) {
	fs := flag.NewFlagSet("generator", flag.ContinueOnError)
	var o overrides
	fs.IntVar(&o.n, "n", 0, "")
	fs.IntVar(&o.m, "m", 0, "")
	fs.IntVar(&o.k, "k", 0, "")
	fs.Uint64Var(&o.seed, "seed", 0, "")
	require.NoError(t, fs.Parse([]string{"-m", "25", "-seed", "9"}))

	cfg, err := hsgen.Profile("planted")
	require.NoError(t, err)
	o.apply(&cfg, fs)
	assert.Equal(t, 25, cfg.M)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, 100, cfg.N, "unset flags keep the profile value")
	assert.Equal(t, 20, cfg.K)
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("m: 40\nk: 5\n"), 0o644))

	fs := flag.NewFlagSet("generator", flag.ContinueOnError)
	var o overrides
	fs.IntVar(&o.k, "k", 0, "")
	require.NoError(t, fs.Parse([]string{"-k", "7"}))

	cfg, err := loadConfig("multi-hit", path, o, fs)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.N)
	assert.Equal(t, 40, cfg.M)
	assert.Equal(t, 7, cfg.K, "flags win over the config file")

	_, err = loadConfig("missing", "", o, fs)
	require.ErrorIs(t, err, hsgen.ErrConfiguration)
}

func TestGenerateBatchUsesConsecutiveSeeds(t *testing.T) {
	cfg, err := hsgen.Profile("planted")
	require.NoError(t, err)
	cfg.M = 30
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	results, err := generateBatch(cfg, 3, logger)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		c := cfg
		c.Seed = cfg.Seed + uint64(i)
		want, err := hsgen.Generate(c)
		require.NoError(t, err)
		assert.Equal(t, want.Instance.Subsets, res.Instance.Subsets)
		assert.Equal(t, want.Hidden.Elements(), res.Hidden.Elements())
	}

	cfg.K = 0
	_, err = generateBatch(cfg, 3, logger)
	require.ErrorIs(t, err, hsgen.ErrConfiguration)
}

func TestWriteBatch(t *testing.T) {
	cfg, err := hsgen.Profile("planted")
	require.NoError(t, err)
	cfg.M = 30
	results, err := generateBatch(cfg, 3, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	results[2].Instance.Contrast = true

	dir := t.TempDir()
	paths, err := writeBatch(results, filepath.Join(dir, "inst.txt"), "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "inst_0.txt"),
		filepath.Join(dir, "inst_1.txt"),
		filepath.Join(dir, "inst_2.txt"),
	}, paths)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6, "three instances and three sidecars, no temp files")

	for i, p := range paths {
		inst, err := hsgen.LoadInstance(p)
		require.NoError(t, err)
		assert.Equal(t, results[i].Instance.Subsets, inst.Subsets)
		h, contrast, err := hsgen.LoadHidden(p + ".hidden")
		require.NoError(t, err)
		assert.Equal(t, results[i].Hidden.Elements(), h.Elements())
		assert.Equal(t, i == 2, contrast)
	}
}

func TestWriteBatchLeavesNothingOnFailure(t *testing.T) {
	cfg, err := hsgen.Profile("planted")
	require.NoError(t, err)
	cfg.M = 30
	results, err := generateBatch(cfg, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = writeBatch(results, filepath.Join(dir, "inst.txt"), filepath.Join(dir, "missing", "h.txt"), false)
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged instances are discarded when a sidecar cannot be written")
}
