package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/sweep"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseGrid(t *testing.T) {
	w, h, err := parseGrid("4x3")
	require.NoError(t, err)
	require.Equal(t, 4, w)
	require.Equal(t, 3, h)

	w, h, err = parseGrid("10X2")
	require.NoError(t, err)
	require.Equal(t, 10, w)
	require.Equal(t, 2, h)

	for _, bad := range []string{"", "4", "x3", "0x3", "4x-1", "axb"} {
		_, _, err := parseGrid(bad)
		require.Error(t, err, bad)
	}
}

func TestGridTracts(t *testing.T) {
	ds, err := gridTracts("3x2")
	require.NoError(t, err)
	require.Equal(t, 6, ds.Len())
	require.Equal(t, int64(1000), ds.Population(0))
	require.Equal(t, int64(3000), ds.Population(2))
	require.Equal(t, int64(6000), ds.Population(5))
	require.Equal(t, 1e6, ds.Area(4))
}

func TestPrecomputeAndInspect(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "precompute", "--grid", "4x4", "--cache-dir", dir,
		"--lambda-step", "0.5", "--lambda-max", "1", "--skip-failures", "--workers", "2")
	require.NoError(t, err)
	require.Contains(t, out, "LAMBDA")

	path := sweep.CachePath(dir, "grid-4x4", 0.5)
	res, err := sweep.Load(path)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.5}, res.Lambdas)
	for _, lr := range res.Ordered() {
		require.Len(t, lr.Search.Result.Partition, 16)
		require.Equal(t, int64(100000), lr.Search.Result.TotalPopulation)
	}

	// A second run reuses the cache.
	out, err = run(t, "precompute", "--grid", "4x4", "--cache-dir", dir, "--lambda-step", "0.5", "--lambda-max", "1")
	require.NoError(t, err)
	require.Contains(t, out, res.RunID)

	out, err = run(t, "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, res.RunID)
	require.Contains(t, out, "CONVERGED")

	out, err = run(t, "inspect", path, "--lambda", "0")
	require.NoError(t, err)
	require.Contains(t, out, "of 16 nodes")

	_, err = run(t, "inspect", path, "--lambda", "0.3")
	require.Error(t, err)
}

func TestPrecomputeEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HALF_AMERICA_SWEEP_LAMBDA_STEP", "0.5")
	t.Setenv("HALF_AMERICA_DATA_DATASET_ID", "env")
	metrics := filepath.Join(dir, "metrics.prom")

	_, err := run(t, "precompute", "--grid", "2x2", "--cache-dir", dir,
		"--skip-failures", "--metrics-out", metrics)
	require.NoError(t, err)

	_, err = os.Stat(sweep.CachePath(dir, "env", 0.5))
	require.NoError(t, err)

	body, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(body), "half_america_solver_calls_total")
}

func TestPrecomputeConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "half-america.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
data:
  dataset_id: fromfile
sweep:
  lambda_step: 0.5
  policy: best-effort
`), 0o644))

	_, err := run(t, "precompute", "--config", cfgPath, "--grid", "2x2",
		"--cache-dir", dir, "--dataset-id", "fromflag")
	require.NoError(t, err)
	_, err = os.Stat(sweep.CachePath(dir, "fromflag", 0.5))
	require.NoError(t, err)
}

func TestPrecomputeInputValidation(t *testing.T) {
	_, err := run(t, "precompute")
	require.Error(t, err)

	_, err = run(t, "precompute", "--grid", "2x2", "--input", "x.geojson")
	require.Error(t, err)

	_, err = run(t, "precompute", "--grid", "2x2", "--cache-dir", t.TempDir(), "--contiguity", "bishop")
	require.Error(t, err)
}

func TestGraph(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "graph", "--grid", "3x3", "--cache-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "nodes: 9")
	require.Contains(t, out, "edges: 20")
	require.Contains(t, out, "components: 1")

	out, err = run(t, "graph", "--grid", "3x3", "--cache-dir", dir, "--contiguity", "rook")
	require.NoError(t, err)
	require.Contains(t, out, "edges: 12")
}

func TestGraphCache(t *testing.T) {
	dir := t.TempDir()
	path := attributes.SnapshotPath(dir, "grid-3x2")

	first, err := run(t, "graph", "--grid", "3x2", "--cache-dir", dir)
	require.NoError(t, err)
	snap, err := attributes.LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, "queen/0/true", snap.Settings)
	require.Len(t, snap.Attrs.Edges, 11)

	// Replace the cached graph with a marker; a cached read must return it.
	marked := *snap
	marked.NumComponents = 7
	require.NoError(t, attributes.SaveSnapshot(path, &marked))
	out, err := run(t, "graph", "--grid", "3x2", "--cache-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "components: 7")

	out, err = run(t, "graph", "--grid", "3x2", "--cache-dir", dir, "--force")
	require.NoError(t, err)
	require.Equal(t, first, out)
	snap, err = attributes.LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, 1, snap.NumComponents)

	// Different adjacency settings rebuild and overwrite the cache.
	out, err = run(t, "graph", "--grid", "3x2", "--cache-dir", dir, "--contiguity", "rook")
	require.NoError(t, err)
	require.Contains(t, out, "edges: 7")
	snap, err = attributes.LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, "rook/0/true", snap.Settings)
}
