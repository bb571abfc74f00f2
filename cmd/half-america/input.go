package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/stevenfazzio/half-america/adjacency"
	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/config"
	"github.com/stevenfazzio/half-america/dataset"
	"github.com/stevenfazzio/half-america/gridgraph"
)

// inputFlags selects the tracts of a run: a GeoJSON file or a synthetic grid.
type inputFlags struct {
	path  string
	grid  string
	force bool
}

func (in *inputFlags) register(f *pflag.FlagSet) {
	f.StringVar(&in.path, "input", "", "GeoJSON FeatureCollection of tracts in a projected, meter-based CRS")
	f.StringVar(&in.grid, "grid", "", "synthetic WxH grid of 1 km cells instead of --input")
	f.String("dataset-id", "", "dataset identifier used in cache file names")
	f.String("cache-dir", "", "directory holding cached graphs and sweeps")
	f.String("contiguity", "queen", "queen or rook adjacency")
	f.BoolVar(&in.force, "force", false, "rebuild instead of reading cached results")
}

func (in *inputFlags) validate() error {
	if (in.path == "") == (in.grid == "") {
		return errors.New("exactly one of --input or --grid is required")
	}
	return nil
}

// datasetID names the grid when no explicit dataset ID was configured.
func (in *inputFlags) datasetID(a *app, cfg config.Config) string {
	if in.grid != "" && !a.v.IsSet("data.dataset_id") {
		return "grid-" + in.grid
	}
	return cfg.Data.DatasetID
}

type graphInput struct {
	attrs           *attributes.GraphAttributes
	components      int
	islandsAttached int
}

// graphSettings identifies the adjacency options a cached graph was built with.
func graphSettings(g config.GraphConfig) string {
	return fmt.Sprintf("%s/%g/%t", g.Contiguity, g.Snap, g.AttachIslands)
}

// load returns the graph of the selected tracts, reading the graph cache when
// it holds a snapshot built with the same settings and --force is not set.
func (in *inputFlags) load(a *app, cfg config.Config, log *zap.Logger) (*graphInput, error) {
	path := attributes.SnapshotPath(cfg.Data.CacheDir, in.datasetID(a, cfg))
	settings := graphSettings(cfg.Graph)
	if !in.force {
		snap, err := attributes.LoadSnapshot(path)
		switch {
		case err == nil && snap.Settings == settings:
			log.Info("using cached graph", zap.String("path", path))
			return &graphInput{
				attrs:           snap.Attrs,
				components:      snap.NumComponents,
				islandsAttached: snap.NumIslandsAttached,
			}, nil
		case err == nil:
			log.Info("cached graph settings differ, rebuilding",
				zap.String("path", path), zap.String("cached", snap.Settings), zap.String("want", settings))
		case !errors.Is(err, fs.ErrNotExist):
			log.Warn("ignoring unreadable graph cache", zap.String("path", path), zap.Error(err))
		}
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	if in.grid != "" {
		ds, err = gridTracts(in.grid)
	} else {
		ds, err = geojsonTracts(in.path, cfg.Data.LoadOptions())
	}
	if err != nil {
		return nil, err
	}
	log.Info("loaded tracts", zap.Int("tracts", ds.Len()))

	opts, err := cfg.Graph.AdjacencyOptions(log)
	if err != nil {
		return nil, err
	}
	adj, err := adjacency.Build(ds.Geometries(), opts...)
	if err != nil {
		return nil, err
	}
	attrs, err := attributes.Build(ds, adj)
	if err != nil {
		return nil, err
	}

	snap := &attributes.Snapshot{
		Attrs:              attrs,
		Settings:           settings,
		NumComponents:      adj.NumComponents,
		NumIslandsAttached: adj.NumIslandsAttached,
	}
	if err := attributes.SaveSnapshot(path, snap); err != nil {
		return nil, err
	}
	log.Info("saved graph", zap.String("path", path))
	return &graphInput{
		attrs:           attrs,
		components:      adj.NumComponents,
		islandsAttached: adj.NumIslandsAttached,
	}, nil
}

func geojsonTracts(path string, lo dataset.LoadOptions) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.LoadGeoJSON(f, lo)
}

// gridTracts builds a W×H grid whose cell (row, col) holds
// 1000·(1+row)·(1+col) people.
func gridTracts(spec string) (*dataset.Dataset, error) {
	w, h, err := parseGrid(spec)
	if err != nil {
		return nil, err
	}
	values := make([][]int64, h)
	for y := range values {
		values[y] = make([]int64, w)
		for x := range values[y] {
			values[y][x] = 1000 * int64(1+y) * int64(1+x)
		}
	}
	gg, err := gridgraph.NewGridGraph(values, gridgraph.DefaultGridOptions())
	if err != nil {
		return nil, err
	}
	return gg.Tracts()
}

func parseGrid(spec string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(spec), "x")
	if ok {
		w, err = strconv.Atoi(ws)
		if err == nil {
			h, err = strconv.Atoi(hs)
		}
	}
	if !ok || err != nil || w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("invalid grid %q, want WxH", spec)
	}
	return w, h, nil
}
