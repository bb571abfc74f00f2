// Package dataset holds the ordered tract list the partition engine consumes:
// one polygon geometry and one population count per node, indexed 0..N-1
// in input order.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/stevenfazzio/half-america/geometry"
)

// Sentinel errors for dataset construction and loading.
var (
	// ErrEmpty indicates a dataset without tracts.
	ErrEmpty = errors.New("dataset: no tracts")

	// ErrEmptyGeometry indicates a tract whose geometry has no rings.
	ErrEmptyGeometry = errors.New("dataset: tract geometry is empty")

	// ErrNegativePopulation indicates a tract with population < 0.
	ErrNegativePopulation = errors.New("dataset: population must be non-negative")

	// ErrNonPositiveArea indicates a tract whose area is zero or negative.
	ErrNonPositiveArea = errors.New("dataset: area must be positive")

	// ErrUnsupportedGeometry indicates a feature that is neither Polygon nor MultiPolygon.
	ErrUnsupportedGeometry = errors.New("dataset: geometry must be Polygon or MultiPolygon")

	// ErrMissingProperty indicates a feature without a required numeric property.
	ErrMissingProperty = errors.New("dataset: missing numeric property")
)

// Tract is one node of the partition graph.
type Tract struct {
	ID         string
	Population int64
	// Area in square meters. Zero means "compute from Geometry".
	Area     float64
	Geometry orb.MultiPolygon
}

// Dataset is an ordered, validated list of tracts. It is not modified after New.
type Dataset struct {
	Tracts []Tract
}

// New validates tracts and fills in missing areas from geometry.
// The input slice is copied.
func New(tracts []Tract) (*Dataset, error) {
	if len(tracts) == 0 {
		return nil, ErrEmpty
	}
	out := make([]Tract, len(tracts))
	for i, t := range tracts {
		if len(t.Geometry) == 0 || len(t.Geometry[0]) == 0 {
			return nil, fmt.Errorf("tract %d (%s): %w", i, t.ID, ErrEmptyGeometry)
		}
		if t.Population < 0 {
			return nil, fmt.Errorf("tract %d (%s): %w", i, t.ID, ErrNegativePopulation)
		}
		if t.Area == 0 {
			t.Area = geometry.Area(t.Geometry)
		}
		if !(t.Area > 0) || math.IsInf(t.Area, 0) {
			return nil, fmt.Errorf("tract %d (%s): %w", i, t.ID, ErrNonPositiveArea)
		}
		out[i] = t
	}
	return &Dataset{Tracts: out}, nil
}

// Len returns the number of tracts.
func (d *Dataset) Len() int { return len(d.Tracts) }

// Population returns the population of tract i.
func (d *Dataset) Population(i int) int64 { return d.Tracts[i].Population }

// Area returns the area of tract i in square meters.
func (d *Dataset) Area(i int) float64 { return d.Tracts[i].Area }

// SharedBoundary returns the length of the boundary shared by tracts i and j.
func (d *Dataset) SharedBoundary(i, j int) float64 {
	return geometry.SharedBoundaryLength(d.Tracts[i].Geometry, d.Tracts[j].Geometry, geometry.DefaultTolerance)
}

// Geometries returns the tract geometries in index order.
func (d *Dataset) Geometries() []orb.MultiPolygon {
	out := make([]orb.MultiPolygon, len(d.Tracts))
	for i, t := range d.Tracts {
		out[i] = t.Geometry
	}
	return out
}

// LoadOptions names the feature properties read by LoadGeoJSON.
type LoadOptions struct {
	IDProperty         string // optional; feature index is used when absent
	PopulationProperty string // required numeric property
	AreaProperty       string // optional numeric property; computed from geometry when empty
}

// DefaultLoadOptions matches the tract export of the data pipeline.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		IDProperty:         "GEOID",
		PopulationProperty: "population",
		AreaProperty:       "area_sqm",
	}
}

// LoadGeoJSON reads a FeatureCollection whose geometries are already in a
// projected, meter-based CRS.
func LoadGeoJSON(r io.Reader, opts LoadOptions) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode geojson: %w", err)
	}

	tracts := make([]Tract, 0, len(fc.Features))
	for i, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return nil, fmt.Errorf("feature %d: %w", i, ErrUnsupportedGeometry)
		}

		pop, ok := numeric(f.Properties, opts.PopulationProperty)
		if !ok {
			return nil, fmt.Errorf("feature %d: %w %q", i, ErrMissingProperty, opts.PopulationProperty)
		}
		t := Tract{
			ID:         fmt.Sprint(i),
			Population: int64(math.Round(pop)),
			Geometry:   mp,
		}
		if opts.IDProperty != "" {
			if id, ok := f.Properties[opts.IDProperty]; ok {
				t.ID = fmt.Sprint(id)
			}
		}
		if opts.AreaProperty != "" {
			if a, ok := numeric(f.Properties, opts.AreaProperty); ok {
				t.Area = a
			}
		}
		tracts = append(tracts, t)
	}

	return New(tracts)
}

func numeric(props geojson.Properties, key string) (float64, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
