package dataset_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/dataset"
)

const twoTracts = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"GEOID": "001", "population": 1200},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1000,0],[1000,1000],[0,1000],[0,0]]]}},
    {"type": "Feature",
     "properties": {"GEOID": "002", "population": 300, "area_sqm": 2500000},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[1000,0],[2000,0],[2000,1000],[1000,1000],[1000,0]]]]}}
  ]
}`

func TestLoadGeoJSON(t *testing.T) {
	ds, err := dataset.LoadGeoJSON(strings.NewReader(twoTracts), dataset.DefaultLoadOptions())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	require.Equal(t, "001", ds.Tracts[0].ID)
	require.Equal(t, int64(1200), ds.Population(0))
	require.InDelta(t, 1e6, ds.Area(0), 1e-6, "area computed from geometry")

	require.Equal(t, "002", ds.Tracts[1].ID)
	require.Equal(t, 2.5e6, ds.Area(1), "area taken from property")

	require.InDelta(t, 1000.0, ds.SharedBoundary(0, 1), 1e-6)
	require.Len(t, ds.Geometries(), 2)
}

func TestLoadGeoJSONMissingPopulation(t *testing.T) {
	opts := dataset.DefaultLoadOptions()
	opts.PopulationProperty = "pop"
	_, err := dataset.LoadGeoJSON(strings.NewReader(twoTracts), opts)
	require.True(t, errors.Is(err, dataset.ErrMissingProperty))
}

func TestLoadGeoJSONUnsupportedGeometry(t *testing.T) {
	const pt = `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"population":1},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	_, err := dataset.LoadGeoJSON(strings.NewReader(pt), dataset.DefaultLoadOptions())
	require.True(t, errors.Is(err, dataset.ErrUnsupportedGeometry))
}

func TestNewValidation(t *testing.T) {
	sq := orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}}

	_, err := dataset.New(nil)
	require.True(t, errors.Is(err, dataset.ErrEmpty))

	_, err = dataset.New([]dataset.Tract{{ID: "a", Population: -1, Geometry: sq}})
	require.True(t, errors.Is(err, dataset.ErrNegativePopulation))

	_, err = dataset.New([]dataset.Tract{{ID: "a", Population: 1}})
	require.True(t, errors.Is(err, dataset.ErrEmptyGeometry))

	_, err = dataset.New([]dataset.Tract{{ID: "a", Population: 1, Area: -5, Geometry: sq}})
	require.True(t, errors.Is(err, dataset.ErrNonPositiveArea))

	in := []dataset.Tract{{ID: "a", Population: 1, Geometry: sq}}
	ds, err := dataset.New(in)
	require.NoError(t, err)
	in[0].Population = 99
	require.Equal(t, int64(1), ds.Population(0), "input slice is copied")
}
