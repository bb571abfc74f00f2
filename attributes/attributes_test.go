package attributes_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/adjacency"
	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/gridgraph"
)

// TestBuildGrid3x3 checks ρ and edge lengths on 1 km square cells.
func TestBuildGrid3x3(t *testing.T) {
	gg, err := gridgraph.Uniform(3, 3, 100, gridgraph.DefaultGridOptions())
	require.NoError(t, err)
	ds, err := gg.Tracts()
	require.NoError(t, err)
	adj, err := adjacency.Build(ds.Geometries())
	require.NoError(t, err)

	ga, err := attributes.Build(ds, adj)
	require.NoError(t, err)
	require.Equal(t, 9, ga.N())
	require.Len(t, ga.Edges, 20)
	require.InDelta(t, 1000.0, ga.Rho, 1e-9)
	require.Equal(t, int64(900), ga.TotalPopulation)
	require.InDelta(t, 9e6, ga.TotalArea, 1e-6)
	require.InDelta(t, 9.0, ga.ScaledAreaSum(), 1e-12)

	l, ok := ga.EdgeLength(0, 1)
	require.True(t, ok)
	require.InDelta(t, 1000.0, l, 1e-6, "rook-adjacent cells share a full side")

	back, ok := ga.EdgeLength(1, 0)
	require.True(t, ok)
	require.Equal(t, l, back)

	diag, ok := ga.EdgeLength(0, 4)
	require.True(t, ok)
	require.InDelta(t, 0.0, diag, 1e-6, "diagonal cells touch at a point")

	_, ok = ga.EdgeLength(0, 8)
	require.False(t, ok)
}

func TestComputeRho(t *testing.T) {
	require.Equal(t, 0.0, attributes.ComputeRho(nil))
	require.Equal(t, 3.0, attributes.ComputeRho([]float64{16, 9, 1}))
	require.Equal(t, 2.5, attributes.ComputeRho([]float64{4, 9, 1, 16}), "even count averages middle roots")
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name  string
		pop   []int64
		area  []float64
		edges []attributes.Edge
		want  error
	}{
		{"Empty", nil, nil, nil, attributes.ErrEmpty},
		{"Mismatch", []int64{1, 2}, []float64{1}, nil, attributes.ErrLengthMismatch},
		{"NegativePop", []int64{-1}, []float64{1}, nil, attributes.ErrNegativePopulation},
		{"ZeroArea", []int64{1}, []float64{0}, nil, attributes.ErrNonPositiveArea},
		{"NaNArea", []int64{1}, []float64{math.NaN()}, nil, attributes.ErrNonPositiveArea},
		{"EdgeOrder", []int64{1, 1}, []float64{1, 1}, []attributes.Edge{{I: 1, J: 0}}, attributes.ErrBadEdge},
		{"EdgeRange", []int64{1, 1}, []float64{1, 1}, []attributes.Edge{{I: 0, J: 2}}, attributes.ErrBadEdge},
		{"NegativeLength", []int64{1, 1}, []float64{1, 1}, []attributes.Edge{{I: 0, J: 1, Length: -1}}, attributes.ErrNegativeLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := attributes.New(tc.pop, tc.area, tc.edges)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	_, err := attributes.New([]int64{1}, []float64{1}, nil, attributes.WithRho(-2))
	require.True(t, errors.Is(err, attributes.ErrNonPositiveRho))
}

func TestNewCopiesInput(t *testing.T) {
	pop := []int64{10, 20}
	area := []float64{4, 4}
	ga, err := attributes.New(pop, area, []attributes.Edge{{I: 0, J: 1, Length: 3}}, attributes.WithRho(5))
	require.NoError(t, err)
	pop[0] = 99
	area[0] = 99
	require.Equal(t, int64(10), ga.Population[0])
	require.Equal(t, 4.0, ga.Area[0])
	require.Equal(t, 5.0, ga.Rho)
}

func TestSummary(t *testing.T) {
	ga, err := attributes.New(
		[]int64{100, 200, 300},
		[]float64{1e6, 1e6, 1e6},
		[]attributes.Edge{{I: 0, J: 1, Length: 1000}, {I: 1, J: 2, Length: 500}},
	)
	require.NoError(t, err)

	s := ga.Summary()
	require.Equal(t, 3, s.Nodes)
	require.Equal(t, 2, s.Edges)
	require.Equal(t, int64(600), s.TotalPopulation)
	require.Equal(t, 300.0, s.HalfPopulation)
	require.InDelta(t, 3.0, s.TotalAreaKm2, 1e-12)
	require.Equal(t, 1000.0, s.RhoMeters)
	require.Equal(t, 1.0, s.RhoKm)
	require.Equal(t, 750.0, s.MeanBoundaryLength)
	require.Equal(t, 1000.0, s.MaxBoundaryLength)
	require.InDelta(t, 4.0/3.0, s.MeanNeighbors, 1e-12)
}
