package optimize_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/attributes"
)

// chain builds a path graph of unit (1 km²) nodes so that ρ = 1000.
func chain(t *testing.T, pop []int64, length float64) *attributes.GraphAttributes {
	t.Helper()
	area := make([]float64, len(pop))
	edges := make([]attributes.Edge, 0, len(pop))
	for i := range pop {
		area[i] = 1e6
		if i > 0 {
			edges = append(edges, attributes.Edge{I: i - 1, J: i, Length: length})
		}
	}
	ga, err := attributes.New(pop, area, edges)
	require.NoError(t, err)
	return ga
}

// chain10 has populations 1000, 900, …, 100 (total 5500) and 100 m edges.
// Optimal selections are prefixes; only the 3-prefix (2700) lies within 1%
// of half the population.
func chain10(t *testing.T) *attributes.GraphAttributes {
	pop := make([]int64, 10)
	for i := range pop {
		pop[i] = int64(1000 - 100*i)
	}
	return chain(t, pop, 100)
}

// chain5 is the five-node reference graph with 1 km boundaries.
func chain5(t *testing.T) *attributes.GraphAttributes {
	return chain(t, []int64{80, 120, 150, 200, 250}, 1000)
}

// randomGraph builds a small graph with varied populations, areas and
// boundary lengths; every pair is connected with probability density.
func randomGraph(t *testing.T, r *rand.Rand, n int, density float64) *attributes.GraphAttributes {
	t.Helper()
	pop := make([]int64, n)
	area := make([]float64, n)
	for i := 0; i < n; i++ {
		pop[i] = int64(r.Intn(5000))
		area[i] = 1e5 + r.Float64()*5e6
	}
	var edges []attributes.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.Float64() < density {
				edges = append(edges, attributes.Edge{I: i, J: j, Length: r.Float64() * 3000})
			}
		}
	}
	ga, err := attributes.New(pop, area, edges)
	require.NoError(t, err)
	return ga
}
