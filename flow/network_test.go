package flow_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/flow"
)

func TestNetworkErrors(t *testing.T) {
	net := flow.NewNetwork(2, 0)

	require.True(t, errors.Is(net.AddTerminal(2, 1, 1), flow.ErrNodeIndex))
	require.True(t, errors.Is(net.AddEdge(0, -1, 1, 1), flow.ErrNodeIndex))
	require.True(t, errors.Is(net.AddEdge(1, 1, 1, 1), flow.ErrSelfLoop))

	var ee flow.EdgeError
	err := net.AddTerminal(0, -1, 0)
	require.True(t, errors.As(err, &ee))
	require.Equal(t, flow.Source, ee.From)
	require.Equal(t, 0, ee.To)
	require.Contains(t, err.Error(), "s→0")

	err = net.AddTerminal(1, 0, math.NaN())
	require.True(t, errors.As(err, &ee))
	require.Equal(t, flow.Sink, ee.To)

	err = net.AddEdge(0, 1, 1, math.Inf(1))
	require.True(t, errors.As(err, &ee))
	require.Equal(t, 1, ee.From)
	require.Equal(t, 0, ee.To)

	require.Equal(t, 0, net.NumEdges())
	require.NoError(t, net.AddEdge(0, 1, 1, 2))
	require.Equal(t, 1, net.NumEdges())
	require.Equal(t, 2, net.NumNodes())
}

// randomNetwork builds a network with small integer capacities so that all
// arithmetic is exact.
type randomNetwork struct {
	n         int
	src, sink []float64
	edges     [][4]float64 // i, j, capIJ, capJI
}

func newRandomNetwork(r *rand.Rand, n int, density float64) randomNetwork {
	rn := randomNetwork{n: n, src: make([]float64, n), sink: make([]float64, n)}
	for i := 0; i < n; i++ {
		rn.src[i] = float64(r.Intn(10))
		rn.sink[i] = float64(r.Intn(10))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.Float64() < density {
				rn.edges = append(rn.edges, [4]float64{float64(i), float64(j), float64(r.Intn(8)), float64(r.Intn(8))})
			}
		}
	}
	return rn
}

func (rn randomNetwork) build(t *testing.T) *flow.Network {
	net := flow.NewNetwork(rn.n, len(rn.edges))
	for i := 0; i < rn.n; i++ {
		require.NoError(t, net.AddTerminal(i, rn.src[i], rn.sink[i]))
	}
	for _, e := range rn.edges {
		require.NoError(t, net.AddEdge(int(e[0]), int(e[1]), e[2], e[3]))
	}
	return net
}

// cutCapacity sums the capacity of arcs leaving the source side.
func (rn randomNetwork) cutCapacity(side []bool) float64 {
	var c float64
	for i := 0; i < rn.n; i++ {
		if side[i] {
			c += rn.sink[i]
		} else {
			c += rn.src[i]
		}
	}
	for _, e := range rn.edges {
		i, j := int(e[0]), int(e[1])
		switch {
		case side[i] && !side[j]:
			c += e[2]
		case side[j] && !side[i]:
			c += e[3]
		}
	}
	return c
}

// TestAgainstBruteForce compares both algorithms with exhaustive enumeration
// of every source-side subset on small random networks.
func TestAgainstBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 60; trial++ {
		n := 1 + r.Intn(8)
		rn := newRandomNetwork(r, n, 0.5)

		best := math.Inf(1)
		side := make([]bool, n)
		for mask := 0; mask < 1<<n; mask++ {
			for i := range side {
				side[i] = mask&(1<<i) != 0
			}
			best = math.Min(best, rn.cutCapacity(side))
		}

		net := rn.build(t)
		dinic, err := flow.Dinic(net, flow.DefaultOptions())
		require.NoError(t, err)
		ek, err := flow.EdmondsKarp(net, flow.DefaultOptions())
		require.NoError(t, err)

		require.Equal(t, best, dinic.Value, "trial %d", trial)
		require.Equal(t, best, ek.Value, "trial %d", trial)
		require.Equal(t, best, rn.cutCapacity(dinic.Source), "trial %d: returned side is a minimum cut", trial)
		require.Equal(t, dinic.Source, ek.Source, "trial %d: both find the minimal source side", trial)
	}
}
