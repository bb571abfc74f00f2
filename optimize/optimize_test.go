package optimize_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/energy"
	"github.com/stevenfazzio/half-america/flow"
	"github.com/stevenfazzio/half-america/optimize"
)

// bruteForceMin enumerates all 2^N partitions and returns the minimum energy.
func bruteForceMin(t *testing.T, ga *attributes.GraphAttributes, p energy.Params) float64 {
	t.Helper()
	n := ga.N()
	best := math.Inf(1)
	part := make([]bool, n)
	for mask := 0; mask < 1<<n; mask++ {
		for i := range part {
			part[i] = mask&(1<<i) != 0
		}
		e, err := energy.Energy(ga, part, p)
		require.NoError(t, err)
		best = math.Min(best, e)
	}
	return best
}

func params(t *testing.T, lambda, mu float64) energy.Params {
	t.Helper()
	p, err := energy.NewParams(lambda, mu)
	require.NoError(t, err)
	return p
}

// SolveSuite checks the properties every solve must satisfy.
type SolveSuite struct {
	suite.Suite
}

// TestReferenceChain compares the five-node chain with brute force.
func (s *SolveSuite) TestReferenceChain() {
	ga := chain5(s.T())
	p := params(s.T(), 0.5, 0.5)

	res, err := optimize.Solve(ga, p)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), bruteForceMin(s.T(), ga, p), res.Energy, 1e-9)
	require.Equal(s.T(), 0.5, res.Lambda)
	require.Equal(s.T(), 0.5, res.Mu)
}

// TestOptimalityRandom compares random graphs (N ≤ 6) with brute force for
// both solver algorithms.
func (s *SolveSuite) TestOptimalityRandom() {
	r := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		ga := randomGraph(s.T(), r, 2+r.Intn(5), 0.6)
		lambda := math.Floor(r.Float64()*10) / 10
		mu := r.Float64() * 2 * ga.ScaledAreaSum() / math.Max(1, float64(ga.TotalPopulation))
		p := params(s.T(), lambda, mu)
		want := bruteForceMin(s.T(), ga, p)

		for _, alg := range []flow.Algorithm{flow.AlgorithmDinic, flow.AlgorithmEdmondsKarp} {
			res, err := optimize.Solve(ga, p, optimize.WithAlgorithm(alg))
			require.NoError(s.T(), err)
			require.InDelta(s.T(), want, res.Energy, 1e-7, "trial %d %s", trial, alg)
		}
	}
}

// TestExhaustiveness checks that selected and unselected statistics add up.
func (s *SolveSuite) TestExhaustiveness() {
	r := rand.New(rand.NewSource(3))
	ga := randomGraph(s.T(), r, 12, 0.3)
	for _, mu := range []float64{0, 1e-4, 1e-3, 1e-2} {
		res, err := optimize.Solve(ga, params(s.T(), 0.4, mu))
		require.NoError(s.T(), err)
		require.Len(s.T(), res.Partition, ga.N())

		var unselPop int64
		var unselArea float64
		for i, sel := range res.Partition {
			if !sel {
				unselPop += ga.Population[i]
				unselArea += ga.Area[i]
			}
		}
		require.Equal(s.T(), ga.TotalPopulation, res.SelectedPopulation+unselPop)
		require.InDelta(s.T(), ga.TotalArea, res.SelectedArea+unselArea, 1e-6)
		require.Equal(s.T(), ga.TotalPopulation, res.TotalPopulation)
	}
}

// TestNoImprovingFlip flips every node of the optimum and expects no gain.
func (s *SolveSuite) TestNoImprovingFlip() {
	ga := chain10(s.T())
	for _, lambda := range []float64{0, 0.5, 0.9} {
		p := params(s.T(), lambda, 0.0007)
		res, err := optimize.Solve(ga, p)
		require.NoError(s.T(), err)

		part := append([]bool(nil), res.Partition...)
		for i := range part {
			part[i] = !part[i]
			e, err := energy.Energy(ga, part, p)
			require.NoError(s.T(), err)
			require.GreaterOrEqual(s.T(), e, res.Energy-1e-7, "lambda=%g flip %d", lambda, i)
			part[i] = !part[i]
		}
	}
}

// TestMonotonicity checks that raising μ never lowers the selected population.
func (s *SolveSuite) TestMonotonicity() {
	r := rand.New(rand.NewSource(5))
	graphs := []*attributes.GraphAttributes{chain10(s.T()), randomGraph(s.T(), r, 15, 0.25)}
	for g, ga := range graphs {
		muMax, err := optimize.EstimateMuMax(ga)
		require.NoError(s.T(), err)
		for _, lambda := range []float64{0, 0.3, 0.7} {
			prev := int64(-1)
			for k := 0; k <= 40; k++ {
				mu := muMax * float64(k) / 40
				res, err := optimize.Solve(ga, params(s.T(), lambda, mu))
				require.NoError(s.T(), err)
				require.GreaterOrEqual(s.T(), res.SelectedPopulation, prev, "graph %d lambda=%g mu=%g", g, lambda, mu)
				prev = res.SelectedPopulation
			}
		}
	}
}

// TestDeterminism repeats a solve five times.
func (s *SolveSuite) TestDeterminism() {
	r := rand.New(rand.NewSource(9))
	ga := randomGraph(s.T(), r, 20, 0.2)
	p := params(s.T(), 0.6, 0.0005)

	first, err := optimize.Solve(ga, p)
	require.NoError(s.T(), err)
	for i := 0; i < 5; i++ {
		again, err := optimize.Solve(ga, p)
		require.NoError(s.T(), err)
		require.Equal(s.T(), first.Partition, again.Partition)
		require.Equal(s.T(), first.Energy, again.Energy)
		require.Equal(s.T(), first.FlowValue, again.FlowValue)
	}
}

// TestFlowIdentity checks FlowValue = Energy + μ·P.
func (s *SolveSuite) TestFlowIdentity() {
	ga := chain10(s.T())
	p := params(s.T(), 0.25, 0.001)
	res, err := optimize.Solve(ga, p)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), res.FlowValue, res.Energy+0.001*float64(ga.TotalPopulation), 1e-9)
}

// TestZeroMu selects nothing: every node has zero reward and positive cost.
func (s *SolveSuite) TestZeroMu() {
	ga := chain10(s.T())
	res, err := optimize.Solve(ga, params(s.T(), 0.5, 0))
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, res.SelectedCount())
	require.Equal(s.T(), 0.0, res.Energy)
	require.Equal(s.T(), 0.0, res.PopulationFraction)
	require.False(s.T(), res.SatisfiedTarget)
}

// TestWideMagnitudes mixes single-digit and million-scale populations.
func (s *SolveSuite) TestWideMagnitudes() {
	ga := chain(s.T(), []int64{3, 2_500_000, 7, 1_200_000, 1}, 1000)
	for _, lambda := range []float64{0, 0.01, 0.99} {
		for _, mu := range []float64{0, 1e-9, 1e-6, 1} {
			res, err := optimize.Solve(ga, params(s.T(), lambda, mu))
			require.NoError(s.T(), err)
			require.False(s.T(), math.IsNaN(res.Energy) || math.IsInf(res.Energy, 0))
			require.False(s.T(), math.IsNaN(res.FlowValue) || math.IsInf(res.FlowValue, 0))
		}
	}
}

// TestSatisfiedTarget selects the 3-prefix and checks the 50% ± 1% flag
// against a wider tolerance.
func (s *SolveSuite) TestSatisfiedTarget() {
	ga := chain10(s.T())
	p := params(s.T(), 0, 0.0014)

	res, err := optimize.Solve(ga, p)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2700), res.SelectedPopulation)
	require.True(s.T(), res.SatisfiedTarget)

	res, err = optimize.Solve(ga, p, optimize.WithTolerance(0.001))
	require.NoError(s.T(), err)
	require.False(s.T(), res.SatisfiedTarget)
}

func TestSolveSuite(t *testing.T) {
	suite.Run(t, new(SolveSuite))
}

func TestSolveInvalidOptions(t *testing.T) {
	ga := chain5(t)
	p, err := energy.NewParams(0.5, 0.1)
	require.NoError(t, err)

	for _, opt := range []optimize.Option{
		optimize.WithTarget(0),
		optimize.WithTarget(1.5),
		optimize.WithTolerance(-1),
		optimize.WithMaxIterations(0),
		optimize.WithMuBounds(-1, 0),
		optimize.WithMuBounds(2, 1),
	} {
		_, err := optimize.Solve(ga, p, opt)
		require.True(t, errors.Is(err, optimize.ErrInvalidOption), "got %v", err)
	}

	_, err = optimize.Solve(ga, p, optimize.WithAlgorithm("simplex"))
	require.True(t, errors.Is(err, flow.ErrUnknownAlgorithm))
}
