package optimize

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/energy"
)

// SearchResult is the outcome of FindOptimalMu.
type SearchResult struct {
	Result     Result
	Iterations int
	// MuHistory lists every μ evaluated, in order.
	MuHistory []float64
	Converged bool
}

// Iteration describes one bisection step.
type Iteration struct {
	Lambda             float64
	Index              int // 1-based
	Mu                 float64
	SelectedPopulation int64
	// Error is SelectedPopulation − target population.
	Error   float64
	Elapsed time.Duration
}

// EstimateMuMax returns 10·(Σ a_i/ρ²)/Σ p_i, a μ large enough that the
// population reward of (nearly) every node outweighs its area cost.
func EstimateMuMax(attrs *attributes.GraphAttributes) (float64, error) {
	if attrs.TotalPopulation == 0 {
		return 0, ErrZeroPopulation
	}
	return 10 * attrs.ScaledAreaSum() / float64(attrs.TotalPopulation), nil
}

// FindOptimalMu bisects μ for fixed λ until the selected population is
// within Tolerance·P of TargetFraction·P, where P is the total population.
//
// Selected population is non-decreasing in μ, so the interval
// [MuMin, MuMax] shrinks toward the target. Reaching MaxIterations is not an
// error: the last result is returned with Converged = false.
//
// ctx is checked before every solve; a solve already running completes, and
// on cancellation ctx.Err() is returned with an empty SearchResult.
func FindOptimalMu(ctx context.Context, attrs *attributes.GraphAttributes, lambda float64, opts ...Option) (SearchResult, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return SearchResult{}, err
	}
	if _, err := energy.NewParams(lambda, 0); err != nil {
		return SearchResult{}, err
	}

	muMin, muMax := o.MuMin, o.MuMax
	if muMax <= 0 {
		if muMax, err = EstimateMuMax(attrs); err != nil {
			return SearchResult{}, err
		}
	}

	total := float64(attrs.TotalPopulation)
	targetPop := o.TargetFraction * total
	popTolerance := o.Tolerance * total
	log := o.Logger.With(zap.Float64("lambda", lambda))
	log.Debug("binary search for mu",
		zap.Float64("target_fraction", o.TargetFraction),
		zap.Float64("tolerance", o.Tolerance),
		zap.Float64("target_population", targetPop),
		zap.Float64("mu_min", muMin),
		zap.Float64("mu_max", muMax))

	var (
		history = make([]float64, 0, o.MaxIterations)
		last    Result
	)
	for it := 1; it <= o.MaxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return SearchResult{}, err
		}

		mu := (muMin + muMax) / 2
		history = append(history, mu)
		p, err := energy.NewParams(lambda, mu)
		if err != nil {
			return SearchResult{}, err
		}

		start := time.Now()
		last, err = solve(attrs, p, o)
		if err != nil {
			return SearchResult{}, err
		}
		diff := float64(last.SelectedPopulation) - targetPop

		if o.OnIteration != nil {
			o.OnIteration(Iteration{
				Lambda:             lambda,
				Index:              it,
				Mu:                 mu,
				SelectedPopulation: last.SelectedPopulation,
				Error:              diff,
				Elapsed:            time.Since(start),
			})
		}
		if ce := log.Check(zap.DebugLevel, "search iteration"); ce != nil {
			ce.Write(
				zap.Int("iteration", it),
				zap.Float64("mu", mu),
				zap.Int64("selected_population", last.SelectedPopulation),
				zap.Float64("fraction", last.PopulationFraction),
				zap.Float64("error", diff))
		}

		if math.Abs(diff) <= popTolerance {
			log.Debug("search converged", zap.Int("iterations", it), zap.Float64("mu", mu))
			return SearchResult{Result: last, Iterations: it, MuHistory: history, Converged: true}, nil
		}
		if float64(last.SelectedPopulation) < targetPop {
			muMin = mu
		} else {
			muMax = mu
		}
	}

	log.Warn("search did not converge",
		zap.Int("iterations", o.MaxIterations),
		zap.Float64("fraction", last.PopulationFraction))
	return SearchResult{Result: last, Iterations: o.MaxIterations, MuHistory: history, Converged: false}, nil
}
