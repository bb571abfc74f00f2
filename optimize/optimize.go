// Package optimize solves the partition energy for one (λ, μ) pair and
// calibrates μ by bisection so that the selected side holds a target share
// of the total population.
package optimize

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/energy"
	"github.com/stevenfazzio/half-america/flow"
)

// Defaults for search and target checks.
const (
	DefaultTargetFraction = 0.5
	DefaultTolerance      = 0.01
	DefaultMaxIterations  = 50
)

var (
	// ErrZeroPopulation is returned when μ_max must be estimated for a graph
	// without population.
	ErrZeroPopulation = errors.New("optimize: total population is zero")

	// ErrInvalidOption reports an out-of-range search option.
	ErrInvalidOption = errors.New("optimize: invalid option")
)

// Result is the outcome of one minimum-cut solve.
type Result struct {
	// Partition[i] is true when node i is selected.
	Partition          []bool
	SelectedPopulation int64
	SelectedArea       float64
	TotalPopulation    int64
	TotalArea          float64
	PopulationFraction float64
	Energy             float64
	FlowValue          float64
	Lambda             float64
	Mu                 float64
	// SatisfiedTarget reports |PopulationFraction − target| ≤ tolerance.
	SatisfiedTarget bool
}

// SelectedCount returns the number of selected nodes.
func (r Result) SelectedCount() int {
	n := 0
	for _, sel := range r.Partition {
		if sel {
			n++
		}
	}
	return n
}

// Options configures Solve and FindOptimalMu.
type Options struct {
	TargetFraction float64
	Tolerance      float64
	MaxIterations  int
	MuMin          float64
	// MuMax ≤ 0 selects EstimateMuMax.
	MuMax     float64
	Algorithm flow.Algorithm
	Epsilon   float64
	Logger    *zap.Logger
	// OnIteration, when set, is called after every bisection step.
	OnIteration func(Iteration)
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns target 0.5, tolerance 0.01, 50 iterations,
// μ ∈ [0, auto] and Dinic.
func DefaultOptions() Options {
	return Options{
		TargetFraction: DefaultTargetFraction,
		Tolerance:      DefaultTolerance,
		MaxIterations:  DefaultMaxIterations,
		Algorithm:      flow.AlgorithmDinic,
		Epsilon:        1e-9,
		Logger:         zap.NewNop(),
	}
}

// WithTarget sets the target population fraction.
func WithTarget(f float64) Option { return func(o *Options) { o.TargetFraction = f } }

// WithTolerance sets the accepted deviation from the target fraction.
func WithTolerance(t float64) Option { return func(o *Options) { o.Tolerance = t } }

// WithMaxIterations caps bisection steps.
func WithMaxIterations(n int) Option { return func(o *Options) { o.MaxIterations = n } }

// WithMuBounds sets the initial bisection interval; max ≤ 0 means auto.
func WithMuBounds(lo, hi float64) Option {
	return func(o *Options) { o.MuMin, o.MuMax = lo, hi }
}

// WithAlgorithm selects the max-flow implementation.
func WithAlgorithm(a flow.Algorithm) Option { return func(o *Options) { o.Algorithm = a } }

// WithEpsilon sets the residual capacity threshold of the solver.
func WithEpsilon(eps float64) Option { return func(o *Options) { o.Epsilon = eps } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithIterationHook registers an observer for bisection steps.
func WithIterationHook(fn func(Iteration)) Option { return func(o *Options) { o.OnIteration = fn } }

// NewOptions applies opts to DefaultOptions and validates the result.
func NewOptions(opts ...Option) (Options, error) { return buildOptions(opts) }

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	switch {
	case !(o.TargetFraction > 0 && o.TargetFraction <= 1):
		return o, fmt.Errorf("%w: target fraction %g not in (0, 1]", ErrInvalidOption, o.TargetFraction)
	case !(o.Tolerance >= 0):
		return o, fmt.Errorf("%w: tolerance %g", ErrInvalidOption, o.Tolerance)
	case o.MaxIterations < 1:
		return o, fmt.Errorf("%w: max iterations %d", ErrInvalidOption, o.MaxIterations)
	case !(o.MuMin >= 0) || math.IsInf(o.MuMin, 0):
		return o, fmt.Errorf("%w: mu min %g", ErrInvalidOption, o.MuMin)
	case o.MuMax > 0 && o.MuMax < o.MuMin:
		return o, fmt.Errorf("%w: mu max %g below mu min %g", ErrInvalidOption, o.MuMax, o.MuMin)
	}
	return o, nil
}

// Solve builds the flow network for p, computes the minimum cut and
// evaluates the resulting partition.
func Solve(attrs *attributes.GraphAttributes, p energy.Params, opts ...Option) (Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Result{}, err
	}
	return solve(attrs, p, o)
}

func solve(attrs *attributes.GraphAttributes, p energy.Params, o Options) (Result, error) {
	net, err := energy.BuildNetwork(attrs, p)
	if err != nil {
		return Result{}, err
	}

	fo := flow.DefaultOptions()
	fo.Epsilon = o.Epsilon
	fo.Logger = o.Logger
	cut, err := flow.Solve(net, o.Algorithm, fo)
	if err != nil {
		return Result{}, fmt.Errorf("optimize: min cut: %w", err)
	}

	e, err := energy.Energy(attrs, cut.Source, p)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Partition:       cut.Source,
		TotalPopulation: attrs.TotalPopulation,
		TotalArea:       attrs.TotalArea,
		Energy:          e,
		FlowValue:       cut.Value,
		Lambda:          p.Lambda(),
		Mu:              p.Mu(),
	}
	for i, sel := range cut.Source {
		if sel {
			res.SelectedPopulation += attrs.Population[i]
			res.SelectedArea += attrs.Area[i]
		}
	}
	if res.TotalPopulation > 0 {
		res.PopulationFraction = float64(res.SelectedPopulation) / float64(res.TotalPopulation)
	}
	res.SatisfiedTarget = math.Abs(res.PopulationFraction-o.TargetFraction) <= o.Tolerance
	return res, nil
}
