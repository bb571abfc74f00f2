// Package sweep runs the μ search for many λ values concurrently and
// aggregates the results into one immutable record that can be saved and
// restored.
//
// Each λ is an independent task: it reads the shared GraphAttributes and
// writes only its own slot of the result slice, so no locking is needed.
// Tasks run on an errgroup limited to a fixed number of workers.
//
// Two failure policies decide what a non-converged search means:
//
//   - FailFast: the first non-converged λ cancels the group context and Run
//     returns a *NotConvergedError with no result. Tasks already inside a
//     solve finish it and then stop.
//   - BestEffort: the λ is recorded with Converged = false and the sweep
//     completes with AllConverged = false.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/energy"
	"github.com/stevenfazzio/half-america/optimize"
)

var (
	// ErrNotConverged is wrapped by NotConvergedError.
	ErrNotConverged = errors.New("sweep: search did not converge")

	// ErrNoLambdas indicates an empty λ list.
	ErrNoLambdas = errors.New("sweep: no lambda values")

	// ErrDuplicateLambda indicates a λ listed twice.
	ErrDuplicateLambda = errors.New("sweep: duplicate lambda value")

	// ErrBadStep indicates a non-positive λ step or a bound outside (0, 1].
	ErrBadStep = errors.New("sweep: lambda step must be positive and max in (0, 1]")
)

// NotConvergedError reports the λ that stopped a fail-fast sweep.
type NotConvergedError struct {
	Lambda     float64
	Iterations int
	Fraction   float64
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("sweep: lambda %g did not converge after %d iterations (fraction %.4f)",
		e.Lambda, e.Iterations, e.Fraction)
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }

// Policy selects how a non-converged λ is handled.
type Policy int

const (
	FailFast Policy = iota
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case BestEffort:
		return "best-effort"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps "fail-fast" / "best-effort" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "fail-fast", "":
		return FailFast, nil
	case "best-effort":
		return BestEffort, nil
	}
	return FailFast, fmt.Errorf("sweep: unknown policy %q", s)
}

// DefaultLambdas returns 0.0, 0.1, …, 0.9. λ = 1 is excluded: the area
// term vanishes there and the search cannot converge.
func DefaultLambdas() []float64 {
	out := make([]float64, 10)
	for i := range out {
		out[i] = float64(i) / 10
	}
	return out
}

// Lambdas returns round(i·step, 2) for i = 0 .. int(max/step)-1, the
// λ grid of a precompute run. max is exclusive and must lie in (0, 1].
func Lambdas(step, max float64) ([]float64, error) {
	if !(step > 0) || !(max > 0 && max <= 1) {
		return nil, fmt.Errorf("%w: step %g, max %g", ErrBadStep, step, max)
	}
	n := int(max / step)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		l := math.Round(float64(i)*step*100) / 100
		if len(out) > 0 && out[len(out)-1] == l {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// LambdaResult is the outcome of one λ task.
type LambdaResult struct {
	Lambda  float64
	Search  optimize.SearchResult
	Elapsed time.Duration
}

// Result aggregates a completed sweep. It is not modified after Run returns.
type Result struct {
	RunID string
	// Lambdas lists λ values in the order requested.
	Lambdas []float64
	Results map[float64]LambdaResult

	TotalIterations int
	// TotalElapsed is the wall-clock duration of the whole sweep.
	TotalElapsed time.Duration
	AllConverged bool

	TargetFraction float64
	Tolerance      float64
}

// Ordered returns the per-λ results in Lambdas order.
func (r *Result) Ordered() []LambdaResult {
	out := make([]LambdaResult, 0, len(r.Lambdas))
	for _, l := range r.Lambdas {
		out = append(out, r.Results[l])
	}
	return out
}

// Options configures Run.
type Options struct {
	Lambdas        []float64
	Workers        int
	Policy         Policy
	TargetFraction float64
	Tolerance      float64
	MaxIterations  int
	// Search holds extra options passed to every FindOptimalMu call.
	Search  []optimize.Option
	Logger  *zap.Logger
	Metrics *Metrics
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the default λ list, GOMAXPROCS workers, FailFast
// and the optimize defaults.
func DefaultOptions() Options {
	return Options{
		Lambdas:        DefaultLambdas(),
		Workers:        runtime.GOMAXPROCS(0),
		Policy:         FailFast,
		TargetFraction: optimize.DefaultTargetFraction,
		Tolerance:      optimize.DefaultTolerance,
		MaxIterations:  optimize.DefaultMaxIterations,
		Logger:         zap.NewNop(),
	}
}

// WithLambdas sets the λ values, in result order.
func WithLambdas(l []float64) Option { return func(o *Options) { o.Lambdas = l } }

// WithWorkers bounds concurrent λ tasks; n < 1 means GOMAXPROCS.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithPolicy selects FailFast or BestEffort.
func WithPolicy(p Policy) Option { return func(o *Options) { o.Policy = p } }

// WithTarget sets the target population fraction of every search.
func WithTarget(f float64) Option { return func(o *Options) { o.TargetFraction = f } }

// WithTolerance sets the accepted deviation from the target.
func WithTolerance(t float64) Option { return func(o *Options) { o.Tolerance = t } }

// WithMaxIterations caps bisection steps per λ.
func WithMaxIterations(n int) Option { return func(o *Options) { o.MaxIterations = n } }

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

func WithMetrics(m *Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithSearchOptions appends options passed to every FindOptimalMu call.
func WithSearchOptions(so ...optimize.Option) Option {
	return func(o *Options) { o.Search = append(o.Search, so...) }
}

// Run executes FindOptimalMu for every λ and aggregates the results.
// λ values are validated before any work starts.
func Run(ctx context.Context, attrs *attributes.GraphAttributes, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}

	if len(o.Lambdas) == 0 {
		return nil, ErrNoLambdas
	}
	seen := make(map[float64]struct{}, len(o.Lambdas))
	for _, l := range o.Lambdas {
		if _, err := energy.NewParams(l, 0); err != nil {
			return nil, err
		}
		if _, dup := seen[l]; dup {
			return nil, fmt.Errorf("%w: %g", ErrDuplicateLambda, l)
		}
		seen[l] = struct{}{}
	}

	runID := uuid.NewString()
	log := o.Logger.With(zap.String("run_id", runID))
	log.Info("starting lambda sweep",
		zap.Float64s("lambdas", o.Lambdas),
		zap.Int("workers", o.Workers),
		zap.Stringer("policy", o.Policy),
		zap.Int("nodes", attrs.N()))

	searchOpts := append([]optimize.Option{
		optimize.WithTarget(o.TargetFraction),
		optimize.WithTolerance(o.Tolerance),
		optimize.WithMaxIterations(o.MaxIterations),
		optimize.WithLogger(log),
	}, o.Search...)
	so, err := optimize.NewOptions(searchOpts...)
	if err != nil {
		return nil, err
	}
	if m := o.Metrics; m != nil {
		observe := so.OnIteration
		searchOpts = append(searchOpts, optimize.WithIterationHook(func(it optimize.Iteration) {
			m.SolverCalls.Inc()
			if observe != nil {
				observe(it)
			}
		}))
	}

	start := time.Now()
	slots := make([]LambdaResult, len(o.Lambdas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)

	for i, lambda := range o.Lambdas {
		if gctx.Err() != nil {
			break
		}
		i, lambda := i, lambda
		g.Go(func() error {
			t0 := time.Now()
			sr, err := optimize.FindOptimalMu(gctx, attrs, lambda, searchOpts...)
			if err != nil {
				return fmt.Errorf("sweep: lambda %g: %w", lambda, err)
			}
			elapsed := time.Since(t0)
			if m := o.Metrics; m != nil {
				m.LambdaDuration.Observe(elapsed.Seconds())
				m.SearchIterations.Observe(float64(sr.Iterations))
			}

			if !sr.Converged {
				if m := o.Metrics; m != nil {
					m.NonConverged.Inc()
				}
				if o.Policy == FailFast {
					return &NotConvergedError{
						Lambda:     lambda,
						Iterations: sr.Iterations,
						Fraction:   sr.Result.PopulationFraction,
					}
				}
				log.Warn("lambda did not converge",
					zap.Float64("lambda", lambda),
					zap.Int("iterations", sr.Iterations),
					zap.Float64("fraction", sr.Result.PopulationFraction))
			} else {
				log.Info("lambda converged",
					zap.Float64("lambda", lambda),
					zap.Float64("mu", sr.Result.Mu),
					zap.Int("iterations", sr.Iterations),
					zap.Float64("fraction", sr.Result.PopulationFraction),
					zap.Duration("elapsed", elapsed))
			}
			slots[i] = LambdaResult{Lambda: lambda, Search: sr, Elapsed: elapsed}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if m := o.Metrics; m != nil {
			m.Sweeps.WithLabelValues("failed").Inc()
		}
		log.Error("sweep failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:          runID,
		Lambdas:        slices.Clone(o.Lambdas),
		Results:        make(map[float64]LambdaResult, len(slots)),
		AllConverged:   true,
		TargetFraction: o.TargetFraction,
		Tolerance:      o.Tolerance,
	}
	for _, lr := range slots {
		res.Results[lr.Lambda] = lr
		res.TotalIterations += lr.Search.Iterations
		res.AllConverged = res.AllConverged && lr.Search.Converged
	}
	res.TotalElapsed = time.Since(start)

	if m := o.Metrics; m != nil {
		m.Sweeps.WithLabelValues("completed").Inc()
	}
	log.Info("sweep completed",
		zap.Int("total_iterations", res.TotalIterations),
		zap.Duration("total_elapsed", res.TotalElapsed),
		zap.Bool("all_converged", res.AllConverged))
	return res, nil
}
