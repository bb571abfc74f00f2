package flow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNodeIndex is returned when a node index is outside [0, N).
var ErrNodeIndex = errors.New("flow: node index out of range")

// ErrSelfLoop is returned by AddEdge when both endpoints are the same node.
var ErrSelfLoop = errors.New("flow: self-loop edge")

// ErrFrozen is returned when a network is modified after it has been solved.
var ErrFrozen = errors.New("flow: network is frozen after first solve")

// ErrUnknownAlgorithm is returned by ParseAlgorithm and Solve for an
// unrecognized algorithm name.
var ErrUnknownAlgorithm = errors.New("flow: unknown algorithm")

// Terminal labels used in EdgeError for source and sink arcs.
const (
	Source = -1
	Sink   = -2
)

// EdgeError is returned when an arc has a negative, NaN or infinite capacity.
type EdgeError struct {
	From, To int
	Cap      float64
}

func (e EdgeError) Error() string {
	return fmt.Sprintf("flow: invalid capacity on edge %s→%s: %g", label(e.From), label(e.To), e.Cap)
}

func label(v int) string {
	switch v {
	case Source:
		return "s"
	case Sink:
		return "t"
	}
	return fmt.Sprint(v)
}

// FlowOptions configures all max-flow algorithms.
//   - Ctx: checked between augmentation phases; nil means Background.
//   - Epsilon: treat residual capacities ≤ Epsilon as zero (default 1e-9).
//   - LevelRebuildInterval: for Dinic, rebuild level graph every N augmentations.
//   - Logger: receives one debug entry per augmenting path (Edmonds–Karp) or
//     per blocking flow phase (Dinic) when enabled.
type FlowOptions struct {
	Ctx                  context.Context
	Epsilon              float64
	LevelRebuildInterval int
	Logger               *zap.Logger
}

// DefaultOptions returns production-safe defaults.
func DefaultOptions() FlowOptions {
	return FlowOptions{
		Ctx:     context.Background(),
		Epsilon: 1e-9,
		Logger:  zap.NewNop(),
	}
}

func (o *FlowOptions) normalize() {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Epsilon <= 0 {
		o.Epsilon = 1e-9
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Algorithm names a max-flow implementation.
type Algorithm string

const (
	AlgorithmDinic       Algorithm = "dinic"
	AlgorithmEdmondsKarp Algorithm = "edmonds-karp"
)

// ParseAlgorithm validates an algorithm name; the empty string selects Dinic.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmDinic:
		return AlgorithmDinic, nil
	case AlgorithmEdmondsKarp:
		return AlgorithmEdmondsKarp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Cut is the result of a max-flow computation.
type Cut struct {
	// Value is the maximum flow, equal to the minimum cut capacity.
	Value float64
	// Source[i] is true when node i is reachable from the source in the
	// final residual network.
	Source []bool
	// Augmentations counts augmenting paths, not including terminal pre-pushes.
	Augmentations int
	// Phases counts level graphs built by Dinic; Edmonds–Karp leaves it 0.
	Phases int
}

// Solve dispatches to the named algorithm.
func Solve(net *Network, alg Algorithm, opts FlowOptions) (*Cut, error) {
	switch alg {
	case "", AlgorithmDinic:
		return Dinic(net, opts)
	case AlgorithmEdmondsKarp:
		return EdmondsKarp(net, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
}
