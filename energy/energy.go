// Package energy defines the partition energy and its s–t network encoding.
//
// For a selection x ∈ {0,1}^N the energy is
//
//	E(x) = λ·Σ_{(i,j) cut} l_ij/ρ + (1−λ)·Σ_{i sel} a_i/ρ² − μ·Σ_{i sel} p_i
//
// where a cut edge joins a selected and an unselected node. λ trades boundary
// length against area; μ is the price paid per selected person.
//
// BuildNetwork encodes E as a flow network whose minimum cut is a global
// minimizer of E: node i gets source capacity μ·p_i and sink capacity
// (1−λ)·a_i/ρ², and every edge gets capacity λ·l_ij/ρ in both directions.
// The cut value equals E(x*) + μ·Σ p_i.
package energy

import (
	"errors"
	"fmt"
	"math"

	"github.com/stevenfazzio/half-america/attributes"
	"github.com/stevenfazzio/half-america/flow"
)

// Sentinel errors.
var (
	// ErrLambdaRange rejects λ outside [0, 1). At λ = 1 the area term
	// vanishes and the empty and full selections tie for every μ.
	ErrLambdaRange = errors.New("energy: lambda must be in [0, 1)")

	// ErrNegativeMu rejects μ < 0.
	ErrNegativeMu = errors.New("energy: mu must be non-negative and finite")

	// ErrPartitionLength indicates a partition whose length differs from N.
	ErrPartitionLength = errors.New("energy: partition length does not match node count")
)

// Params is a validated (λ, μ) pair. The zero value is λ = 0, μ = 0.
type Params struct {
	lambda float64
	mu     float64
}

// NewParams validates λ ∈ [0, 1) and μ ≥ 0.
func NewParams(lambda, mu float64) (Params, error) {
	if !(lambda >= 0 && lambda < 1) {
		return Params{}, fmt.Errorf("%w: got %g", ErrLambdaRange, lambda)
	}
	if !(mu >= 0) || math.IsInf(mu, 0) {
		return Params{}, fmt.Errorf("%w: got %g", ErrNegativeMu, mu)
	}
	return Params{lambda: lambda, mu: mu}, nil
}

// Lambda returns λ.
func (p Params) Lambda() float64 { return p.lambda }

// Mu returns μ.
func (p Params) Mu() float64 { return p.mu }

// BuildNetwork encodes the energy of attrs under p as an s–t network.
func BuildNetwork(attrs *attributes.GraphAttributes, p Params) (*flow.Network, error) {
	n := attrs.N()
	rho := attrs.Rho
	rho2 := rho * rho
	net := flow.NewNetwork(n, len(attrs.Edges))

	for i := 0; i < n; i++ {
		src := p.mu * float64(attrs.Population[i])
		sink := (1 - p.lambda) * attrs.Area[i] / rho2
		if err := net.AddTerminal(i, src, sink); err != nil {
			return nil, fmt.Errorf("energy: node %d: %w", i, err)
		}
	}
	for _, e := range attrs.Edges {
		c := p.lambda * e.Length / rho
		if err := net.AddEdge(e.I, e.J, c, c); err != nil {
			return nil, fmt.Errorf("energy: edge (%d,%d): %w", e.I, e.J, err)
		}
	}
	return net, nil
}

// Breakdown lists the three energy terms, already weighted by λ and μ.
type Breakdown struct {
	Boundary   float64 // λ·Σ_cut l_ij/ρ
	Area       float64 // (1−λ)·Σ_sel a_i/ρ²
	Population float64 // μ·Σ_sel p_i, subtracted
}

// Total returns Boundary + Area − Population.
func (b Breakdown) Total() float64 {
	return b.Boundary + b.Area - b.Population
}

// Terms evaluates each energy term of partition directly.
func Terms(attrs *attributes.GraphAttributes, partition []bool, p Params) (Breakdown, error) {
	if len(partition) != attrs.N() {
		return Breakdown{}, fmt.Errorf("%w: %d vs %d", ErrPartitionLength, len(partition), attrs.N())
	}
	var cut, area float64
	var pop int64
	for i, sel := range partition {
		if sel {
			area += attrs.Area[i]
			pop += attrs.Population[i]
		}
	}
	for _, e := range attrs.Edges {
		if partition[e.I] != partition[e.J] {
			cut += e.Length
		}
	}
	rho := attrs.Rho
	return Breakdown{
		Boundary:   p.lambda * cut / rho,
		Area:       (1 - p.lambda) * area / (rho * rho),
		Population: p.mu * float64(pop),
	}, nil
}

// Energy evaluates E(partition).
func Energy(attrs *attributes.GraphAttributes, partition []bool, p Params) (float64, error) {
	b, err := Terms(attrs, partition, p)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}
