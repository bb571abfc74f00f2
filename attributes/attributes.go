// Package attributes turns a tract dataset and its adjacency graph into the
// immutable numeric inputs of the energy model: per-node population and
// area, per-edge shared boundary length and the characteristic length ρ.
//
// ρ is the median of sqrt(area) over all nodes. Dividing boundary lengths by
// ρ and areas by ρ² makes both energy terms dimensionless, so λ means the
// same thing regardless of the units or scale of the input.
//
// A GraphAttributes value is never modified after construction and may be
// shared by any number of concurrent readers.
package attributes

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/stevenfazzio/half-america/adjacency"
)

// Sentinel errors returned by Build and New.
var (
	ErrEmpty              = errors.New("attributes: no nodes")
	ErrLengthMismatch     = errors.New("attributes: population, area and node counts differ")
	ErrNegativePopulation = errors.New("attributes: population must be non-negative")
	ErrNonPositiveArea    = errors.New("attributes: area must be positive and finite")
	ErrNegativeLength     = errors.New("attributes: boundary length must be non-negative and finite")
	ErrBadEdge            = errors.New("attributes: edge must satisfy 0 <= I < J < N")
	ErrNonPositiveRho     = errors.New("attributes: rho must be positive and finite")
)

// Source provides per-node data and pairwise shared boundary lengths.
// dataset.Dataset implements it.
type Source interface {
	Len() int
	Population(i int) int64
	Area(i int) float64
	SharedBoundary(i, j int) float64
}

// Edge is a canonical undirected edge with I < J and its shared boundary length
// in meters.
type Edge struct {
	I, J   int
	Length float64
}

// GraphAttributes holds everything the energy model reads.
type GraphAttributes struct {
	Population []int64
	Area       []float64
	Rho        float64
	Edges      []Edge

	TotalPopulation int64
	TotalArea       float64

	lengths map[[2]int]float64
}

// Option tweaks New.
type Option func(*settings)

type settings struct {
	rho float64
}

// WithRho overrides the computed characteristic length.
func WithRho(rho float64) Option {
	return func(s *settings) { s.rho = rho }
}

// Build computes attributes from src for the edges of adj.
// src.Len() must equal adj.NumNodes.
func Build(src Source, adj *adjacency.Result, opts ...Option) (*GraphAttributes, error) {
	n := src.Len()
	if n == 0 {
		return nil, ErrEmpty
	}
	if adj.NumNodes != n {
		return nil, fmt.Errorf("%w: source has %d nodes, adjacency %d", ErrLengthMismatch, n, adj.NumNodes)
	}

	pop := make([]int64, n)
	area := make([]float64, n)
	for i := 0; i < n; i++ {
		pop[i] = src.Population(i)
		area[i] = src.Area(i)
	}
	edges := make([]Edge, len(adj.Edges))
	for k, e := range adj.Edges {
		edges[k] = Edge{I: e.I, J: e.J, Length: src.SharedBoundary(e.I, e.J)}
	}

	return New(pop, area, edges, opts...)
}

// New validates and assembles attributes from raw arrays. Inputs are copied.
func New(pop []int64, area []float64, edges []Edge, opts ...Option) (*GraphAttributes, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	n := len(pop)
	if n == 0 {
		return nil, ErrEmpty
	}
	if len(area) != n {
		return nil, fmt.Errorf("%w: %d populations, %d areas", ErrLengthMismatch, n, len(area))
	}

	ga := &GraphAttributes{
		Population: slices.Clone(pop),
		Area:       slices.Clone(area),
		Edges:      slices.Clone(edges),
		lengths:    make(map[[2]int]float64, len(edges)),
	}
	for i := 0; i < n; i++ {
		if pop[i] < 0 {
			return nil, fmt.Errorf("node %d: %w", i, ErrNegativePopulation)
		}
		if !(area[i] > 0) || math.IsInf(area[i], 0) {
			return nil, fmt.Errorf("node %d: %w", i, ErrNonPositiveArea)
		}
		ga.TotalPopulation += pop[i]
	}
	ga.TotalArea = floats.Sum(ga.Area)

	for _, e := range ga.Edges {
		if e.I < 0 || e.J >= n || e.I >= e.J {
			return nil, fmt.Errorf("edge (%d,%d): %w", e.I, e.J, ErrBadEdge)
		}
		if !(e.Length >= 0) || math.IsInf(e.Length, 0) {
			return nil, fmt.Errorf("edge (%d,%d): %w", e.I, e.J, ErrNegativeLength)
		}
		ga.lengths[[2]int{e.I, e.J}] = e.Length
	}

	if s.rho != 0 {
		ga.Rho = s.rho
	} else {
		ga.Rho = ComputeRho(ga.Area)
	}
	if !(ga.Rho > 0) || math.IsInf(ga.Rho, 0) {
		return nil, ErrNonPositiveRho
	}

	return ga, nil
}

// ComputeRho returns median(sqrt(area)); for an even count the mean of the
// two middle values. It returns 0 for an empty slice.
func ComputeRho(area []float64) float64 {
	if len(area) == 0 {
		return 0
	}
	roots := make([]float64, len(area))
	for i, a := range area {
		roots[i] = math.Sqrt(a)
	}
	slices.Sort(roots)
	m := len(roots) / 2
	if len(roots)%2 == 1 {
		return roots[m]
	}
	return (roots[m-1] + roots[m]) / 2
}

// N returns the node count.
func (ga *GraphAttributes) N() int { return len(ga.Population) }

// EdgeLength returns the boundary length between i and j in either order,
// and false when they are not neighbors.
func (ga *GraphAttributes) EdgeLength(i, j int) (float64, bool) {
	if i > j {
		i, j = j, i
	}
	l, ok := ga.lengths[[2]int{i, j}]
	return l, ok
}

// ScaledAreaSum returns Σ a_i / ρ².
func (ga *GraphAttributes) ScaledAreaSum() float64 {
	return ga.TotalArea / (ga.Rho * ga.Rho)
}

// Summary describes a graph for logs and the inspect command.
type Summary struct {
	Nodes              int     `json:"nodes" yaml:"nodes"`
	Edges              int     `json:"edges" yaml:"edges"`
	TotalPopulation    int64   `json:"total_population" yaml:"total_population"`
	HalfPopulation     float64 `json:"half_population" yaml:"half_population"`
	TotalAreaKm2       float64 `json:"total_area_km2" yaml:"total_area_km2"`
	RhoMeters          float64 `json:"rho_m" yaml:"rho_m"`
	RhoKm              float64 `json:"rho_km" yaml:"rho_km"`
	MeanBoundaryLength float64 `json:"mean_boundary_length_m" yaml:"mean_boundary_length_m"`
	MaxBoundaryLength  float64 `json:"max_boundary_length_m" yaml:"max_boundary_length_m"`
	MeanNeighbors      float64 `json:"mean_neighbors" yaml:"mean_neighbors"`
}

// Summary computes descriptive statistics.
func (ga *GraphAttributes) Summary() Summary {
	s := Summary{
		Nodes:           ga.N(),
		Edges:           len(ga.Edges),
		TotalPopulation: ga.TotalPopulation,
		HalfPopulation:  float64(ga.TotalPopulation) / 2,
		TotalAreaKm2:    ga.TotalArea / 1e6,
		RhoMeters:       ga.Rho,
		RhoKm:           ga.Rho / 1e3,
	}
	if len(ga.Edges) > 0 {
		lengths := make([]float64, len(ga.Edges))
		for k, e := range ga.Edges {
			lengths[k] = e.Length
		}
		s.MeanBoundaryLength = floats.Sum(lengths) / float64(len(lengths))
		s.MaxBoundaryLength = floats.Max(lengths)
	}
	s.MeanNeighbors = 2 * float64(len(ga.Edges)) / float64(ga.N())
	return s
}
