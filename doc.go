// Package halfamerica splits a map of regions into two sets so that one of
// them holds a target share (by default half) of the population while its
// outline stays compact.
//
// What does it compute?
//
//	Every region is a node with a population p and an area a; neighboring
//	regions share a boundary of length l. A selection x minimizes
//
//		E(x) = λ·Σ_cut l/ρ + (1−λ)·Σ_selected a/ρ² − μ·Σ_selected p
//
//	where ρ is the median of √a. The energy is graph-representable, so one
//	s–t minimum cut finds the exact optimum for fixed (λ, μ). μ is then
//	bisected until the selected population reaches the target, and the whole
//	search is repeated for a grid of λ values in parallel.
//
// Packages, in pipeline order:
//
//	geometry/    planar area, vertex and segment keys, shared boundary length
//	dataset/     ordered tracts (population + polygon), GeoJSON loading
//	gridgraph/   synthetic square-cell tessellations
//	adjacency/   Queen/Rook contiguity, island attachment, component count
//	attributes/  immutable per-node and per-edge inputs of the energy
//	energy/      validated (λ, μ), flow network construction, direct evaluation
//	flow/        arena residual network, Dinic and Edmonds–Karp minimum cut
//	optimize/    one partition per (λ, μ) and the μ bisection
//	sweep/       concurrent λ sweep, failure policies, metrics, cached results
//	config/      YAML configuration and logger construction
//	cmd/half-america  precompute, inspect and graph commands
//
// Quick ASCII example (four cells in a row, populations in people):
//
//	┌─────┬─────┬─────┬─────┐
//	│ 500 │ 300 │ 150 │  50 │
//	└─────┴─────┴─────┴─────┘
//
// Half of the 1000 people live in the first cell, so the search selects
// exactly that cell.
//
//	go install github.com/stevenfazzio/half-america/cmd/half-america@latest
package halfamerica
