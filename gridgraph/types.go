package gridgraph

import "github.com/paulmach/orb"

// Connectivity selects neighbor connectivity: orthogonal (Conn4) or including diagonals (Conn8).
type Connectivity int

const (
	// Conn4 uses 4-directional connectivity: N, E, S, W.
	Conn4 Connectivity = iota
	// Conn8 uses 8-directional connectivity: N, NE, E, SE, S, SW, W, NW.
	Conn8
)

// GridOptions contains tunable parameters for grid construction.
type GridOptions struct {
	// CellSize is the side length of each square cell, in meters.
	CellSize float64
	// Origin is the lower-left corner of cell (0,0).
	Origin orb.Point
	// Conn chooses 4- or 8-directional connectivity for Edges.
	Conn Connectivity
}

// DefaultGridOptions returns GridOptions with 1000 m cells at the origin and
// Conn8 (Queen) connectivity.
func DefaultGridOptions() GridOptions {
	return GridOptions{
		CellSize: 1000,
		Conn:     Conn8,
	}
}

// GridGraph treats a 2D population grid as a tessellation of square tracts.
// It is immutable once built. Populations[y][x] holds the population of the
// cell in row y, column x; row 0 is the southernmost row.
type GridGraph struct {
	Width, Height   int
	Populations     [][]int64
	CellSize        float64
	Origin          orb.Point
	Conn            Connectivity
	neighborOffsets [][2]int
}
