// Package gridgraph builds synthetic tract tessellations: a rectangular grid
// of square cells, each carrying a population count, laid out as polygons in
// a projected (meter) coordinate system.
//
// What:
//
//   - GridGraph wraps a rectangular [][]int64 population grid with a cell size
//     and origin.
//   - Tracts converts the grid into a dataset.Dataset, row-major (index = y·W + x).
//   - Edges enumerates the neighbor pairs implied by the grid's connectivity,
//     serving as an oracle for polygon-based contiguity.
//
// Why:
//
//   - Test fixtures with exactly known adjacency, areas and shared boundaries.
//   - Synthetic runs of the partition engine without external data.
//
// Connectivity:
//
//   - Conn4: orthogonal neighbors only (Rook contiguity).
//   - Conn8: orthogonal and diagonal neighbors (Queen contiguity).
//
// Errors:
//
//   - ErrEmptyGrid: input grid has no rows or no columns.
//   - ErrNonRectangular: rows have differing lengths.
//   - ErrBadCellSize: cell size is not positive.
//   - ErrNegativePopulation: a cell holds a negative population.
package gridgraph
