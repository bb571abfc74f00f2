package gridgraph

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"github.com/stevenfazzio/half-america/dataset"
)

// NewGridGraph constructs a GridGraph from a non-empty, rectangular 2D slice
// of populations. It deep-copies the input to ensure immutability.
// Returns ErrEmptyGrid if grid has no rows or no columns,
// ErrNonRectangular if any row length differs, ErrBadCellSize for a
// non-positive cell size and ErrNegativePopulation for a negative cell.
// Algorithmic complexity: O(W×H) time and memory.
func NewGridGraph(values [][]int64, opts GridOptions) (*GridGraph, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	if !(opts.CellSize > 0) {
		return nil, ErrBadCellSize
	}
	h, w := len(values), len(values[0])
	for _, row := range values {
		if len(row) != w {
			return nil, ErrNonRectangular
		}
		for _, p := range row {
			if p < 0 {
				return nil, ErrNegativePopulation
			}
		}
	}
	// Deep copy to prevent external mutation
	cells := make([][]int64, h)
	for y := 0; y < h; y++ {
		cells[y] = make([]int64, w)
		copy(cells[y], values[y])
	}
	// Precompute neighbor offsets based on connectivity
	var offsets [][2]int
	if opts.Conn == Conn8 {
		offsets = [][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
	} else {
		offsets = [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	}

	return &GridGraph{
		Width:           w,
		Height:          h,
		Populations:     cells,
		CellSize:        opts.CellSize,
		Origin:          opts.Origin,
		Conn:            opts.Conn,
		neighborOffsets: offsets,
	}, nil
}

// Uniform builds a width×height grid where every cell holds population.
func Uniform(width, height int, population int64, opts GridOptions) (*GridGraph, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	values := make([][]int64, height)
	for y := range values {
		values[y] = make([]int64, width)
		for x := range values[y] {
			values[y][x] = population
		}
	}
	return NewGridGraph(values, opts)
}

// InBounds reports whether (x,y) lies within the grid boundaries.
// Complexity: O(1).
func (gg *GridGraph) InBounds(x, y int) bool {
	return x >= 0 && x < gg.Width && y >= 0 && y < gg.Height
}

// index maps (x,y) to a row‑major index: y*Width + x.
// Complexity: O(1).
func (gg *GridGraph) index(x, y int) int {
	return y*gg.Width + x
}

// Coordinate converts a row‑major index back to (x,y).
// Complexity: O(1).
func (gg *GridGraph) Coordinate(idx int) (x, y int) {
	return idx % gg.Width, idx / gg.Width
}

// Cell returns the square polygon of cell (x,y), counter-clockwise and closed.
func (gg *GridGraph) Cell(x, y int) orb.Polygon {
	x0 := gg.Origin[0] + float64(x)*gg.CellSize
	y0 := gg.Origin[1] + float64(y)*gg.CellSize
	x1, y1 := x0+gg.CellSize, y0+gg.CellSize
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

// Tracts converts the grid into a dataset with one tract per cell, in
// row-major order. Tract IDs have the form "r<row>c<col>".
// Complexity: O(W×H).
func (gg *GridGraph) Tracts() (*dataset.Dataset, error) {
	tracts := make([]dataset.Tract, 0, gg.Width*gg.Height)
	for y := 0; y < gg.Height; y++ {
		for x := 0; x < gg.Width; x++ {
			tracts = append(tracts, dataset.Tract{
				ID:         fmt.Sprintf("r%dc%d", y, x),
				Population: gg.Populations[y][x],
				Area:       gg.CellSize * gg.CellSize,
				Geometry:   orb.MultiPolygon{gg.Cell(x, y)},
			})
		}
	}
	return dataset.New(tracts)
}

// Edges returns every neighbor pair {i, j} with i < j under gg.Conn,
// sorted ascending by (i, j).
// Complexity: O(W×H×d) where d is 4 or 8.
func (gg *GridGraph) Edges() [][2]int {
	var out [][2]int
	for i := 0; i < gg.Width*gg.Height; i++ {
		x, y := gg.Coordinate(i)
		var higher []int
		for _, d := range gg.neighborOffsets {
			nx, ny := x+d[0], y+d[1]
			if !gg.InBounds(nx, ny) {
				continue
			}
			if j := gg.index(nx, ny); j > i {
				higher = append(higher, j)
			}
		}
		slices.Sort(higher)
		for _, j := range higher {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
