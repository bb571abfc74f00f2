package gridgraph

import "errors"

var (
	// ErrEmptyGrid indicates the input 2D slice is empty.
	ErrEmptyGrid = errors.New("gridgraph: input grid must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("gridgraph: all rows must have the same length")
	// ErrBadCellSize indicates a non-positive cell size.
	ErrBadCellSize = errors.New("gridgraph: cell size must be positive")
	// ErrNegativePopulation indicates a cell with population < 0.
	ErrNegativePopulation = errors.New("gridgraph: cell population must be non-negative")
)
