// Package grids defines the small value types describing a 2D grid of
// compute devices and the pure math that splits the grid across cooperating
// hosts.
//
// A Shape is the extent of the full grid or of the per-host sub-grid; both
// must have power-of-two dimensions, and the sub-grid must evenly divide the
// grid. Partition derives the rectangle (Submesh) owned by one host purely
// from its rank, so every host computes a mutually consistent tiling without
// any communication.
//
// ## Glossary
//
//   - Grid: the full 2D arrangement of devices, shared by all hosts.
//   - Sub-grid: the contiguous rectangle owned by a single host.
//   - Rank: the index of a host within the coordination group; host grid
//     coordinates are (rank mod hostsX, rank div hostsX), row-major.
package grids

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Shape is the extent of a 2D grid (or sub-grid) of devices.
//
// Use Make to create a new shape with checked dimensions.
type Shape struct {
	X, Y int
}

// Make returns a Shape with the given dimensions.
// It panics if either dimension is not positive.
func Make(x, y int) Shape {
	if x <= 0 || y <= 0 {
		exceptions.Panicf("grids.Make(%d, %d): dimensions must be positive", x, y)
	}
	return Shape{X: x, Y: y}
}

// Ok returns whether this is a valid Shape. The zero Shape{} is invalid.
func (s Shape) Ok() bool { return s.X > 0 && s.Y > 0 }

// Size returns the number of grid nodes covered by the shape.
func (s Shape) Size() int { return s.X * s.Y }

// Equal compares both dimensions.
func (s Shape) Equal(o Shape) bool { return s == o }

// String implements fmt.Stringer, printing "XxY".
func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.X, s.Y) }

// IsPowerOfTwo returns whether n is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](n T) bool {
	return n > 0 && n&(n-1) == 0
}

// CheckGridShape returns an error unless both grid dimensions are positive
// powers of two.
func CheckGridShape(grid Shape) error {
	if !IsPowerOfTwo(grid.X) || !IsPowerOfTwo(grid.Y) {
		return errors.Errorf("grid dimensions must be powers of two, got %s", grid)
	}
	return nil
}

// CheckSubgridShape returns an error unless both sub-grid dimensions are
// positive powers of two and the sub-grid evenly divides the grid.
func CheckSubgridShape(grid, sub Shape) error {
	if !IsPowerOfTwo(sub.X) || !IsPowerOfTwo(sub.Y) {
		return errors.Errorf("sub-grid dimensions must be powers of two, got %s", sub)
	}
	if grid.X%sub.X != 0 || grid.Y%sub.Y != 0 {
		return errors.Errorf("sub-grid %s must evenly divide grid %s", sub, grid)
	}
	return nil
}

// Range is a half-open integer interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of values in the interval.
func (r Range) Len() int { return r.End - r.Start }

// Contains returns whether v falls inside the interval.
func (r Range) Contains(v int) bool { return v >= r.Start && v < r.End }

// String implements fmt.Stringer, printing "[Start..End)".
func (r Range) String() string { return fmt.Sprintf("[%d..%d)", r.Start, r.End) }

// Coord addresses a single node of a grid.
type Coord struct {
	X, Y int
}

// String implements fmt.Stringer, printing "(X,Y)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }
