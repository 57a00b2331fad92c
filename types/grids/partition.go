package grids

import (
	"fmt"

	"github.com/pkg/errors"
)

// Submesh is the rectangle of the full grid owned by one host. It is derived
// once from the host's rank at open time and immutable thereafter.
type Submesh struct {
	XRange, YRange Range
	Shape          Shape
}

// Origin returns the global coordinate of the submesh's first node.
func (s Submesh) Origin() Coord { return Coord{X: s.XRange.Start, Y: s.YRange.Start} }

// Contains returns whether the global coordinate falls inside the submesh.
func (s Submesh) Contains(global Coord) bool {
	return s.XRange.Contains(global.X) && s.YRange.Contains(global.Y)
}

// ToGlobal maps a local coordinate in [0,Shape.X)x[0,Shape.Y) to its global
// grid coordinate. The mapping is a bijection onto the submesh rectangle.
func (s Submesh) ToGlobal(local Coord) Coord {
	return Coord{X: s.XRange.Start + local.X, Y: s.YRange.Start + local.Y}
}

// ToLocal maps a global coordinate inside the submesh back to its local
// coordinate. It is the inverse of ToGlobal.
func (s Submesh) ToLocal(global Coord) Coord {
	return Coord{X: global.X - s.XRange.Start, Y: global.Y - s.YRange.Start}
}

// String implements fmt.Stringer.
func (s Submesh) String() string {
	return fmt.Sprintf("x%s y%s shape=%s", s.XRange, s.YRange, s.Shape)
}

// HostGrid returns how many hosts tile the grid along each axis. It assumes
// divisibility was already checked with CheckSubgridShape.
func HostGrid(grid, sub Shape) Shape {
	return Shape{X: grid.X / sub.X, Y: grid.Y / sub.Y}
}

// ExpectedHosts returns the number of hosts the (grid, sub) tiling requires.
func ExpectedHosts(grid, sub Shape) int { return HostGrid(grid, sub).Size() }

// Partition computes the submesh owned by the given rank.
//
// It is a pure function of its arguments: it never consults time, randomness
// or iteration order, so identical inputs produce identical results on every
// host, and the submeshes of ranks 0..world-1 exactly tile the grid.
//
// It returns an error if either shape has a non-power-of-two dimension, if
// the sub-grid does not evenly divide the grid, or if world does not match
// the host count the tiling requires. Any of these is a configuration error
// that must take down the whole coordination group: a solitary local exit
// would desync the surviving hosts on their next collective.
func Partition(grid, sub Shape, rank, world int) (Submesh, error) {
	if err := CheckGridShape(grid); err != nil {
		return Submesh{}, err
	}
	if err := CheckSubgridShape(grid, sub); err != nil {
		return Submesh{}, err
	}
	hosts := HostGrid(grid, sub)
	if world != hosts.Size() {
		return Submesh{}, errors.Errorf(
			"world size %d does not match expected host count %d (grid %s split into %s sub-grids needs a %s host grid)",
			world, hosts.Size(), grid, sub, hosts)
	}
	if rank < 0 || rank >= world {
		return Submesh{}, errors.Errorf("rank %d out of range for world size %d", rank, world)
	}
	hostX := rank % hosts.X
	hostY := rank / hosts.X
	return Submesh{
		XRange: Range{Start: hostX * sub.X, End: (hostX + 1) * sub.X},
		YRange: Range{Start: hostY * sub.Y, End: (hostY + 1) * sub.Y},
		Shape:  sub,
	}, nil
}
