package grids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	require.False(t, Shape{}.Ok())

	s := Make(16, 8)
	require.True(t, s.Ok())
	require.Equal(t, 128, s.Size())
	require.Equal(t, "16x8", s.String())
	require.True(t, s.Equal(Shape{X: 16, Y: 8}))
	require.False(t, s.Equal(Shape{X: 8, Y: 16}))

	require.Panics(t, func() { Make(0, 4) })
	require.Panics(t, func() { Make(4, -1) })
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 1024} {
		require.True(t, IsPowerOfTwo(n), "n=%d", n)
	}
	for _, n := range []int{0, -2, 3, 6, 12, 1023} {
		require.False(t, IsPowerOfTwo(n), "n=%d", n)
	}
}

func TestCheckGridShape(t *testing.T) {
	require.NoError(t, CheckGridShape(Make(16, 8)))
	require.Error(t, CheckGridShape(Make(3, 8)))
	require.Error(t, CheckGridShape(Make(16, 6)))
}

func TestCheckSubgridShape(t *testing.T) {
	grid := Make(16, 8)
	require.NoError(t, CheckSubgridShape(grid, Make(8, 4)))
	require.NoError(t, CheckSubgridShape(grid, Make(16, 8)))

	// Non-power-of-two sub-grid is rejected even if it divides the grid.
	require.Error(t, CheckSubgridShape(Make(4, 4), Make(3, 3)))

	// Power-of-two sub-grid larger than the grid does not divide it.
	require.Error(t, CheckSubgridShape(Make(4, 4), Make(8, 4)))
}

func TestRange(t *testing.T) {
	r := Range{Start: 8, End: 16}
	require.Equal(t, 8, r.Len())
	require.True(t, r.Contains(8))
	require.True(t, r.Contains(15))
	require.False(t, r.Contains(16))
	require.False(t, r.Contains(7))
	require.Equal(t, "[8..16)", r.String())
}

func TestCoordString(t *testing.T) {
	require.Equal(t, "(3,1)", Coord{X: 3, Y: 1}.String())
}
