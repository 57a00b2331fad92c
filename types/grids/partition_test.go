package grids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionScenario16x8(t *testing.T) {
	grid, sub := Make(16, 8), Make(8, 4)
	want := []Submesh{
		{XRange: Range{0, 8}, YRange: Range{0, 4}, Shape: sub},
		{XRange: Range{8, 16}, YRange: Range{0, 4}, Shape: sub},
		{XRange: Range{0, 8}, YRange: Range{4, 8}, Shape: sub},
		{XRange: Range{8, 16}, YRange: Range{4, 8}, Shape: sub},
	}
	for rank, wantSub := range want {
		got, err := Partition(grid, sub, rank, 4)
		require.NoError(t, err)
		require.Equal(t, wantSub, got, "rank %d", rank)
		require.Equal(t, 32, got.Shape.Size(), "rank %d", rank)
	}
}

func TestPartitionSingleHost(t *testing.T) {
	got, err := Partition(Make(2, 2), Make(2, 2), 0, 1)
	require.NoError(t, err)
	require.Equal(t, Submesh{
		XRange: Range{0, 2},
		YRange: Range{0, 2},
		Shape:  Shape{X: 2, Y: 2},
	}, got)
	require.Equal(t, Shape{X: 1, Y: 1}, HostGrid(Make(2, 2), Make(2, 2)))
}

func TestPartitionErrors(t *testing.T) {
	// Non-power-of-two sub-grid.
	_, err := Partition(Make(4, 4), Make(3, 3), 0, 1)
	require.Error(t, err)

	// Non-power-of-two grid.
	_, err = Partition(Make(6, 4), Make(2, 2), 0, 6)
	require.Error(t, err)

	// World size mismatch: 16x8 over 8x4 sub-grids needs 4 hosts.
	_, err = Partition(Make(16, 8), Make(8, 4), 0, 8)
	require.Error(t, err)

	// Rank out of range.
	_, err = Partition(Make(16, 8), Make(8, 4), 4, 4)
	require.Error(t, err)
	_, err = Partition(Make(16, 8), Make(8, 4), -1, 4)
	require.Error(t, err)
}

// TestPartitionTiles checks that for several valid configurations the
// submeshes of ranks 0..world-1 exactly tile the grid: no overlap, no gap.
func TestPartitionTiles(t *testing.T) {
	configs := []struct{ grid, sub Shape }{
		{Make(16, 8), Make(8, 4)},
		{Make(16, 8), Make(2, 2)},
		{Make(8, 8), Make(8, 8)},
		{Make(8, 8), Make(1, 1)},
		{Make(32, 4), Make(4, 4)},
		{Make(2, 2), Make(2, 2)},
		{Make(4, 16), Make(4, 2)},
	}
	for _, cfg := range configs {
		world := ExpectedHosts(cfg.grid, cfg.sub)
		owners := make(map[Coord]int)
		for rank := 0; rank < world; rank++ {
			sub, err := Partition(cfg.grid, cfg.sub, rank, world)
			require.NoError(t, err)
			require.Equal(t, cfg.sub, sub.Shape)
			for y := sub.YRange.Start; y < sub.YRange.End; y++ {
				for x := sub.XRange.Start; x < sub.XRange.End; x++ {
					c := Coord{X: x, Y: y}
					_, taken := owners[c]
					require.False(t, taken, "grid=%s sub=%s: node %s owned twice", cfg.grid, cfg.sub, c)
					owners[c] = rank
				}
			}
		}
		require.Len(t, owners, cfg.grid.Size(), "grid=%s sub=%s: tiling left gaps", cfg.grid, cfg.sub)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	first, err := Partition(Make(16, 8), Make(8, 4), 3, 4)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Partition(Make(16, 8), Make(8, 4), 3, 4)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSubmeshCoordinates(t *testing.T) {
	sub, err := Partition(Make(16, 8), Make(8, 4), 3, 4)
	require.NoError(t, err)

	require.Equal(t, Coord{X: 8, Y: 4}, sub.Origin())
	require.True(t, sub.Contains(Coord{X: 8, Y: 4}))
	require.True(t, sub.Contains(Coord{X: 15, Y: 7}))
	require.False(t, sub.Contains(Coord{X: 7, Y: 4}))
	require.False(t, sub.Contains(Coord{X: 8, Y: 8}))

	local := Coord{X: 2, Y: 3}
	global := sub.ToGlobal(local)
	require.Equal(t, Coord{X: 10, Y: 7}, global)
	require.Equal(t, local, sub.ToLocal(global))
}

func TestSubmeshString(t *testing.T) {
	sub := Submesh{XRange: Range{0, 8}, YRange: Range{4, 8}, Shape: Shape{X: 8, Y: 4}}
	require.Equal(t, "x[0..8) y[4..8) shape=8x4", sub.String())
}
