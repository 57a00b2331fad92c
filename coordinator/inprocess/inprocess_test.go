package inprocess

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFabric(t *testing.T) {
	f, err := NewFabric(4)
	require.NoError(t, err)
	require.Equal(t, 4, f.WorldSize())
	require.Len(t, f.Members(), 4)
	for rank, member := range f.Members() {
		require.Equal(t, rank, member.Rank())
		require.Equal(t, 4, member.WorldSize())
		require.Same(t, member, f.Member(rank))
		require.NoError(t, member.Init())
	}

	_, err = NewFabric(0)
	require.Error(t, err)
	_, err = NewFabric(-3)
	require.Error(t, err)
}

func TestFabricIDsDistinct(t *testing.T) {
	f1, err := NewFabric(2)
	require.NoError(t, err)
	f2, err := NewFabric(2)
	require.NoError(t, err)
	require.NotEqual(t, f1.ID(), f2.ID())
}

// TestBarrier checks that no member leaves the barrier before every member
// has entered it, over several reuses of the same barrier.
func TestBarrier(t *testing.T) {
	const world = 8
	const rounds = 50
	f, err := NewFabric(world)
	require.NoError(t, err)

	var entered atomic.Int64
	var wg sync.WaitGroup
	for _, member := range f.Members() {
		wg.Add(1)
		go func(m *Member) {
			defer wg.Done()
			for round := 0; round < rounds; round++ {
				entered.Add(1)
				m.Barrier()
				got := entered.Load()
				require.GreaterOrEqual(t, got, int64((round+1)*world),
					"rank %d left round %d before the group arrived", m.Rank(), round)
			}
		}(member)
	}
	wg.Wait()
	require.Equal(t, int64(rounds*world), entered.Load())
}

// TestAllReduceXor checks the reduction value and that the reducer can be
// reused across rounds.
func TestAllReduceXor(t *testing.T) {
	const world = 7
	const rounds = 20
	f, err := NewFabric(world)
	require.NoError(t, err)

	var want uint64
	for rank := 0; rank < world; rank++ {
		want ^= uint64(rank) * 0x9e3779b97f4a7c15
	}

	var wg sync.WaitGroup
	for _, member := range f.Members() {
		wg.Add(1)
		go func(m *Member) {
			defer wg.Done()
			for round := 0; round < rounds; round++ {
				got := m.AllReduceXor(uint64(m.Rank()) * 0x9e3779b97f4a7c15)
				require.Equal(t, want, got, "rank %d round %d", m.Rank(), round)
			}
		}(member)
	}
	wg.Wait()
}

// TestAllReduceXorIdentical: identical contributions cancel out on even
// worlds and reduce to the contribution itself on odd worlds.
func TestAllReduceXorIdentical(t *testing.T) {
	for _, world := range []int{1, 2, 3, 4} {
		f, err := NewFabric(world)
		require.NoError(t, err)
		want := uint64(0)
		if world%2 == 1 {
			want = 0xAAAA
		}
		var wg sync.WaitGroup
		for _, member := range f.Members() {
			wg.Add(1)
			go func(m *Member) {
				defer wg.Done()
				require.Equal(t, want, m.AllReduceXor(0xAAAA), "world %d rank %d", world, m.Rank())
			}(member)
		}
		wg.Wait()
	}
}

// Barriers and reductions interleaved, as the mesh runtime issues them.
func TestCollectivesInterleaved(t *testing.T) {
	const world = 4
	f, err := NewFabric(world)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, member := range f.Members() {
		wg.Add(1)
		go func(m *Member) {
			defer wg.Done()
			m.Barrier()
			require.Equal(t, uint64(0), m.AllReduceXor(7))
			m.Barrier()
			require.Equal(t, uint64(0b1100^0b1101^0b1110^0b1111),
				m.AllReduceXor(uint64(0b1100|m.Rank())))
			m.Barrier()
		}(member)
	}
	wg.Wait()
}
