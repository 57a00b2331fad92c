// Package inprocess implements the coordinator capability set for N SPMD
// members running as goroutines of a single process.
//
// A Fabric holds the shared barrier and reduction state; each Member is
// handed to one goroutine that runs the usual single-threaded host logic.
// This is the substrate used by tests and by `hostmesh_run --hosts N`.
package inprocess

import (
	"fmt"
	"os"
	"sync"

	"github.com/gomlx/hostmesh/coordinator"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Name under which this package would register a fabric; it is exported for
// diagnostics only. A fabric cannot be built from a config string because
// its members must share the same Fabric value, so there is no
// coordinator.Register hook here: construct one with NewFabric.
const Name = "inprocess"

// Fabric is the shared coordination state of a fixed-size in-process group.
//
// All members must be driven concurrently (one goroutine each): every
// collective blocks until the whole group arrives.
type Fabric struct {
	id      uuid.UUID
	world   int
	barrier *rendezvous
	reducer *xorReducer
	members []*Member
}

// NewFabric creates the coordination state for a group of the given size and
// one Member per rank.
func NewFabric(world int) (*Fabric, error) {
	if world <= 0 {
		return nil, errors.Errorf("inprocess fabric needs a positive world size, got %d", world)
	}
	f := &Fabric{
		id:      uuid.New(),
		world:   world,
		barrier: newRendezvous(world),
		reducer: newXorReducer(world),
	}
	f.members = make([]*Member, world)
	for rank := range f.members {
		f.members[rank] = &Member{fabric: f, rank: rank}
	}
	return f, nil
}

// ID returns the unique identity of this fabric, used in diagnostics.
func (f *Fabric) ID() uuid.UUID { return f.id }

// WorldSize returns the number of members of the fabric.
func (f *Fabric) WorldSize() int { return f.world }

// Member returns the member with the given rank.
func (f *Fabric) Member(rank int) *Member { return f.members[rank] }

// Members returns all members, ordered by rank.
func (f *Fabric) Members() []*Member {
	members := make([]*Member, len(f.members))
	copy(members, f.members)
	return members
}

// String implements fmt.Stringer.
func (f *Fabric) String() string {
	return fmt.Sprintf("inprocess fabric %s (world=%d)", f.id, f.world)
}

// Member implements coordinator.Coordinator for one rank of a Fabric.
type Member struct {
	fabric *Fabric
	rank   int
}

// Compile-time check of the interfaces implemented.
var (
	_ coordinator.Coordinator = &Member{}
	_ coordinator.Aborter     = &Member{}
)

// Init implements coordinator.Coordinator; the fabric is ready at
// construction, so this is a no-op.
func (m *Member) Init() error { return nil }

// Finalize implements coordinator.Coordinator; it is a no-op.
func (m *Member) Finalize() {}

// Rank returns this member's rank within the fabric.
func (m *Member) Rank() int { return m.rank }

// WorldSize returns the fabric's world size.
func (m *Member) WorldSize() int { return m.fabric.world }

// Barrier blocks until every member of the fabric has entered it.
func (m *Member) Barrier() { m.fabric.barrier.await() }

// AllReduceXor contributes v and blocks until every member has contributed,
// then returns the XOR of all contributions.
func (m *Member) AllReduceXor(v uint64) uint64 { return m.fabric.reducer.reduce(v) }

// Abort terminates the process; since every member is a goroutine of this
// process, that takes down the whole group.
func (m *Member) Abort(code int) { os.Exit(code) }

// String implements fmt.Stringer.
func (m *Member) String() string {
	return fmt.Sprintf("rank %d of %s", m.rank, m.fabric)
}

// rendezvous is a reusable barrier for a fixed group size. A generation
// counter lets the same barrier be reused across consecutive collectives:
// waiters of generation g are only released when the whole group of
// generation g has arrived, and the last arrival resets the count. A member
// cannot re-enter before returning, so generations never overlap.
type rendezvous struct {
	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	arrived int
	gen     uint64
}

func newRendezvous(size int) *rendezvous {
	r := &rendezvous{size: size}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *rendezvous) await() {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen := r.gen
	r.arrived++
	if r.arrived == r.size {
		r.arrived = 0
		r.gen++
		r.cond.Broadcast()
		return
	}
	for gen == r.gen {
		r.cond.Wait()
	}
}

// xorReducer is a reusable XOR all-reduce for a fixed group size, built the
// same way as rendezvous. The result of generation g stays readable until
// every member of g has returned, because generation g+1 cannot complete
// before all of them contribute again.
type xorReducer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	arrived int
	gen     uint64
	acc     uint64
	result  uint64
}

func newXorReducer(size int) *xorReducer {
	x := &xorReducer{size: size}
	x.cond = sync.NewCond(&x.mu)
	return x
}

func (x *xorReducer) reduce(v uint64) uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	gen := x.gen
	x.acc ^= v
	x.arrived++
	if x.arrived == x.size {
		x.result = x.acc
		x.acc = 0
		x.arrived = 0
		x.gen++
		x.cond.Broadcast()
		return x.result
	}
	for gen == x.gen {
		x.cond.Wait()
	}
	return x.result
}
