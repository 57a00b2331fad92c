// Package mesh implements a multi-host mesh runtime: a fixed group of
// cooperating host processes (ranks) shares a logical 2D grid of compute
// devices, deterministically partitions it, and dispatches opaque command
// words to the devices each host owns.
//
// Every host runs the same single-threaded program (SPMD); the only
// cross-host interactions are the collective operations of the underlying
// coordinator (barriers and XOR reductions). Global descriptors -- Buffer and
// Workload -- are independently replicated values kept consistent across
// hosts by collective validation checks rather than by any shared memory.
//
// Typical flow on every host:
//
//	coord, err := coordinator.New()
//	m, err := mesh.Open(mesh.Config{Grid: grids.Make(16, 8), Subgrid: grids.Make(8, 4), Validate: true}, coord)
//	buf, err := m.Allocate(grids.Make(64, 64))
//	wl, err := m.NewWorkload(words, m.GridShape())
//	m.Dispatch().Push(wl)
//	m.FlushPending()
//	m.Wait()
//	m.Close()
//
// Failure semantics are fail-fast-and-abort-everyone: every meaningful error
// is either a local precondition caught before any collective, or a
// cross-host inconsistency. Errors are returned as values so the entry point
// can log or intercept them before performing the group-wide termination
// (see coordinator.Aborter).
package mesh

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/hostmesh/coordinator"
	"github.com/gomlx/hostmesh/types/grids"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrAlreadyOpen is returned by Open when the coordinator member already
	// backs an open mesh context.
	ErrAlreadyOpen = errors.New("mesh already open for this coordinator member")

	// ErrDivergence is returned when a collective validation check finds
	// that the group did not build bit-identical global descriptors. It
	// indicates a bug in the workload-generation logic or in the runtime;
	// it is not retried and not locally recoverable.
	ErrDivergence = errors.New("mesh members diverged")

	// ErrClosed is returned by operations on a mesh that was closed.
	ErrClosed = errors.New("mesh is closed")
)

// Config carries the symmetric configuration every host passes to Open. It
// must be identical across the group.
type Config struct {
	// Grid is the full device grid. Both dimensions must be powers of two.
	Grid grids.Shape

	// Subgrid is the rectangle each host owns. Both dimensions must be
	// powers of two and must evenly divide Grid. The coordination group's
	// world size must equal (Grid.X/Subgrid.X)*(Grid.Y/Subgrid.Y).
	Subgrid grids.Shape

	// Validate gates the collective consistency checks run on every global
	// descriptor construction. Validation detects post-hoc divergence; it
	// does not establish correctness by construction.
	Validate bool

	// Debug is the print-filter policy for diagnostics.
	Debug Debug
}

// Mesh is one host's view of the shared grid: its rank's submesh, the devices
// it owns, and the dispatch queue that fans global workloads out to them.
//
// A Mesh is an explicit context: construct it once in the entry point with
// Open and pass it to everything that needs it. There is no process-global
// instance and no zero-argument accessor.
type Mesh struct {
	cfg   Config
	coord coordinator.Coordinator

	rank, world int
	submesh     grids.Submesh
	devices     []*Device
	dispatch    *DispatchQueue

	// allocCount is the monotonic allocation counter buffer bases derive
	// from. Process-local: symmetric across hosts only while they stay in
	// lockstep, which validation checks after the fact.
	allocCount uint64

	closed bool
}

// Compile-time check: the mesh is the appender backing its dispatch queue.
var _ DeviceAppender = &Mesh{}

// A coordinator member backs at most one open mesh at a time. The guard is
// keyed by member rather than being a process one-shot so independent
// instances can coexist under test.
var (
	openMu     sync.Mutex
	openMeshes = make(map[coordinator.Coordinator]*Mesh)
)

// Open builds the mesh context for this coordinator member.
//
// It initializes the coordinator (idempotently), derives the member's
// submesh purely from its rank, creates one Device per owned grid node in
// row-major local order, and ends with a collective barrier so every host
// observes a consistent post-init state before any of them proceeds.
//
// Opening a second mesh on a member whose mesh is still open fails with
// ErrAlreadyOpen. Configuration errors (bad dimensions, world-size mismatch)
// are returned before any collective call so the entry point can abort the
// whole group.
func Open(cfg Config, coord coordinator.Coordinator) (*Mesh, error) {
	openMu.Lock()
	if _, found := openMeshes[coord]; found {
		openMu.Unlock()
		return nil, errors.WithStack(ErrAlreadyOpen)
	}
	openMeshes[coord] = nil // Reserve while opening.
	openMu.Unlock()

	m, err := open(cfg, coord)
	openMu.Lock()
	if err != nil {
		delete(openMeshes, coord)
	} else {
		openMeshes[coord] = m
	}
	openMu.Unlock()
	return m, err
}

func open(cfg Config, coord coordinator.Coordinator) (*Mesh, error) {
	if err := coord.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing coordinator")
	}
	rank, world := coord.Rank(), coord.WorldSize()
	submesh, err := grids.Partition(cfg.Grid, cfg.Subgrid, rank, world)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		cfg:     cfg,
		coord:   coord,
		rank:    rank,
		world:   world,
		submesh: submesh,
	}
	m.devices = make([]*Device, 0, cfg.Subgrid.Size())
	for ly := 0; ly < cfg.Subgrid.Y; ly++ {
		for lx := 0; lx < cfg.Subgrid.X; lx++ {
			local := grids.Coord{X: lx, Y: ly}
			d := &Device{Global: submesh.ToGlobal(local), Local: local}
			m.devices = append(m.devices, d)
			if m.debugEnabled() {
				klog.Infof("[rank %d] initialized %s", rank, d)
			}
		}
	}
	m.dispatch = NewDispatchQueue(m, cfg.Debug, rank)

	coord.Barrier()
	if m.debugEnabled() {
		klog.Infof("[rank %d] owns %s (%d devices)", rank, submesh, len(m.devices))
	}
	return m, nil
}

// Close runs the teardown barrier and finalizes the coordinator. It is
// idempotent after the first call. Collective.
func (m *Mesh) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.coord.Barrier()
	m.coord.Finalize()
	openMu.Lock()
	delete(openMeshes, m.coord)
	openMu.Unlock()
}

// Rank returns this host's rank within the coordination group.
func (m *Mesh) Rank() int { return m.rank }

// World returns the coordination group's size.
func (m *Mesh) World() int { return m.world }

// GridShape returns the full grid the mesh was opened with.
func (m *Mesh) GridShape() grids.Shape { return m.cfg.Grid }

// SubgridShape returns the per-host sub-grid shape.
func (m *Mesh) SubgridShape() grids.Shape { return m.cfg.Subgrid }

// Submesh returns the rectangle of the grid this host owns.
func (m *Mesh) Submesh() grids.Submesh { return m.submesh }

// Devices returns this host's devices, in row-major local order.
func (m *Mesh) Devices() []*Device {
	devices := make([]*Device, len(m.devices))
	copy(devices, m.devices)
	return devices
}

// Dispatch returns the dispatch queue bound to this context.
func (m *Mesh) Dispatch() *DispatchQueue { return m.dispatch }

// NumDevices implements DeviceAppender.
func (m *Mesh) NumDevices() int { return len(m.devices) }

// AppendCommands implements DeviceAppender for the locally owned devices.
func (m *Mesh) AppendCommands(i int, words []uint64) {
	if i < 0 || i >= len(m.devices) {
		exceptions.Panicf("mesh.AppendCommands: device index %d out of range (%d local devices)", i, len(m.devices))
	}
	m.devices[i].append(words)
}

// Allocate returns a buffer descriptor for shape, declared against the grid
// the mesh was opened with. Collective when validation is on.
func (m *Mesh) Allocate(shape grids.Shape) (Buffer, error) {
	return m.allocate(shape, m.cfg.Grid)
}

// AllocateOn is Allocate with the buffer declared against a different nominal
// grid than the one the mesh was opened with.
func (m *Mesh) AllocateOn(shape, owningGrid grids.Shape) (Buffer, error) {
	return m.allocate(shape, owningGrid)
}

func (m *Mesh) allocate(shape, owningGrid grids.Shape) (Buffer, error) {
	if m.closed {
		return Buffer{}, errors.WithStack(ErrClosed)
	}
	m.allocCount++
	base := (bufferBaseMix * m.allocCount) & bufferBaseMask
	if m.debugEnabled() {
		if owningGrid == m.cfg.Grid {
			klog.Infof("[rank %d] allocating buffer shape=%s (%s) on grid %s",
				m.rank, shape, humanize.IBytes(uint64(shape.Size())), owningGrid)
		} else {
			klog.Infof("[rank %d] allocating buffer shape=%s (%s) with overridden owning grid %s",
				m.rank, shape, humanize.IBytes(uint64(shape.Size())), owningGrid)
		}
	}
	if m.cfg.Validate {
		if err := m.checkLockstep("buffer allocation", base^uint64(shape.X)^uint64(shape.Y)); err != nil {
			return Buffer{}, err
		}
	}
	return Buffer{base: base, shape: shape, owningGrid: owningGrid}, nil
}

// NewWorkload builds a workload descriptor from the command words. Every host
// must call it at the same logical program point with value-identical
// arguments; with validation on, that is enforced by a collective check and
// a mismatch fails with ErrDivergence.
func (m *Mesh) NewWorkload(words []uint64, targetGrid grids.Shape) (*Workload, error) {
	if m.closed {
		return nil, errors.WithStack(ErrClosed)
	}
	if m.debugEnabled() {
		klog.Infof("[rank %d] creating workload of %d command(s) for grid %s", m.rank, len(words), targetGrid)
	}
	if m.cfg.Validate {
		if err := m.checkLockstep("workload", workloadChecksum(words)); err != nil {
			return nil, err
		}
	}
	return &Workload{words: append([]uint64(nil), words...), targetGrid: targetGrid}, nil
}

// FlushPending drains every local device queue in local enumeration order --
// deterministic per host, but not a cross-host ordering contract -- and
// clears it. It stands in for submission to real hardware and touches only
// local state.
func (m *Mesh) FlushPending() {
	for _, d := range m.devices {
		words := d.drain()
		if len(words) > 0 && m.debugEnabled() {
			klog.Infof("[rank %d] flushed %d command(s) from %s", m.rank, len(words), d)
		}
	}
}

// Wait blocks until every host of the group reaches it: the only explicit
// cross-host rendezvous point guaranteed at this call. Collective.
func (m *Mesh) Wait() {
	if m.debugEnabled() {
		klog.Infof("[rank %d] entering wait barrier", m.rank)
	}
	m.coord.Barrier()
	if m.debugEnabled() {
		klog.Infof("[rank %d] wait barrier complete", m.rank)
	}
}

// checkLockstep XOR all-reduces a checksum across the group and fails with
// ErrDivergence if members disagree. The XOR of an odd number of identical
// values is the value itself, so the expected reduction depends on world
// parity.
func (m *Mesh) checkLockstep(what string, sum uint64) error {
	reduced := m.coord.AllReduceXor(sum)
	expected := uint64(0)
	if m.world%2 == 1 {
		expected = sum
	}
	if reduced != expected {
		return errors.Wrapf(ErrDivergence,
			"building %s (local checksum 0x%016x, group reduction 0x%016x)", what, sum, reduced)
	}
	if m.debugEnabled() {
		klog.Infof("[rank %d] validation: %s consistent across %d host(s)", m.rank, what, m.world)
	}
	return nil
}

func (m *Mesh) debugEnabled() bool { return m.cfg.Debug.Enabled(m.rank) }
