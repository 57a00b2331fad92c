package mesh

import (
	"fmt"

	"github.com/gomlx/hostmesh/types/grids"
)

const (
	// bufferBaseMix scales the per-context allocation counter into a base
	// offset (Fibonacci hashing constant).
	bufferBaseMix = 0x9e3779b97f4a7c15

	// bufferBaseMask keeps base offsets within 47 bits.
	bufferBaseMask = 0x7fffffffffff
)

// Buffer describes one allocation on the grid. It is a symmetric value:
// every host making the same sequence of allocation calls ends up with the
// same Buffer, which validation checks after the fact.
type Buffer struct {
	base       uint64
	shape      grids.Shape
	owningGrid grids.Shape
}

// Base returns the buffer's base offset. It is derived from a per-context
// monotonic counter, so it is a per-host-local label: hosts in lockstep agree
// on it, but it is not a globally addressable value.
func (b Buffer) Base() uint64 { return b.base }

// Shape returns the allocated shape.
func (b Buffer) Shape() grids.Shape { return b.shape }

// OwningGrid returns the nominal grid the buffer was declared against. It
// defaults to the grid the context was opened with but may be overridden (see
// Mesh.AllocateOn); both values are retained for downstream interpretation.
func (b Buffer) OwningGrid() grids.Shape { return b.owningGrid }

// Bytes returns the buffer's storage footprint.
func (b Buffer) Bytes() int { return b.shape.Size() }

// String implements fmt.Stringer.
func (b Buffer) String() string {
	return fmt.Sprintf("buffer base=0x%012x shape=%s grid=%s", b.base, b.shape, b.owningGrid)
}

// HostView returns a host-local staging view of the buffer, sized as the
// buffer's bytes equally divided across the world. It is a placeholder for
// host-side staging buffers and is not exercised by the core runtime.
func (b Buffer) HostView(world int) HostView {
	return HostView{data: make([]byte, b.Bytes()/world)}
}

// HostView is one host's staging slab for a Buffer.
type HostView struct {
	data []byte
}

// Bytes returns the backing slab.
func (v HostView) Bytes() []byte { return v.data }

// Size returns the slab size in bytes.
func (v HostView) Size() int { return len(v.data) }
