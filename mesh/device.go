package mesh

import (
	"fmt"
	"slices"

	"github.com/gomlx/hostmesh/types/grids"
)

// Device is one grid node owned by this host. Devices are created when the
// mesh context opens and live for its lifetime.
type Device struct {
	// Global is the device's position in the full grid. It always falls
	// inside the host's submesh.
	Global grids.Coord

	// Local is the device's position within the host submesh, in
	// [0,sub.X)x[0,sub.Y). The local-to-global mapping is a bijection:
	// global = submesh origin + local.
	Local grids.Coord

	// queue is the device's command buffer: opaque 64-bit command words,
	// appended by dispatch and drained by flush. Exclusively owned by this
	// device; never touched by other hosts.
	queue []uint64
}

// QueueLen returns the number of command words pending on the device.
func (d *Device) QueueLen() int { return len(d.queue) }

// Queued returns a copy of the pending command words, in dispatch order.
func (d *Device) Queued() []uint64 { return slices.Clone(d.queue) }

// String implements fmt.Stringer.
func (d *Device) String() string {
	return fmt.Sprintf("device @ global %s / local %s", d.Global, d.Local)
}

func (d *Device) append(words []uint64) {
	d.queue = append(d.queue, words...)
}

// drain returns the pending words and clears the queue.
func (d *Device) drain() []uint64 {
	words := d.queue
	d.queue = nil
	return words
}
