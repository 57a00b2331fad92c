package mesh

import (
	"k8s.io/klog/v2"
)

// DeviceAppender is the capability a DispatchQueue needs from its owner:
// enough to fan command words out to the locally owned device queues, and
// nothing else.
type DeviceAppender interface {
	// NumDevices returns how many local devices can be appended to.
	NumDevices() int

	// AppendCommands appends words, in order, to the queue of the local
	// device at index i, 0 <= i < NumDevices().
	AppendCommands(i int, words []uint64)
}

// DispatchQueue turns one symmetric global workload submission into per-device
// local command buffers. It only ever touches already-local state: no network
// I/O is involved.
type DispatchQueue struct {
	sink  DeviceAppender
	debug Debug
	rank  int
}

// NewDispatchQueue returns a dispatch queue writing through the given
// appender. The debug policy and rank gate its diagnostics.
func NewDispatchQueue(sink DeviceAppender, debug Debug, rank int) *DispatchQueue {
	return &DispatchQueue{sink: sink, debug: debug, rank: rank}
}

// Push appends every command word of the workload, in order, to the queue of
// every local device -- broadcast semantics, no per-device filtering. Pushing
// a workload with no words is a no-op.
func (q *DispatchQueue) Push(wl *Workload) {
	if wl.NumWords() == 0 {
		return
	}
	n := q.sink.NumDevices()
	if q.debug.Enabled(q.rank) {
		klog.Infof("[rank %d] dispatch: %d command(s) to %d local device(s)", q.rank, wl.NumWords(), n)
	}
	for i := 0; i < n; i++ {
		q.sink.AppendCommands(i, wl.words)
	}
}
