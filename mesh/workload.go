package mesh

import (
	"fmt"
	"slices"

	"github.com/gomlx/hostmesh/types/grids"
)

// workloadChecksumMix is the odd constant mixed into each command word before
// the XOR fold. XOR is commutative, so the checksum compares multisets of
// words, not sequences -- a cheap divergence detector, not an equality proof.
const workloadChecksumMix = 0x9ddfea08eb382d69

// Workload is a symmetric description of work to run on a target grid: an
// ordered list of opaque 64-bit command words. Every host is expected to
// build a value-identical Workload at the same logical program point; with
// validation on, Mesh.NewWorkload enforces that with a collective check.
//
// A Workload is immutable after construction.
type Workload struct {
	words      []uint64
	targetGrid grids.Shape
}

// Words returns a copy of the command words, in order.
func (w *Workload) Words() []uint64 { return slices.Clone(w.words) }

// NumWords returns the number of command words.
func (w *Workload) NumWords() int { return len(w.words) }

// TargetGrid returns the grid shape the workload was built for.
func (w *Workload) TargetGrid() grids.Shape { return w.targetGrid }

// String implements fmt.Stringer.
func (w *Workload) String() string {
	return fmt.Sprintf("workload of %d command(s) for grid %s", len(w.words), w.targetGrid)
}

func workloadChecksum(words []uint64) uint64 {
	var h uint64
	for _, w := range words {
		h ^= w * workloadChecksumMix
	}
	return h
}
