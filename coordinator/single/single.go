// Package single implements the coordinator capability set for a group of
// one: rank 0, world size 1, barriers return immediately and the XOR
// reduction of a single contribution is the contribution itself.
//
// It is the default substrate for running a mesh program as an ordinary
// standalone process.
package single

import (
	"os"

	"github.com/gomlx/hostmesh/coordinator"
)

// Name under which this coordinator registers itself.
const Name = "single"

func init() {
	coordinator.Register(Name, func(_ string) (coordinator.Coordinator, error) {
		return New(), nil
	})
}

// Coordinator implements coordinator.Coordinator for a group of one.
type Coordinator struct {
	initialized bool
}

// Compile-time check of the interfaces implemented.
var (
	_ coordinator.Coordinator = &Coordinator{}
	_ coordinator.Aborter     = &Coordinator{}
)

// New returns a single-member coordinator.
func New() *Coordinator { return &Coordinator{} }

// Init implements coordinator.Coordinator. Idempotent.
func (c *Coordinator) Init() error {
	c.initialized = true
	return nil
}

// Finalize implements coordinator.Coordinator. Idempotent.
func (c *Coordinator) Finalize() {
	c.initialized = false
}

// Initialized reports whether the member is between Init and Finalize.
func (c *Coordinator) Initialized() bool { return c.initialized }

// Rank returns 0, the only member.
func (c *Coordinator) Rank() int { return 0 }

// WorldSize returns 1.
func (c *Coordinator) WorldSize() int { return 1 }

// Barrier returns immediately: the whole group is already here.
func (c *Coordinator) Barrier() {}

// AllReduceXor returns v, the XOR over the group's single contribution.
func (c *Coordinator) AllReduceXor(v uint64) uint64 { return v }

// Abort terminates the process, which is the whole group.
func (c *Coordinator) Abort(code int) { os.Exit(code) }
