// Package coordinator defines the coordination capability set consumed by the
// mesh runtime: rank and world-size queries, a group barrier, and a 64-bit
// XOR all-reduce, plus idempotent init/finalize hooks.
//
// None of the mesh runtime is transport specific: any substrate offering
// these five operations suffices. Implementations register themselves with
// Register, typically from their package init, and are selected by New /
// NewWithConfig -- mirroring how pluggable substrates are usually wired up.
//
// Two implementations ship with this module: coordinator/single (a group of
// one) and coordinator/inprocess (N SPMD members as goroutines of a single
// process, used by tests and demos).
package coordinator

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Coordinator is the capability set one group member uses to coordinate with
// the rest of its group.
//
// Barrier and AllReduceXor are collective: they block until every member of
// the group has entered the same call. There is no cancellation or timeout;
// a member that never reaches a pending collective hangs the whole group.
type Coordinator interface {
	// Init prepares the member for collective calls. It is idempotent.
	Init() error

	// Finalize releases the member's coordination resources. It is
	// idempotent; no collective call may follow it.
	Finalize()

	// Rank returns this member's index within the group, in [0, WorldSize).
	// Constant for the member's lifetime.
	Rank() int

	// WorldSize returns the number of members in the group.
	WorldSize() int

	// Barrier blocks until every member of the group has entered it.
	Barrier()

	// AllReduceXor contributes v to a group-wide XOR reduction and returns
	// the XOR of every member's contribution. Collective.
	AllReduceXor(v uint64) uint64
}

// Aborter is an optional capability: coordinators that can take down the
// whole group implement it, and entry points type-assert for it when a fatal
// error must not leave survivors blocked on the next collective.
type Aborter interface {
	// Abort terminates every member of the group with the given status code.
	Abort(code int)
}

// Constructor takes a config string (possibly empty) and returns a ready
// Coordinator.
type Constructor func(config string) (Coordinator, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a coordinator implementation under the given name.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the coordinator configuration to use if none is given by
// the environment. See NewWithConfig for the format.
var DefaultConfig string

// HOSTMESH_COORDINATOR is the environment variable with the default
// coordinator configuration, formatted as "<name>:<config>" -- "<name>" is a
// registered coordinator and "<config>" is implementation specific.
const HOSTMESH_COORDINATOR = "HOSTMESH_COORDINATOR"

// New returns a coordinator built from the default configuration:
//
// 1. The environment variable HOSTMESH_COORDINATOR, if set.
// 2. The variable DefaultConfig, if not empty.
// 3. The first registered implementation, with an empty configuration.
//
// It returns an error if no implementation was registered.
func New() (Coordinator, error) {
	if config, found := os.LookupEnv(HOSTMESH_COORDINATOR); found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig builds a coordinator from a "<name>:<config>" string. An
// empty name selects the first registered implementation.
func NewWithConfig(config string) (Coordinator, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.New(
			`no registered coordinators -- import one, e.g. _ "github.com/gomlx/hostmesh/coordinator/single"`)
	}
	name := firstRegistered
	implConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		name = config[:idx]
		implConfig = config[idx+1:]
	}
	constructor, found := registeredConstructors[name]
	if !found {
		return nil, errors.Errorf("coordinator %q not registered (configuration %q)", name, config)
	}
	return constructor(implConfig)
}
