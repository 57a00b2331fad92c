package mesh

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// DebugMode selects which ranks emit diagnostic output.
type DebugMode int

//go:generate go tool enumer -type=DebugMode -trimprefix=Debug -transform=lower -output=gen_debugmode_enumer.go debug.go

const (
	// DebugNone suppresses diagnostics on every rank.
	DebugNone DebugMode = iota

	// DebugAll emits diagnostics on every rank.
	DebugAll

	// DebugRank emits diagnostics only on the target rank.
	DebugRank
)

// Debug is the print-filter policy of a mesh context. It is carried as a
// Config field rather than a mutable process global, so independent mesh
// instances can coexist under test.
//
// Debug state affects only diagnostic output, never correctness.
type Debug struct {
	Mode DebugMode

	// Target is the rank that prints when Mode is DebugRank; ignored
	// otherwise.
	Target int
}

// Enabled returns whether the given rank should emit diagnostics. It is a
// pure function of the policy and the rank.
func (d Debug) Enabled(rank int) bool {
	switch d.Mode {
	case DebugAll:
		return true
	case DebugRank:
		return rank == d.Target
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (d Debug) String() string {
	if d.Mode == DebugRank {
		return fmt.Sprintf("rank %d", d.Target)
	}
	return d.Mode.String()
}

// ParseDebug parses a debug policy from "none", "all" or a non-negative rank
// id, the values accepted by the --debug command-line flag.
func ParseDebug(s string) (Debug, error) {
	if mode, err := DebugModeString(s); err == nil && mode != DebugRank {
		return Debug{Mode: mode}, nil
	}
	target, err := strconv.Atoi(s)
	if err != nil || target < 0 {
		return Debug{}, errors.Errorf("invalid debug policy %q: want \"none\", \"all\" or a non-negative rank id", s)
	}
	return Debug{Mode: DebugRank, Target: target}, nil
}
