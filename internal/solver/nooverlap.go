package solver

import (
	"fmt"

	mk "github.com/huier-git/drillplan/pkg/minikanren"
)

// NoOverlap enforces that a set of fixed-duration intervals on a single
// resource never run concurrently — the per-DOF mutex of spec.md §3,
// invariant 1. This is the library's own NewNoOverlap (nooverlap.go), which
// models disjunctive scheduling as Cumulative with capacity 1 and unit
// demands, propagated by time-table filtering over compulsory parts
// (cumulative.go) — not a pairwise earliest-completion/latest-start check.
type NoOverlap struct {
	starts     []*IntVar
	durs       []int
	constraint mk.ModelConstraint
}

// NewNoOverlap builds a NoOverlap constraint over starts/durs (len n,
// n == len(durs), every duration > 0).
func NewNoOverlap(starts []*IntVar, durs []int) (*NoOverlap, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("NoOverlap: requires at least one task")
	}
	if len(starts) != len(durs) {
		return nil, fmt.Errorf("NoOverlap: mismatched lengths (starts=%d, durs=%d)", len(starts), len(durs))
	}
	for _, d := range durs {
		if d <= 0 {
			return nil, fmt.Errorf("NoOverlap: durations must be positive, got %d", d)
		}
	}

	fds := make([]*mk.FDVariable, len(starts))
	for i, v := range starts {
		fds[i] = v.fd
	}
	c, err := mk.NewNoOverlap(fds, durs)
	if err != nil {
		return nil, fmt.Errorf("NoOverlap: %w", err)
	}
	return &NoOverlap{starts: starts, durs: durs, constraint: c}, nil
}

func (c *NoOverlap) posts() []mk.ModelConstraint { return []mk.ModelConstraint{c.constraint} }
func (c *NoOverlap) String() string              { return fmt.Sprintf("NoOverlap(%d tasks)", len(c.starts)) }
