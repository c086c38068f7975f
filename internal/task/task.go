// Package task implements the Task Catalogue & Constraint Recorder
// (spec.md §4.2): the domain records for atomic tasks, keyed by DOF, plus
// the precedence/synchronization/safety-delay edges recorded over them.
// Each add_task call allocates its Start/End solver variables immediately
// (§4.2's contract), so this package is coupled to internal/solver rather
// than staying solver-agnostic — that coupling is the spec's own design,
// not an accident of this port.
package task

import "github.com/huier-git/drillplan/internal/solver"

// DOF identifies one of the rig's eight independent mechanical axes.
// spec.md §3 fixes both the set and the rendering/variable-creation order.
type DOF string

const (
	Fz DOF = "Fz" // feed axis
	Sr DOF = "Sr" // pipe carousel
	Me DOF = "Me" // manipulator arm
	Mg DOF = "Mg" // manipulator gripper
	Mr DOF = "Mr" // manipulator rail
	Dh DOF = "Dh" // upper clamp
	Pr DOF = "Pr" // power head spin
	Cb DOF = "Cb" // lower clamp
)

// Order is the fixed, ordered set of DOFs from spec.md §3, also used by
// original_source/serial.py's DOFS list. Every rendering and per-resource
// pass iterates in this order.
var Order = []DOF{Fz, Sr, Me, Mg, Mr, Dh, Pr, Cb}

// OpType is the closed tagged variant from spec.md §3: move transitions
// between two symbolic states; spin and hold both keep the DOF at
// mid_state for the task's duration and differ only in how a renderer
// might choose to label them (spec.md §4.6 draws them identically).
type OpType int

const (
	Move OpType = iota
	Spin
	Hold
)

func (o OpType) String() string {
	switch o {
	case Move:
		return "move"
	case Spin:
		return "spin"
	case Hold:
		return "hold"
	default:
		return "?"
	}
}

// Task is an atomic operation: one DOF occupied for Duration seconds,
// transitioning from StartState to EndState. Tasks are created once during
// stage assembly and never mutated (spec.md §3 Lifecycle).
type Task struct {
	Name            string
	DOF             DOF
	Duration        int
	StartState      string
	MidState        string
	EndState        string
	OpType          OpType
	IsSyncDuplicate bool

	// Start and End are the solver handles allocated at creation. They are
	// only meaningful while the Catalogue's owning Solver is mid-solve
	// (spec.md §9's "ownership of solver handles" note).
	Start *solver.IntVar
	End   *solver.IntVar
}
