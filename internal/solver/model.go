// Package solver is the CP-SAT-style binding between the drilling domain and
// the teacher library's finite-domain solver (pkg/minikanren): Model and
// IntVar are thin facades over minikanren.Model and minikanren.FDVariable,
// and every constraint constructor below (Offset, AtLeast, Equal, NoOverlap)
// posts real minikanren ModelConstraints — Arithmetic, Inequality, and
// Cumulative-backed NoOverlap (model.go, propagation.go, nooverlap.go,
// cumulative.go) — rather than reimplementing their propagation. Search and
// makespan minimization are minikanren.Solver.SolveOptimal (optimize.go),
// not a hand-rolled branch-and-bound. This package's only job is domain
// translation: drilling-cycle interval variables in, a fixed-point CSP
// posted against the library's real API out.
package solver

import (
	mk "github.com/huier-git/drillplan/pkg/minikanren"
)

// Model is a CSP over drilling-cycle interval variables, backed by a real
// minikanren.Model. horizon is the inclusive upper bound every interval
// variable's end time is capped at (spec.md §9 treats it as a model-
// construction constant, not a contract).
type Model struct {
	m       *mk.Model
	horizon int
}

// NewModel creates an empty model with the given horizon.
func NewModel(horizon int) *Model {
	return &Model{m: mk.NewModel(), horizon: horizon}
}

// Horizon returns the configured planning horizon.
func (m *Model) Horizon() int { return m.horizon }

// NewIntVar allocates a fresh bounds variable in [lo, hi] and registers it.
// The underlying FDVariable gets the library's 1-indexed domain [lo+1,
// hi+1]; IntVar and Value() are the only things that know about the shift.
func (m *Model) NewIntVar(lo, hi int, name string) *IntVar {
	dom := mk.NewBitSetDomain(hi + 1).RemoveBelow(lo + 1)
	fd := m.m.NewVariableWithName(dom, name)
	return &IntVar{fd: fd, name: name, owner: m.m}
}

// AddConstraint posts a constraint into the model. Constraints are posted
// eagerly (spec.md §4.2): the real minikanren.ModelConstraint(s) backing c
// were already built at construction time, so this is just registration.
func (m *Model) AddConstraint(c Constraint) {
	for _, mc := range c.posts() {
		m.m.AddConstraint(mc)
	}
}

// NumVars reports how many variables have been allocated.
func (m *Model) NumVars() int { return m.m.VariableCount() }

// Constraint is satisfied by every constraint constructor in this package
// (Offset, AtLeast, Equal, NoOverlap). posts returns the real
// minikanren.ModelConstraint(s) AddConstraint should register — some
// constraints (AtLeast with a non-zero delta) expand to more than one,
// wiring an auxiliary FDVariable through Arithmetic into an Inequality.
type Constraint interface {
	posts() []mk.ModelConstraint
	String() string
}
