package solver

import (
	"fmt"

	mk "github.com/huier-git/drillplan/pkg/minikanren"
)

// Offset posts dst = src + delta, via the library's Arithmetic constraint
// (propagation.go), which propagates the relation bidirectionally. Used to
// tie an interval's End variable to its Start plus fixed duration.
type Offset struct {
	src, dst *IntVar
	delta    int
	arith    mk.ModelConstraint
}

// NewOffset builds dst = src + delta. Panics if src or dst is nil, which
// would mean a bug in this package (every IntVar comes from Model.NewIntVar).
func NewOffset(src, dst *IntVar, delta int) *Offset {
	arith, err := mk.NewArithmetic(src.fd, dst.fd, delta)
	if err != nil {
		panic(fmt.Sprintf("solver: NewOffset: %v", err))
	}
	return &Offset{src, dst, delta, arith}
}

func (c *Offset) posts() []mk.ModelConstraint { return []mk.ModelConstraint{c.arith} }
func (c *Offset) String() string              { return fmt.Sprintf("%s = %s + %d", c.dst.name, c.src.name, c.delta) }

// AtLeast posts lhs >= rhs + delta (delta may be 0 or positive; this package
// never needs a negative delta). delta == 0 maps straight onto the library's
// Inequality(GreaterEqual) (propagation.go); a non-zero delta first builds an
// auxiliary variable aux = rhs + delta via Arithmetic, then posts
// lhs >= aux — the standard CP modeling technique of composing two global
// constraints to express a shifted inequality, the same technique the
// library's own NoOverlap uses to compose itself from Cumulative.
type AtLeast struct {
	lhs, rhs *IntVar
	delta    int
	posted   []mk.ModelConstraint
}

// NewAtLeast builds lhs >= rhs + delta. Used for precedence (end(u) <=
// start(v) becomes start(v) >= end(u) + 0) and safety delays
// (start(dependent) >= start(trigger) + d).
func NewAtLeast(lhs, rhs *IntVar, delta int) *AtLeast {
	if delta == 0 {
		ineq, err := mk.NewInequality(lhs.fd, rhs.fd, mk.GreaterEqual)
		if err != nil {
			panic(fmt.Sprintf("solver: NewAtLeast: %v", err))
		}
		return &AtLeast{lhs, rhs, delta, []mk.ModelConstraint{ineq}}
	}

	auxMax := rhs.fd.Domain().MaxValue() + delta
	if auxMax < 1 {
		auxMax = 1
	}
	aux := rhs.owner.NewVariableWithName(mk.NewBitSetDomain(auxMax), fmt.Sprintf("%s+%d", rhs.name, delta))
	arith, err := mk.NewArithmetic(rhs.fd, aux, delta)
	if err != nil {
		panic(fmt.Sprintf("solver: NewAtLeast: %v", err))
	}
	ineq, err := mk.NewInequality(lhs.fd, aux, mk.GreaterEqual)
	if err != nil {
		panic(fmt.Sprintf("solver: NewAtLeast: %v", err))
	}
	return &AtLeast{lhs, rhs, delta, []mk.ModelConstraint{arith, ineq}}
}

func (c *AtLeast) posts() []mk.ModelConstraint { return c.posted }
func (c *AtLeast) String() string {
	return fmt.Sprintf("%s >= %s + %d", c.lhs.name, c.rhs.name, c.delta)
}

// Equal posts a == b as Arithmetic(a, b, 0) — the library's Arithmetic
// constraint is bidirectional, so an offset of 0 is exactly equality. Used
// for synchronization pairs: start(u) = start(v) and end(u) = end(v).
type Equal struct {
	a, b  *IntVar
	arith mk.ModelConstraint
}

// NewEqual builds a == b.
func NewEqual(a, b *IntVar) *Equal {
	arith, err := mk.NewArithmetic(a.fd, b.fd, 0)
	if err != nil {
		panic(fmt.Sprintf("solver: NewEqual: %v", err))
	}
	return &Equal{a, b, arith}
}

func (c *Equal) posts() []mk.ModelConstraint { return []mk.ModelConstraint{c.arith} }
func (c *Equal) String() string              { return fmt.Sprintf("%s == %s", c.a.name, c.b.name) }
