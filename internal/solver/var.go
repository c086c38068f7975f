package solver

import (
	mk "github.com/huier-git/drillplan/pkg/minikanren"
)

// IntVar is a bounds-consistent integer decision variable over [0, horizon],
// backed directly by the teacher's FDVariable. The library's BitSetDomain is
// 1-indexed ([1, maxValue]), so every IntVar's domain is allocated one higher
// than its real-world bound and every solved value is shifted back down by
// Value/snapshot — this package is the only place that shift is visible.
type IntVar struct {
	fd    *mk.FDVariable
	name  string
	owner *mk.Model
}

// ID returns the variable's stable index within its owning Model, identical
// to the underlying FDVariable's ID (ID order is also solved-solution order).
func (v *IntVar) ID() int { return v.fd.ID() }

// Name returns the variable's debug name (task name + "_start", "_end", ...).
func (v *IntVar) Name() string { return v.name }

func (v *IntVar) String() string { return v.fd.String() }
