package solver

import (
	"context"
	"errors"
	"fmt"

	mk "github.com/huier-git/drillplan/pkg/minikanren"
)

// Status mirrors the three outcomes spec.md §4.4/§7 names for a solve
// call: OPTIMAL, FEASIBLE (search ran out of time before proving
// optimality), and INFEASIBLE.
type Status int

const (
	StatusInfeasible Status = iota
	StatusOptimal
	StatusFeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	default:
		return "INFEASIBLE"
	}
}

// Solver wraps a Model with the library's real branch-and-bound search
// (minikanren.Solver, optimize.go). One Solver is used for exactly one
// solve call; its variable handles become meaningless once that call
// returns (spec.md §9's "ownership of solver handles" note).
type Solver struct {
	model *Model
	s     *mk.Solver
}

// NewSolver binds a solver to a model.
func NewSolver(m *Model) *Solver { return &Solver{model: m, s: mk.NewSolver(m.m)} }

// Minimize runs minikanren's SolveOptimal minimizing obj, an IntVar already
// wired into the model (typically the makespan variable: max of every
// task's end). It returns the best solution found as a value-per-variable
// map keyed by IntVar.ID(), alongside obj's value and a Status.
//
// On INFEASIBLE, the value map is nil. If ctx is cancelled mid-search, the
// best incumbent found so far is returned with Status FEASIBLE (§4.4:
// "Timeout produces the best feasible solution found").
func (s *Solver) Minimize(ctx context.Context, obj *IntVar) (Status, map[int]int, int, error) {
	sol, val, err := s.s.SolveOptimal(ctx, obj.fd, true)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if sol == nil {
				return StatusInfeasible, nil, 0, nil
			}
			return StatusFeasible, snapshot(sol), val, nil
		}
		return StatusInfeasible, nil, 0, fmt.Errorf("solver: %w", err)
	}
	if sol == nil {
		return StatusInfeasible, nil, 0, nil
	}
	return StatusOptimal, snapshot(sol), val, nil
}

// Solve finds any single feasible assignment without optimizing an
// objective — used by callers that only care about satisfiability (e.g.
// the single-constraint tests of this package). A found assignment is
// reported as StatusOptimal.
func (s *Solver) Solve(ctx context.Context) (Status, map[int]int, error) {
	sols, err := s.s.Solve(ctx, 1)
	if len(sols) > 0 {
		return StatusOptimal, snapshot(sols[0]), nil
	}
	if err != nil {
		return StatusInfeasible, nil, fmt.Errorf("solver: %w", err)
	}
	return StatusInfeasible, nil, nil
}

// snapshot converts a minikanren solution (one 1-indexed value per
// variable, in model order) into a map keyed by IntVar.ID(), undoing the
// domain package's +1 shift back to real-world time.
func snapshot(sol []int) map[int]int {
	out := make(map[int]int, len(sol))
	for id, v := range sol {
		out[id] = v - 1
	}
	return out
}

// Value looks up a solved variable's value from a solution map, panicking
// with a descriptive message if the variable is absent — a programming
// bug (the variable belongs to a different model), never a user error.
func Value(sol map[int]int, v *IntVar) int {
	val, ok := sol[v.ID()]
	if !ok {
		panic(fmt.Sprintf("solver: variable %s not present in this solution", v.name))
	}
	return val
}
