// Package cpsat is the CP-SAT Solver Binding of spec.md §4.4: it takes a
// fully-assembled task.Catalogue, posts the per-DOF NoOverlap constraints
// the catalogue itself never posts (it only knows the full interval list
// once every stage has been built), wires a makespan objective variable,
// and drives internal/solver's branch-and-bound to minimize it.
package cpsat

import (
	"context"
	"fmt"

	"github.com/huier-git/drillplan/internal/schedule"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// ErrInfeasible is returned when the solver proves no schedule satisfies
// every posted constraint. Per spec.md §7, this is surfaced as a clean,
// single-line message, never a panic: "this is treated as a model-
// construction bug, not a user error" — but the bug, if any, lives in the
// stage templates, and the caller here just needs to say so and stop.
var ErrInfeasible = fmt.Errorf("cpsat: %w", solver.ErrInfeasible)

// Solve posts NoOverlap(starts, durations) for every DOF's interval list,
// builds a makespan variable constrained >= every task's End, and
// minimizes it. stageCuts are the stage-boundary end-variables collected
// during stage composition (spec.md §4.3); their solved values become
// schedule.Schedule.StageCuts, used for Gantt separators and the JSON
// envelope. Returns the solved Schedule and the solver's Status.
func Solve(ctx context.Context, cat *task.Catalogue, stageCuts []*solver.IntVar) (*schedule.Schedule, solver.Status, error) {
	model := cat.Model()

	for _, d := range task.Order {
		tasks := cat.ByDOF(d)
		if len(tasks) < 2 {
			continue
		}
		starts := make([]*solver.IntVar, len(tasks))
		durs := make([]int, len(tasks))
		for i, t := range tasks {
			starts[i] = t.Start
			durs[i] = t.Duration
		}
		noov, err := solver.NewNoOverlap(starts, durs)
		if err != nil {
			return nil, solver.StatusInfeasible, fmt.Errorf("cpsat: building NoOverlap for DOF %s: %w", d, err)
		}
		model.AddConstraint(noov)
	}

	allTasks := cat.Tasks()
	if len(allTasks) == 0 {
		return nil, solver.StatusInfeasible, fmt.Errorf("cpsat: catalogue has no tasks")
	}
	makespan := model.NewIntVar(0, model.Horizon(), "makespan")
	for _, t := range allTasks {
		model.AddConstraint(solver.NewAtLeast(makespan, t.End, 0))
	}

	s := solver.NewSolver(model)
	status, values, objVal, err := s.Minimize(ctx, makespan)
	if err != nil {
		return nil, status, fmt.Errorf("cpsat: solve: %w", err)
	}
	if status == solver.StatusInfeasible {
		return nil, status, ErrInfeasible
	}

	sched := &schedule.Schedule{Makespan: objVal, SerialDuration: cat.SerialDuration()}
	for _, t := range allTasks {
		sched.Intervals = append(sched.Intervals, schedule.Interval{
			Name:       t.Name,
			DOF:        t.DOF,
			Start:      solver.Value(values, t.Start),
			End:        solver.Value(values, t.End),
			Duration:   t.Duration,
			StartState: t.StartState,
			EndState:   t.EndState,
			MidState:   t.MidState,
			OpType:     t.OpType,
		})
	}
	for _, cut := range stageCuts {
		sched.StageCuts = append(sched.StageCuts, solver.Value(values, cut))
	}
	return sched, status, nil
}
