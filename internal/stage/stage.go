// Package stage implements the Stage Templates of spec.md §4.3: pure
// functions that append the tasks and constraints of one stage (A, B(i),
// C(i), D) to a task.Catalogue, parameterized by pipe index and an
// inter-stage anchor token. Grounded on the teacher's own "build a model,
// one constructor call at a time" example style (examples/cumulative-
// demo, examples/tsp-small): each stage here is the scheduling analogue of
// those programs' linear model-construction blocks.
package stage

import (
	"fmt"

	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// Anchor is the stage-boundary "start-not-before" token spec.md §4.3/§9
// calls for: an explicit handle passed from one stage builder to the
// next, rather than implicit mutable state. A zero Anchor behaves as "no
// constraint" (used for Stage A, which has no predecessor).
type Anchor struct{ end *solver.IntVar }

// From wraps a stage's final end-variable as the anchor for the next
// stage.
func From(end *solver.IntVar) Anchor { return Anchor{end: end} }

// applyTo posts start(taskName) >= anchor on the given catalogue.
func (a Anchor) applyTo(cat *task.Catalogue, taskName string) error {
	if a.end == nil {
		return nil
	}
	return cat.AddStartNotBefore(taskName, a.end)
}

// coupleOrBreak posts the primary Fz motion common to every coupling,
// drilling, and breaking step (spec.md §4.3: "coupling, drilling, and
// breaking each consist of a primary Fz motion plus a synchronized Pr
// spin"), plus its Pr sync-duplicate, and optionally a Cb sync-duplicate
// for stages where the lower clamp is free to hold steady through the
// step rather than doing its own release/clamp work (see DESIGN.md for
// which stages set withCb). name is the unique task name to register
// (stage builders that repeat per pipe index fold the index into name);
// key is the duration-table key to look the duration up under.
func coupleOrBreak(cat *task.Catalogue, dt *duration.Table, name, key string, startState, endState, prMid string, withCb bool, cbState string) (string, error) {
	dur := dt.Get(key)
	if _, err := cat.AddTask(name, task.Fz, dur, startState, endState); err != nil {
		return "", err
	}

	prName := name + "_Pr"
	if _, err := cat.AddTask(prName, task.Pr, dur, prMid, prMid, task.WithOpType(task.Spin), task.WithMidState(prMid), task.SyncDuplicate()); err != nil {
		return "", err
	}
	if err := cat.AddSynchronization(name, prName); err != nil {
		return "", err
	}

	if withCb {
		cbName := name + "_Cb"
		if _, err := cat.AddTask(cbName, task.Cb, dur, cbState, cbState, task.WithOpType(task.Hold), task.WithMidState(cbState), task.SyncDuplicate()); err != nil {
			return "", err
		}
		if err := cat.AddSynchronization(name, cbName); err != nil {
			return "", err
		}
	}
	return name, nil
}

// chain posts a plain move task and a precedence edge from the previous
// task in the stage's internal sequence, returning the new task's name so
// callers can keep threading the chain forward. Used for every task that
// is neither a stage anchor point nor part of a coupleOrBreak step. If
// prev is empty, the task is a stage root: anchor is applied to it
// instead of a precedence edge, so every independent chain a stage starts
// is held to the previous stage's end, not just the first one written.
func chain(cat *task.Catalogue, anchor Anchor, prev, name string, dof task.DOF, dur int, startState, endState string) (string, error) {
	if _, err := cat.AddTask(name, dof, dur, startState, endState); err != nil {
		return "", err
	}
	if prev != "" {
		cat.AddPrecedence(prev, name)
	} else if err := anchor.applyTo(cat, name); err != nil {
		return "", err
	}
	return name, nil
}

func namef(prefix, suffix string) string { return fmt.Sprintf("%s_%s", prefix, suffix) }

// indexed builds a pipe-indexed task name, e.g. indexed("B", 2, "FZ_HF")
// -> "B2_FZ_HF".
func indexed(prefix string, i int, suffix string) string {
	return fmt.Sprintf("%s%d_%s", prefix, i, suffix)
}
