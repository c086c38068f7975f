package cpsat

import (
	"context"
	"testing"

	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

func TestSolveRespectsPrecedenceAndNoOverlap(t *testing.T) {
	cat := task.New(200)
	cat.AddTask("F1", task.Fz, 5, "A", "B")
	cat.AddTask("F2", task.Fz, 3, "B", "C")
	cat.AddPrecedence("F1", "F2")

	sched, status, err := Solve(context.Background(), cat, nil)
	if err != nil {
		t.Fatalf("Solve error: %v", err)
	}
	if status != solver.StatusOptimal {
		t.Fatalf("status = %v, want OPTIMAL", status)
	}
	if sched.Makespan != 8 {
		t.Fatalf("makespan = %d, want 8", sched.Makespan)
	}
	var f1, f2 *struct{ Start, End int }
	for _, iv := range sched.Intervals {
		if iv.Name == "F1" {
			f1 = &struct{ Start, End int }{iv.Start, iv.End}
		}
		if iv.Name == "F2" {
			f2 = &struct{ Start, End int }{iv.Start, iv.End}
		}
	}
	if f1 == nil || f2 == nil {
		t.Fatalf("missing intervals in result")
	}
	if f2.Start < f1.End {
		t.Fatalf("F2 starts at %d before F1 ends at %d", f2.Start, f1.End)
	}
}

func TestSolveParallelDOFsOverlapFreely(t *testing.T) {
	cat := task.New(200)
	cat.AddTask("F1", task.Fz, 5, "A", "B")
	cat.AddTask("P1", task.Pr, 5, "A", "B")

	sched, status, err := Solve(context.Background(), cat, nil)
	if err != nil {
		t.Fatalf("Solve error: %v", err)
	}
	if status != solver.StatusOptimal {
		t.Fatalf("status = %v, want OPTIMAL", status)
	}
	if sched.Makespan != 5 {
		t.Fatalf("makespan = %d, want 5 (independent DOFs run concurrently)", sched.Makespan)
	}
}

func TestSolveInfeasibleHorizonReportsCleanly(t *testing.T) {
	cat := task.New(3)
	cat.AddTask("F1", task.Fz, 5, "A", "B")

	_, status, err := Solve(context.Background(), cat, nil)
	if status != solver.StatusInfeasible || err == nil {
		t.Fatalf("expected INFEASIBLE with error, got status=%v err=%v", status, err)
	}
}
