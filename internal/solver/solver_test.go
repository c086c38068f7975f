package solver

import (
	"context"
	"testing"
)

func TestOffsetPropagatesBothWays(t *testing.T) {
	m := NewModel(100)
	src := m.NewIntVar(0, 10, "src")
	dst := m.NewIntVar(0, 100, "dst")
	m.AddConstraint(NewOffset(src, dst, 5))

	s := NewSolver(m)
	status, sol, err := s.Solve(context.Background())
	if err != nil || status != StatusOptimal {
		t.Fatalf("Solve failed: status=%v err=%v", status, err)
	}
	if Value(sol, dst) != Value(sol, src)+5 {
		t.Fatalf("dst = %d, src = %d, want dst == src+5", Value(sol, dst), Value(sol, src))
	}
}

func TestAtLeastEnforcesDelay(t *testing.T) {
	m := NewModel(100)
	trigger := m.NewIntVar(8, 8, "trigger")
	dependent := m.NewIntVar(0, 20, "dependent")
	m.AddConstraint(NewAtLeast(dependent, trigger, 6))

	s := NewSolver(m)
	status, sol, err := s.Solve(context.Background())
	if err != nil || status != StatusOptimal {
		t.Fatalf("Solve failed: status=%v err=%v", status, err)
	}
	if Value(sol, dependent) < 14 {
		t.Fatalf("dependent = %d, want >= 14", Value(sol, dependent))
	}
}

func TestEqualBindsBothVariables(t *testing.T) {
	m := NewModel(100)
	a := m.NewIntVar(0, 50, "a")
	b := m.NewIntVar(10, 10, "b")
	m.AddConstraint(NewEqual(a, b))

	s := NewSolver(m)
	status, sol, err := s.Solve(context.Background())
	if err != nil || status != StatusOptimal {
		t.Fatalf("Solve failed: status=%v err=%v", status, err)
	}
	if Value(sol, a) != 10 {
		t.Fatalf("a = %d, want 10 (== b)", Value(sol, a))
	}
}

func TestNoOverlapForcesDisjointOrder(t *testing.T) {
	m := NewModel(100)
	a := m.NewIntVar(2, 2, "a")
	b := m.NewIntVar(0, 10, "b")
	noov, err := NewNoOverlap([]*IntVar{a, b}, []int{3, 3})
	if err != nil {
		t.Fatalf("NewNoOverlap: %v", err)
	}
	m.AddConstraint(noov)

	s := NewSolver(m)
	status, sol, err := s.Solve(context.Background())
	if err != nil || status != StatusOptimal {
		t.Fatalf("Solve failed: status=%v err=%v", status, err)
	}
	// a occupies [2,5); b's domain floor is 0, so the only way to avoid
	// overlap is to start at or after 5.
	if Value(sol, b) < 5 {
		t.Fatalf("b = %d overlaps a=[2,5)", Value(sol, b))
	}
}

func TestNoOverlapConstructorValidation(t *testing.T) {
	if _, err := NewNoOverlap(nil, nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	m := NewModel(10)
	v := m.NewIntVar(0, 5, "v")
	if _, err := NewNoOverlap([]*IntVar{v}, []int{0}); err == nil {
		t.Fatalf("expected error for non-positive duration")
	}
}

func TestMinimizeFindsOptimalMakespan(t *testing.T) {
	// Two tasks on one resource, durations 3 and 4: optimal makespan is 7,
	// achieved regardless of which task runs first.
	m := NewModel(50)
	s1 := m.NewIntVar(0, 50, "s1")
	s2 := m.NewIntVar(0, 50, "s2")
	e1 := m.NewIntVar(0, 50, "e1")
	e2 := m.NewIntVar(0, 50, "e2")
	m.AddConstraint(NewOffset(s1, e1, 3))
	m.AddConstraint(NewOffset(s2, e2, 4))
	noov, _ := NewNoOverlap([]*IntVar{s1, s2}, []int{3, 4})
	m.AddConstraint(noov)

	makespan := m.NewIntVar(0, 50, "makespan")
	m.AddConstraint(NewAtLeast(makespan, e1, 0))
	m.AddConstraint(NewAtLeast(makespan, e2, 0))

	solver := NewSolver(m)
	status, sol, obj, err := solver.Minimize(context.Background(), makespan)
	if err != nil {
		t.Fatalf("Minimize error: %v", err)
	}
	if status != StatusOptimal {
		t.Fatalf("status = %v, want OPTIMAL", status)
	}
	if obj != 7 {
		t.Fatalf("makespan = %d, want 7", obj)
	}
	if Value(sol, e1) > 7 || Value(sol, e2) > 7 {
		t.Fatalf("solution violates makespan bound: %+v", sol)
	}
}

func TestMinimizeInfeasible(t *testing.T) {
	m := NewModel(3)
	a := m.NewIntVar(0, 0, "a")
	b := m.NewIntVar(0, 0, "b")
	noov, _ := NewNoOverlap([]*IntVar{a, b}, []int{2, 2})
	m.AddConstraint(noov)
	obj := m.NewIntVar(0, 3, "obj")
	m.AddConstraint(NewAtLeast(obj, a, 2))
	m.AddConstraint(NewAtLeast(obj, b, 2))

	solver := NewSolver(m)
	status, sol, _, err := solver.Minimize(context.Background(), obj)
	if err != nil {
		t.Fatalf("Minimize error: %v", err)
	}
	if status != StatusInfeasible || sol != nil {
		t.Fatalf("expected INFEASIBLE with nil solution, got %v %+v", status, sol)
	}
}
