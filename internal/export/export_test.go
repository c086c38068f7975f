package export

import (
	"encoding/json"
	"testing"

	"github.com/huier-git/drillplan/internal/schedule"
	"github.com/huier-git/drillplan/internal/task"
)

func TestBuildSortsTasksByStartThenDOF(t *testing.T) {
	sched := &schedule.Schedule{
		Makespan:       10,
		SerialDuration: 15,
		StageCuts:      []int{10},
		Intervals: []schedule.Interval{
			{Name: "B1", DOF: task.Pr, Start: 2, End: 4},
			{Name: "A1", DOF: task.Fz, Start: 2, End: 5},
			{Name: "C1", DOF: task.Fz, Start: 0, End: 2},
		},
	}
	env := Build("optimized", 1, sched)
	if len(env.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(env.Tasks))
	}
	if env.Tasks[0].Name != "C1" || env.Tasks[1].Name != "A1" || env.Tasks[2].Name != "B1" {
		t.Fatalf("unexpected sort order: %v", []string{env.Tasks[0].Name, env.Tasks[1].Name, env.Tasks[2].Name})
	}
	for i, tk := range env.Tasks {
		if tk.ID != i {
			t.Errorf("task %q has id %d, want %d", tk.Name, tk.ID, i)
		}
	}
}

func TestBuildComputesSavedTime(t *testing.T) {
	sched := &schedule.Schedule{Makespan: 40, SerialDuration: 55}
	env := Build("optimized", 3, sched)
	if env.SavedTime != 15 {
		t.Fatalf("saved_time = %d, want 15", env.SavedTime)
	}
}

func TestMarshalRoundTrips(t *testing.T) {
	sched := &schedule.Schedule{
		Makespan:       5,
		SerialDuration: 5,
		Intervals:      []schedule.Interval{{Name: "X", DOF: task.Fz, Start: 0, End: 5, Duration: 5}},
	}
	env := Build("optimized", 1, sched)
	raw, err := Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Envelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Mode != "optimized" || len(decoded.Tasks) != 1 {
		t.Fatalf("round-trip mismatch: %+v", decoded)
	}
}
