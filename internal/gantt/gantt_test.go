package gantt

import (
	"strings"
	"testing"

	"github.com/huier-git/drillplan/internal/task"
)

func TestRenderSingleCellTaskShowsEndState(t *testing.T) {
	r := &Rig{
		Makespan: 3,
		Occupants: map[task.DOF][]Occupant{
			task.Fz: {{Name: "F1", DOF: task.Fz, Start: 1, End: 2, StartState: "A", EndState: "B", OpType: task.Move}},
		},
	}
	out := Render(r, 1)
	if !strings.Contains(out, "B") {
		t.Fatalf("expected end state B to appear in output:\n%s", out)
	}
}

func TestRenderMultiCellMoveUsesHashForMiddle(t *testing.T) {
	r := &Rig{
		Makespan: 4,
		Occupants: map[task.DOF][]Occupant{
			task.Fz: {{Name: "F1", DOF: task.Fz, Start: 0, End: 4, StartState: "A", EndState: "H", OpType: task.Move}},
		},
	}
	out := Render(r, 1)
	lines := strings.Split(out, "\n")
	var stateLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "Fz") && strings.Contains(l, "state") {
			stateLine = l
		}
	}
	if stateLine == "" {
		t.Fatal("missing Fz state row")
	}
	if !strings.Contains(stateLine, "A##H") {
		t.Fatalf("expected state row to read A##H for a 4-col move, got %q", stateLine)
	}
}

func TestRenderSpinUsesMidStateForMiddleCells(t *testing.T) {
	r := &Rig{
		Makespan: 3,
		Occupants: map[task.DOF][]Occupant{
			task.Pr: {{Name: "P1", DOF: task.Pr, Start: 0, End: 3, StartState: "B", EndState: "B", MidState: "B", OpType: task.Spin}},
		},
	}
	out := Render(r, 1)
	if !strings.Contains(out, "BBB") {
		t.Fatalf("expected spin state row BBB, got:\n%s", out)
	}
}

func TestRenderInsertsStageCutBar(t *testing.T) {
	r := &Rig{
		Makespan:  4,
		StageCuts: []int{2},
		Occupants: map[task.DOF][]Occupant{
			task.Fz: {{Name: "F1", DOF: task.Fz, Start: 0, End: 4, StartState: "A", EndState: "H", OpType: task.Move}},
		},
	}
	out := Render(r, 1)
	if !strings.Contains(out, "|") {
		t.Fatalf("expected a stage-boundary bar in output:\n%s", out)
	}
}

func TestRenderZoomScalesColumnCount(t *testing.T) {
	r := &Rig{
		Makespan: 2,
		Occupants: map[task.DOF][]Occupant{
			task.Fz: {{Name: "F1", DOF: task.Fz, Start: 0, End: 2, StartState: "A", EndState: "B", OpType: task.Move}},
		},
	}
	out1 := Render(r, 1)
	out3 := Render(r, 3)
	if len(out3) <= len(out1) {
		t.Fatalf("zoom=3 output should be longer than zoom=1 output")
	}
}
