package serial

import (
	"testing"

	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/stage"
	"github.com/huier-git/drillplan/internal/task"
)

func TestSimulateTotalMatchesSerialDuration(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	if _, err := stage.Compose(cat, dt, 2); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	tl := Simulate(cat)
	if tl.Total != cat.SerialDuration() {
		t.Fatalf("serial total = %d, want %d (SerialDuration)", tl.Total, cat.SerialDuration())
	}
}

func TestSimulateNeverOverlapsWithinADOF(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	if _, err := stage.Compose(cat, dt, 1); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	tl := Simulate(cat)

	byDOF := make(map[task.DOF][]Segment)
	for _, seg := range tl.Segments {
		byDOF[seg.DOF] = append(byDOF[seg.DOF], seg)
	}
	for dof, segs := range byDOF {
		for i := 0; i < len(segs); i++ {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				if a.Start < b.End && b.Start < a.End {
					t.Errorf("DOF %s: segments %s [%d,%d) and %s [%d,%d) overlap",
						dof, a.Name, a.Start, a.End, b.Name, b.Start, b.End)
				}
			}
		}
	}
}

func TestSyncDuplicatesShareTheirPrimarysInterval(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	if _, err := stage.Compose(cat, dt, 1); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	tl := Simulate(cat)

	primary, ok := tl.ByName("A_Couple_GE")
	if !ok {
		t.Fatal("missing A_Couple_GE segment")
	}
	dup, ok := tl.ByName("A_Couple_GE_Pr")
	if !ok {
		t.Fatal("missing A_Couple_GE_Pr segment")
	}
	if dup.Start != primary.Start || dup.End != primary.End {
		t.Fatalf("sync duplicate interval [%d,%d) != primary interval [%d,%d)",
			dup.Start, dup.End, primary.Start, primary.End)
	}
}

func TestStageCutOffsetsAreNonDecreasing(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	cuts, err := stage.Compose(cat, dt, 3)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	tl := Simulate(cat)
	offsets := StageCutOffsets(cat, tl, cuts)
	if len(offsets) != len(cuts) {
		t.Fatalf("len(offsets) = %d, want %d", len(offsets), len(cuts))
	}
	for i, off := range offsets {
		if off < 0 {
			t.Fatalf("offset %d unresolved (-1)", i)
		}
		if i > 0 && off < offsets[i-1] {
			t.Errorf("offsets not non-decreasing at %d: %d < %d", i, off, offsets[i-1])
		}
	}
	if offsets[len(offsets)-1] != tl.Total {
		t.Errorf("final stage cut offset = %d, want total %d", offsets[len(offsets)-1], tl.Total)
	}
}
