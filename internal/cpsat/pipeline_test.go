package cpsat

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/schedule"
	"github.com/huier-git/drillplan/internal/serial"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/stage"
	"github.com/huier-git/drillplan/internal/task"
)

// pipelineHorizon comfortably covers the serial duration of every stage
// count exercised below (N=10's sum of default durations is ~2.5k seconds);
// it is not scaled per-N since the solver only needs an upper bound, not a
// tight one.
const pipelineHorizon = 6000

// TestFullPipelineInvariantsHoldAcrossPipeCounts drives the real pipeline —
// stage.Compose, cpsat.Solve, serial.Simulate — for every pipe count spec.md
// §8 names (N in {1, 2, 3, 5, 10}) and checks the five invariants that
// section requires to hold for all of them: DOF non-overlap, precedence,
// synchronization, safety-delay, and optimized makespan never exceeding the
// serial simulator's total.
func TestFullPipelineInvariantsHoldAcrossPipeCounts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 10} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			cat := task.New(pipelineHorizon)
			dt := duration.Default()

			cuts, err := stage.Compose(cat, dt, n)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}

			sched, status, err := Solve(context.Background(), cat, cuts)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if status == solver.StatusInfeasible {
				t.Fatalf("solve reported INFEASIBLE for N=%d", n)
			}

			byName := make(map[string]schedule.Interval, len(sched.Intervals))
			for _, iv := range sched.Intervals {
				byName[iv.Name] = iv
			}

			checkNoOverlap(t, sched)
			checkPrecedence(t, sched, cuts)
			checkSynchronization(t, byName)
			checkSafetyDelay(t, byName, dt)

			tl := serial.Simulate(cat)
			if sched.Makespan > tl.Total {
				t.Fatalf("optimized makespan %d exceeds serial duration %d", sched.Makespan, tl.Total)
			}
			if sched.SerialDuration != tl.Total {
				t.Fatalf("schedule.SerialDuration = %d, serial simulator total = %d, want equal", sched.SerialDuration, tl.Total)
			}
		})
	}
}

// checkNoOverlap asserts that, within every DOF, no two solved intervals'
// [Start, End) ranges intersect — spec.md §8 invariant 1.
func checkNoOverlap(t *testing.T, sched *schedule.Schedule) {
	t.Helper()
	for _, d := range task.Order {
		ivs := append([]schedule.Interval(nil), sched.ByDOF(d)...)
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
		for i := 1; i < len(ivs); i++ {
			if ivs[i].Start < ivs[i-1].End {
				t.Fatalf("DOF %s: %s [%d,%d) overlaps %s [%d,%d)",
					d, ivs[i-1].Name, ivs[i-1].Start, ivs[i-1].End, ivs[i].Name, ivs[i].Start, ivs[i].End)
			}
		}
	}
}

// checkPrecedence asserts the stage-cut list is non-decreasing in solved
// end time — stage.Compose's A -> B(1..n) -> C(n..1) -> D sequence anchors
// each stage to the previous one's end, so a correctly-solved schedule must
// place every cut at or after the one before it (spec.md §8 invariant 2,
// exercised at the stage-boundary granularity every N shares).
func checkPrecedence(t *testing.T, sched *schedule.Schedule, cuts []*solver.IntVar) {
	t.Helper()
	if len(sched.StageCuts) != len(cuts) {
		t.Fatalf("stage cuts: got %d values for %d cut variables", len(sched.StageCuts), len(cuts))
	}
	for i := 1; i < len(sched.StageCuts); i++ {
		if sched.StageCuts[i] < sched.StageCuts[i-1] {
			t.Fatalf("stage cuts not monotonic: cut %d (%d) precedes cut %d (%d)",
				i, sched.StageCuts[i], i-1, sched.StageCuts[i-1])
		}
	}
}

// checkSynchronization asserts that Stage A's Couple_GE primary and its Pr
// (and Cb) sync-duplicates — present for every N, since Stage A is built
// exactly once — share the same solved interval (spec.md §8 invariant 3).
func checkSynchronization(t *testing.T, byName map[string]schedule.Interval) {
	t.Helper()
	primary, ok := byName["A_Couple_GE"]
	if !ok {
		t.Fatalf("missing A_Couple_GE interval")
	}
	for _, dup := range []string{"A_Couple_GE_Pr", "A_Couple_GE_Cb"} {
		iv, ok := byName[dup]
		if !ok {
			t.Fatalf("missing %s interval", dup)
		}
		if iv.Start != primary.Start || iv.End != primary.End {
			t.Fatalf("%s = [%d,%d), want synchronized with A_Couple_GE = [%d,%d)",
				dup, iv.Start, iv.End, primary.Start, primary.End)
		}
	}
}

// checkSafetyDelay asserts Stage A's one safety-delay pair: Me_ToHead must
// not start earlier than 0.75 * A_FZ_AH seconds after Fz_Lift starts
// (spec.md §8 invariant 4, stage_a.go's truncate75(dt.Get("A_FZ_AH"))).
func checkSafetyDelay(t *testing.T, byName map[string]schedule.Interval, dt *duration.Table) {
	t.Helper()
	lift, ok := byName["A_Fz_Lift"]
	if !ok {
		t.Fatalf("missing A_Fz_Lift interval")
	}
	toHead, ok := byName["A_Me_ToHead"]
	if !ok {
		t.Fatalf("missing A_Me_ToHead interval")
	}
	wantDelay := (3 * dt.Get("A_FZ_AH")) / 4
	if toHead.Start < lift.Start+wantDelay {
		t.Fatalf("A_Me_ToHead starts at %d, want >= %d (A_Fz_Lift start %d + delay %d)",
			toHead.Start, lift.Start+wantDelay, lift.Start, wantDelay)
	}
}
