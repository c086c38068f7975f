// Package serial implements the Serial Simulator of spec.md §4.5: a
// second, independent walk over the same task.Catalogue that ignores
// the solver entirely and schedules every task by pure concatenation —
// "run everything back to back, never overlap anything" — so its total
// can stand as an oracle that internal/cpsat's optimized makespan never
// exceeds (spec.md §8's "optimization bound" testable property).
//
// Grounded on original_source's serial.py, which builds exactly this
// reference timeline independently of the optimizer for the same
// cross-check purpose; reimplemented here as a plain cursor walk over
// internal/task's already-built catalogue rather than a second pass of
// model construction.
package serial

import (
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// Segment is one task's serial-timeline placement.
type Segment struct {
	Name       string
	DOF        task.DOF
	Start      int
	End        int
	Duration   int
	StartState string
	EndState   string
	MidState   string
	OpType     task.OpType
}

// Timeline is the full serial schedule: every task's Segment, in
// catalogue creation order, plus the total elapsed time.
type Timeline struct {
	Segments []Segment
	Total    int
}

// ByName indexes Timeline.Segments for stage-cut lookups.
func (tl *Timeline) ByName(name string) (Segment, bool) {
	for _, s := range tl.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Simulate walks cat.Tasks() in creation order and assigns each
// non-sync-duplicate task the interval [cursor, cursor+duration), then
// advances cursor by duration; a sync-duplicate task (spec.md §3's
// Pr/Cb shadow tasks) is stamped to the same interval as the most
// recently placed non-duplicate task instead of advancing the cursor,
// matching the rule that sync duplicates never contribute to serial
// duration (task.Catalogue.SerialDuration excludes them the same way).
func Simulate(cat *task.Catalogue) *Timeline {
	tl := &Timeline{}
	cursor := 0
	var lastStart, lastEnd int

	for _, t := range cat.Tasks() {
		var seg Segment
		if t.IsSyncDuplicate {
			seg = Segment{
				Name: t.Name, DOF: t.DOF, Start: lastStart, End: lastEnd,
				Duration: t.Duration, StartState: t.StartState, EndState: t.EndState,
				MidState: t.MidState, OpType: t.OpType,
			}
		} else {
			start := cursor
			end := cursor + t.Duration
			seg = Segment{
				Name: t.Name, DOF: t.DOF, Start: start, End: end,
				Duration: t.Duration, StartState: t.StartState, EndState: t.EndState,
				MidState: t.MidState, OpType: t.OpType,
			}
			cursor = end
			lastStart, lastEnd = start, end
		}
		tl.Segments = append(tl.Segments, seg)
	}
	tl.Total = cursor
	return tl
}

// StageCutOffsets maps each stage-cut end-variable (as produced by
// stage.Compose and consumed by internal/cpsat for the optimized
// schedule) to its serial-timeline End offset, by resolving the
// variable back to a task name through cat and looking that name up in
// tl. A cut with no matching segment (should not happen for a cut
// produced by the same cat) is reported as -1.
func StageCutOffsets(cat *task.Catalogue, tl *Timeline, stageCuts []*solver.IntVar) []int {
	offsets := make([]int, len(stageCuts))
	for i, cut := range stageCuts {
		name := cat.NameOfEnd(cut)
		if seg, ok := tl.ByName(name); ok {
			offsets[i] = seg.End
		} else {
			offsets[i] = -1
		}
	}
	return offsets
}
