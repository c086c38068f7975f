// Package schedule defines the solved-schedule shape shared by the CP-SAT
// binding and the serial simulator (spec.md's data flow: both produce a
// timeline the Gantt renderer and JSON exporter consume identically).
package schedule

import "github.com/huier-git/drillplan/internal/task"

// Interval is one task's final, concrete placement in time.
type Interval struct {
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

// Schedule is a complete, solved timeline: one Interval per task, plus the
// makespan and the stage-boundary cut points spec.md §4.3/§4.6 need for
// Gantt separators and the JSON envelope's stage_cuts.
type Schedule struct {
	Intervals      []Interval
	Makespan       int
	StageCuts      []int
	SerialDuration int
}

// ByDOF groups intervals by axis, preserving relative order.
func (s *Schedule) ByDOF(d task.DOF) []Interval {
	var out []Interval
	for _, iv := range s.Intervals {
		if iv.DOF == d {
			out = append(out, iv)
		}
	}
	return out
}
