// Package gantt implements the ASCII Gantt Renderer of spec.md §4.6: a
// two-row-per-DOF text rendering of a solved (or serial) schedule, with
// an occupancy row ('X'/'.') and a state row (first/last cell show the
// task's boundary states, middle cells show mid_state for spin/hold
// tasks and '#' for plain moves), stage-boundary '|' columns, and a
// zoom factor scaling the timeline to z*makespan columns.
//
// Grounded on original_source's rendering of the same timeline (a plain
// row-per-axis text dump) and, for the "render a table to a
// strings.Builder" idiom itself, on the teacher's example programs
// (examples/cumulative-demo prints its solved schedule the same way: one
// pass building a string, no template engine).
package gantt

import (
	"fmt"
	"strings"

	"github.com/huier-git/drillplan/internal/task"
)

// Occupant is one task's placement on a DOF's timeline, in whatever time
// base the caller is rendering (solved seconds or serial seconds).
type Occupant struct {
	Name                         string
	DOF                          task.DOF
	Start, End                   int
	StartState, EndState, MidState string
	OpType                       task.OpType
}

// Rig is everything Render needs: every DOF's occupant list, the overall
// makespan, and the stage-cut offsets (in the same time base as Start/End)
// to draw as vertical separators.
type Rig struct {
	Occupants map[task.DOF][]Occupant
	Makespan  int
	StageCuts []int
}

// Render draws the full rig as text. zoom must be >= 1; z < 1 is treated
// as 1. Each DOF with at least one occupant gets two rows: "<DOF> occ"
// (the X/. occupancy track) and "<DOF> state" (the boundary/mid-state
// track), followed by a short legend.
func Render(r *Rig, zoom int) string {
	if zoom < 1 {
		zoom = 1
	}
	cols := zoom * r.Makespan
	if cols < 0 {
		cols = 0
	}
	cutCols := make([]int, len(r.StageCuts))
	for i, c := range r.StageCuts {
		cutCols[i] = c * zoom
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Gantt (zoom=%d, makespan=%d)\n", zoom, r.Makespan)

	for _, d := range task.Order {
		occ := r.Occupants[d]
		if len(occ) == 0 {
			continue
		}
		occRow := make([]byte, cols)
		stateRow := make([]byte, cols)
		for i := range occRow {
			occRow[i] = '.'
			stateRow[i] = '.'
		}
		for _, o := range occ {
			s, e := o.Start*zoom, o.End*zoom
			if e <= s || s < 0 || e > cols {
				continue
			}
			for c := s; c < e; c++ {
				occRow[c] = 'X'
			}
			switch {
			case e-s == 1:
				stateRow[s] = firstByte(o.EndState)
			default:
				stateRow[s] = firstByte(o.StartState)
				stateRow[e-1] = firstByte(o.EndState)
				mid := byte('#')
				if o.OpType == task.Spin || o.OpType == task.Hold {
					mid = firstByte(o.MidState)
				}
				for c := s + 1; c < e-1; c++ {
					stateRow[c] = mid
				}
			}
		}
		fmt.Fprintf(&sb, "%-4s occ   %s\n", d, withCuts(occRow, cutCols))
		fmt.Fprintf(&sb, "%-4s state %s\n", d, withCuts(stateRow, cutCols))
	}

	sb.WriteString(legend())
	return sb.String()
}

func firstByte(s string) byte {
	if s == "" {
		return '?'
	}
	return s[0]
}

// withCuts renders row as a string with '|' inserted immediately before
// every column index named in cutCols (a cut at len(row) is appended at
// the end). The row is copied in one forward pass, so inserted bars never
// shift the column indices the cuts refer to.
func withCuts(row []byte, cutCols []int) string {
	cut := make(map[int]bool, len(cutCols))
	for _, c := range cutCols {
		cut[c] = true
	}
	var sb strings.Builder
	for i, b := range row {
		if cut[i] {
			sb.WriteByte('|')
		}
		sb.WriteByte(b)
	}
	if cut[len(row)] {
		sb.WriteByte('|')
	}
	return sb.String()
}

func legend() string {
	return "legend: X=occupied .=idle |=stage boundary #=mid-move (no distinguished mid-state)\n"
}
