// Package export implements the JSON Exporter of spec.md §4.7: it
// flattens a solved schedule.Schedule into the envelope external
// tooling consumes, with tasks sorted by (start, dof) rather than
// catalogue creation order.
//
// Grounded on original_source's JSON emission of the same envelope
// shape, reimplemented with encoding/json struct tags rather than a
// hand-rolled dict-to-JSON walk.
package export

import (
	"encoding/json"
	"sort"

	"github.com/huier-git/drillplan/internal/schedule"
	"github.com/huier-git/drillplan/internal/task"
)

// TaskRecord is one task's exported row.
type TaskRecord struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	DOF        task.DOF  `json:"dof"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Duration   int       `json:"duration"`
	StartState string    `json:"start_state"`
	EndState   string    `json:"end_state"`
	OpType     string    `json:"op_type"`
}

// Envelope is the top-level JSON document.
type Envelope struct {
	Mode          string       `json:"mode"`
	NPipes        int          `json:"n_pipes"`
	SerialTime    int          `json:"serial_time"`
	OptimizedTime int          `json:"optimized_time"`
	SavedTime     int          `json:"saved_time"`
	StageCuts     []int        `json:"stage_cuts"`
	Tasks         []TaskRecord `json:"tasks"`
}

// Build assembles the Envelope for a solved schedule of nPipes pipes.
// mode is the caller's label for how the schedule was produced (e.g.
// "optimized" or "serial" — spec.md §4.7 leaves the exact string to the
// caller, since it is purely informational).
func Build(mode string, nPipes int, sched *schedule.Schedule) Envelope {
	env := Envelope{
		Mode:          mode,
		NPipes:        nPipes,
		SerialTime:    sched.SerialDuration,
		OptimizedTime: sched.Makespan,
		SavedTime:     sched.SerialDuration - sched.Makespan,
		StageCuts:     append([]int(nil), sched.StageCuts...),
	}

	records := make([]TaskRecord, 0, len(sched.Intervals))
	for i, iv := range sched.Intervals {
		records = append(records, TaskRecord{
			ID:         i,
			Name:       iv.Name,
			DOF:        iv.DOF,
			Start:      iv.Start,
			End:        iv.End,
			Duration:   iv.Duration,
			StartState: iv.StartState,
			EndState:   iv.EndState,
			OpType:     iv.OpType.String(),
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Start != records[j].Start {
			return records[i].Start < records[j].Start
		}
		return records[i].DOF < records[j].DOF
	})
	// Reassign IDs after sorting so id reflects rendered order, not
	// catalogue creation order.
	for i := range records {
		records[i].ID = i
	}
	env.Tasks = records
	return env
}

// Marshal renders env as indented JSON.
func Marshal(env Envelope) ([]byte, error) {
	return json.MarshalIndent(env, "", "  ")
}
