package task

import (
	"errors"
	"fmt"

	"github.com/huier-git/drillplan/internal/solver"
)

// ErrDuplicateTask is returned when AddTask is called with a name already
// present in the catalogue. spec.md §7 classes this as ModelError: "a
// violated precondition at task creation... fatal assertion, a
// programming bug" — stage templates construct every name, so a
// collision can only mean a stage-template bug, never bad user input.
var ErrDuplicateTask = errors.New("task: duplicate task name")

// ErrDurationMismatch is returned by AddSynchronization when the two
// tasks being synchronized were created with different durations,
// violating spec.md §3's synchronization invariant.
var ErrDurationMismatch = errors.New("task: synchronized tasks must share a duration")

// Catalogue is the Task Catalogue & Constraint Recorder of spec.md §4.2:
// it owns the solver Model tasks are allocated into, so construction
// order (add_task, then add_precedence/add_synchronization/
// add_safety_delay) and solving are two phases of one continuous build.
type Catalogue struct {
	model *solver.Model

	byName         map[string]*Task
	tasks          []*Task
	perDOF         map[DOF][]*Task
	serialDuration int
}

// New creates an empty catalogue backed by a fresh solver model with the
// given horizon (spec.md §4.2: "Allocates solver interval over [0,
// horizon]").
func New(horizon int) *Catalogue {
	return &Catalogue{
		model:  solver.NewModel(horizon),
		byName: make(map[string]*Task),
		perDOF: make(map[DOF][]*Task),
	}
}

// Model exposes the underlying solver model so the CP-SAT binding layer
// can post the per-DOF NoOverlap constraints once assembly is complete.
func (c *Catalogue) Model() *solver.Model { return c.model }

// Tasks returns every task added so far, in creation order.
func (c *Catalogue) Tasks() []*Task { return c.tasks }

// ByDOF returns the tasks occupying a given DOF, in creation order.
func (c *Catalogue) ByDOF(d DOF) []*Task { return c.perDOF[d] }

// SerialDuration is the running sum of durations of every non-sync-
// duplicate task added so far — the accumulator spec.md §4.2/§8 requires
// to equal the serial simulator's total.
func (c *Catalogue) SerialDuration() int { return c.serialDuration }

// Get looks up a task by name, or nil if absent.
func (c *Catalogue) Get(name string) *Task { return c.byName[name] }

// NameOfEnd reverse-looks-up the task whose End variable is v, or ""
// if none matches. Used by renderers/simulators that receive a stage-cut
// IntVar (spec.md §4.3's stage-cut list) and need the task name it
// belongs to, without the Catalogue having to track that association
// up front.
func (c *Catalogue) NameOfEnd(v *solver.IntVar) string {
	for _, t := range c.tasks {
		if t.End == v {
			return t.Name
		}
	}
	return ""
}

// TaskOption configures an optional AddTask field.
type TaskOption func(*Task)

// WithOpType overrides the default op_type of move.
func WithOpType(op OpType) TaskOption { return func(t *Task) { t.OpType = op } }

// WithMidState sets mid_state, used for rendering spin/hold tasks.
func WithMidState(state string) TaskOption { return func(t *Task) { t.MidState = state } }

// SyncDuplicate marks the task as a synchronized shadow of another task on
// a different DOF: it contributes to the schedule but never to the serial
// duration accumulator (spec.md §3, Glossary "Sync duplicate").
func SyncDuplicate() TaskOption { return func(t *Task) { t.IsSyncDuplicate = true } }

// AddTask allocates a new atomic task and its Start/End interval
// variables, and returns its name for chaining (spec.md §4.2's contract).
// duration must be positive; name must not already exist.
func (c *Catalogue) AddTask(name string, dof DOF, duration int, startState, endState string, opts ...TaskOption) (string, error) {
	if duration <= 0 {
		return "", fmt.Errorf("task: %s: duration must be positive, got %d", name, duration)
	}
	if _, exists := c.byName[name]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	t := &Task{
		Name:       name,
		DOF:        dof,
		Duration:   duration,
		StartState: startState,
		EndState:   endState,
		OpType:     Move,
		MidState:   endState,
	}
	for _, opt := range opts {
		opt(t)
	}

	horizon := c.model.Horizon()
	t.Start = c.model.NewIntVar(0, horizon, name+"_start")
	t.End = c.model.NewIntVar(0, horizon, name+"_end")
	c.model.AddConstraint(solver.NewOffset(t.Start, t.End, duration))

	c.byName[name] = t
	c.tasks = append(c.tasks, t)
	c.perDOF[dof] = append(c.perDOF[dof], t)
	if !t.IsSyncDuplicate {
		c.serialDuration += duration
	}
	return name, nil
}

// AddPrecedence posts end(u) <= start(v), i.e. u must finish before v
// starts. Silently no-ops if either name is missing — spec.md §4.2 calls
// this "defensive, but never expected in correct callers": stage
// templates always pass names they themselves just created.
func (c *Catalogue) AddPrecedence(u, v string) {
	tu, tv := c.byName[u], c.byName[v]
	if tu == nil || tv == nil {
		return
	}
	c.model.AddConstraint(solver.NewAtLeast(tv.Start, tu.End, 0))
}

// AddSynchronization posts start(u) = start(v) and end(u) = end(v). The
// two tasks must already share a duration (enforced at AddTask time by
// convention; checked again here defensively).
func (c *Catalogue) AddSynchronization(u, v string) error {
	tu, tv := c.byName[u], c.byName[v]
	if tu == nil || tv == nil {
		return fmt.Errorf("task: synchronization references unknown task(s) %q, %q", u, v)
	}
	if tu.Duration != tv.Duration {
		return fmt.Errorf("%w: %s (%ds) vs %s (%ds)", ErrDurationMismatch, u, tu.Duration, v, tv.Duration)
	}
	c.model.AddConstraint(solver.NewEqual(tu.Start, tv.Start))
	c.model.AddConstraint(solver.NewEqual(tu.End, tv.End))
	return nil
}

// AddStartNotBefore posts start(taskName) >= anchor, where anchor is a
// stage-boundary end-variable handed in by the previous stage's builder
// (spec.md §4.3's "inter-stage anchoring policy"). Unlike AddPrecedence,
// the anchor is a raw solver variable rather than a task name, since stage
// boundaries are threaded between builders as explicit tokens, not as
// catalogue entries.
func (c *Catalogue) AddStartNotBefore(taskName string, anchor *solver.IntVar) error {
	t := c.byName[taskName]
	if t == nil {
		return fmt.Errorf("task: AddStartNotBefore references unknown task %q", taskName)
	}
	if anchor == nil {
		return nil
	}
	c.model.AddConstraint(solver.NewAtLeast(t.Start, anchor, 0))
	return nil
}

// AddSafetyDelay posts start(dependent) >= start(trigger) + d, d >= 0.
func (c *Catalogue) AddSafetyDelay(trigger, dependent string, d int) error {
	if d < 0 {
		return fmt.Errorf("task: safety delay must be non-negative, got %d", d)
	}
	tt, td := c.byName[trigger], c.byName[dependent]
	if tt == nil || td == nil {
		return fmt.Errorf("task: safety delay references unknown task(s) %q, %q", trigger, dependent)
	}
	c.model.AddConstraint(solver.NewAtLeast(td.Start, tt.Start, d))
	return nil
}
