package flow

import (
	"bytes"
	"encoding/json"
)

// Progress holds one completion flag per task of the pipeline
type Progress map[TaskRef]bool

// NewProgress returns the flags of a freshly created applicant. Submitting
// the personal details is what creates the applicant, so that task starts done.
func NewProgress() Progress {
	p := make(Progress)
	for _, s := range definition {
		for _, t := range s.Tasks {
			p[TaskRef{Step: s.Name, Task: t}] = false
		}
	}
	p[TaskRef{Step: StepPersonalDetails, Task: TaskForm}] = true
	return p
}

// Clone returns an independent copy
func (p Progress) Clone() Progress {
	c := make(Progress, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Done reports whether a task is complete
func (p Progress) Done(step StepName, task TaskName) bool {
	return p[TaskRef{Step: step, Task: task}]
}

// Set updates a single task flag
func (p Progress) Set(step StepName, task TaskName, done bool) {
	p[TaskRef{Step: step, Task: task}] = done
}

// Position is the applicant's current step and the tasks still pending in it
type Position struct {
	Index   int
	Step    StepName
	Pending []TaskName
}

// NextTask returns the first pending task of the step
func (p Position) NextTask() TaskName {
	if len(p.Pending) == 0 {
		return ""
	}
	return p.Pending[0]
}

// CurrentStep scans the pipeline in order and returns the first step with an
// incomplete task. ok is false when every task of every step is done.
func CurrentStep(p Progress) (pos Position, ok bool) {
	for i, s := range definition {
		var pending []TaskName
		for _, t := range s.Tasks {
			if !p.Done(s.Name, t) {
				pending = append(pending, t)
			}
		}
		if len(pending) > 0 {
			return Position{Index: i, Step: s.Name, Pending: pending}, true
		}
	}
	return Position{Index: -1}, false
}

// AllComplete reports whether the whole pipeline is done
func AllComplete(p Progress) bool {
	_, ok := CurrentStep(p)
	return !ok
}

// TaskFlag is one task and its completion flag
type TaskFlag struct {
	Task TaskName
	Done bool
}

// TaskFlags renders as a JSON object keyed by task name, in pipeline order
type TaskFlags []TaskFlag

// MarshalJSON keeps the pipeline order that a Go map would lose
func (f TaskFlags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, flag := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(flag.Task))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if flag.Done {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the flag of a task in the set
func (f TaskFlags) Lookup(task TaskName) (done bool, found bool) {
	for _, flag := range f {
		if flag.Task == task {
			return flag.Done, true
		}
	}
	return false, false
}

// StepProgress is the full flag set of one step
type StepProgress struct {
	Step  StepName  `json:"step"`
	Tasks TaskFlags `json:"tasks"`
}

// Snapshot is the caller-facing view of the whole pipeline for one applicant
type Snapshot struct {
	CurrentStepIndex int            `json:"current_step_index"`
	TotalSteps       int            `json:"total_steps"`
	Flow             []StepProgress `json:"flow"`
}

// TakeSnapshot builds the full flag view. CurrentStepIndex is -1 once every
// step is complete.
func TakeSnapshot(p Progress) Snapshot {
	pos, _ := CurrentStep(p)
	snap := Snapshot{
		CurrentStepIndex: pos.Index,
		TotalSteps:       len(definition),
		Flow:             make([]StepProgress, 0, len(definition)),
	}
	for _, s := range definition {
		flags := make(TaskFlags, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			flags = append(flags, TaskFlag{Task: t, Done: p.Done(s.Name, t)})
		}
		snap.Flow = append(snap.Flow, StepProgress{Step: s.Name, Tasks: flags})
	}
	return snap
}
