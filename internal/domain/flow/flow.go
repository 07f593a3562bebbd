// Package flow describes the fixed admissions pipeline and derives an
// applicant's position in it from their task completion flags.
package flow

// StepName identifies a step of the admissions pipeline
type StepName string

// TaskName identifies a task within a step
type TaskName string

const (
	StepPersonalDetails StepName = "Personal Details Form"
	StepIQTest          StepName = "IQ Test"
	StepInterview       StepName = "Interview"
	StepSignContract    StepName = "Sign Contract"
	StepPayment         StepName = "Payment"
	StepJoinSlack       StepName = "Join Slack"
)

const (
	TaskForm              TaskName = "form"
	TaskIQTest            TaskName = "iq_test"
	TaskScheduleInterview TaskName = "schedule_interview"
	TaskPerformInterview  TaskName = "perform_interview"
	TaskUploadID          TaskName = "upload_id"
	TaskSignContract      TaskName = "sign_contract"
	TaskPayment           TaskName = "payment"
	TaskJoinSlack         TaskName = "join_slack"
)

// Step is one stage of the pipeline with its ordered tasks
type Step struct {
	Name  StepName   `json:"step"`
	Tasks []TaskName `json:"tasks"`
}

// TaskRef addresses a single task flag. Task names are only unique within a
// step, so both parts are needed.
type TaskRef struct {
	Step StepName
	Task TaskName
}

// definition is the pipeline in completion order. It never changes at runtime.
var definition = []Step{
	{Name: StepPersonalDetails, Tasks: []TaskName{TaskForm}},
	{Name: StepIQTest, Tasks: []TaskName{TaskIQTest}},
	{Name: StepInterview, Tasks: []TaskName{TaskScheduleInterview, TaskPerformInterview}},
	{Name: StepSignContract, Tasks: []TaskName{TaskUploadID, TaskSignContract}},
	{Name: StepPayment, Tasks: []TaskName{TaskPayment}},
	{Name: StepJoinSlack, Tasks: []TaskName{TaskJoinSlack}},
}

var stepIndex = func() map[StepName]int {
	idx := make(map[StepName]int, len(definition))
	for i, s := range definition {
		idx[s.Name] = i
	}
	return idx
}()

// Steps returns a copy of the pipeline definition
func Steps() []Step {
	steps := make([]Step, len(definition))
	for i, s := range definition {
		steps[i] = Step{Name: s.Name, Tasks: append([]TaskName(nil), s.Tasks...)}
	}
	return steps
}

// TotalSteps returns the number of steps in the pipeline
func TotalSteps() int {
	return len(definition)
}

// ParseStep converts an externally supplied name into a StepName
func ParseStep(name string) (StepName, bool) {
	s := StepName(name)
	return s, s.IsValid()
}

// IsValid reports whether the step is part of the pipeline
func (s StepName) IsValid() bool {
	_, ok := stepIndex[s]
	return ok
}

func (s StepName) String() string {
	return string(s)
}

func (t TaskName) String() string {
	return string(t)
}

func (r TaskRef) String() string {
	return string(r.Step) + "/" + string(r.Task)
}
