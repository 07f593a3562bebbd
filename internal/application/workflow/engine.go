// Package workflow completes pipeline tasks for applicants: it enforces step
// order, runs the validator of the current task and drives the applicant's
// status machine.
package workflow

import (
	"context"

	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// StepCompletedMessage is returned for every accepted submission, including
// one whose outcome rejects the applicant
const StepCompletedMessage = "Step completed."

// CompletionEngine applies step submissions to applicants
type CompletionEngine interface {
	// CompleteStep completes the first pending task of the named step. The
	// step must be the applicant's current step.
	CompleteStep(ctx context.Context, req CompleteRequest) (*Result, error)
}

// CompleteRequest is one step submission
type CompleteRequest struct {
	ApplicantID int64
	StepName    string
	Payload     Payload
}

// Result describes what a successful submission changed
type Result struct {
	ApplicantID    int64
	Step           flow.StepName
	Task           flow.TaskName
	Passed         bool
	Detail         string
	PreviousStatus domainwf.State
	NewStatus      domainwf.State
}

// Message returns the caller-facing confirmation
func (r *Result) Message() string {
	return StepCompletedMessage
}

// StatusChanged reports whether the submission moved the applicant to a
// terminal status
func (r *Result) StatusChanged() bool {
	return r.PreviousStatus != r.NewStatus
}
