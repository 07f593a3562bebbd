package workflow

import (
	"context"

	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// BuildApplicantStateMachine creates the status machine of one applicant.
// Acceptance is guarded by progress, which the caller keeps mutating, so the
// guard sees the flags as they are when the trigger fires.
func BuildApplicantStateMachine(initialState domainwf.State, progress flow.Progress) (domainwf.StateMachine, error) {
	builder := domainwf.NewBuilder()

	// IN_PROGRESS state transitions
	builder.Configure(domainwf.StateInProgress).
		PermitIf(domainwf.TriggerAccept, domainwf.StateAccepted, func(context.Context) bool {
			return flow.AllComplete(progress)
		}).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// ACCEPTED and REJECTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
