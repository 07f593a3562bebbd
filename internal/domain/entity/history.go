package entity

import "time"

// Outcome of a recorded transition
const (
	OutcomeCreated   = "created"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
)

// TransitionRecord is one entry of an applicant's audit trail
type TransitionRecord struct {
	ID             int64     `json:"id"`
	ApplicantID    int64     `json:"applicant_id"`
	Step           string    `json:"step,omitempty"`
	Task           string    `json:"task,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Outcome        string    `json:"outcome"`
	Detail         string    `json:"detail,omitempty"`
	RunID          string    `json:"run_id"`
	RequestID      string    `json:"request_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
