package workflow

// Trigger represents a decision that moves an applicant between states
type Trigger string

const (
	// TriggerAccept fires after a task completes and the whole pipeline is done
	TriggerAccept Trigger = "ACCEPT"
	// TriggerReject fires when a task fails its business rule
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
