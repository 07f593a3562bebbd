package workflow

// State is an applicant's admission status
type State string

const (
	StateInProgress State = "in_progress"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

var validStates = map[State]bool{
	StateInProgress: true,
	StateAccepted:   true,
	StateRejected:   true,
}

// Once an applicant is accepted or rejected the decision is final
var terminalStates = map[State]bool{
	StateAccepted: true,
	StateRejected: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known admission status
func (s State) IsValid() bool {
	return validStates[s]
}
