package event

// Type identifies the type of domain event
type Type string

const (
	TypeApplicantCreated  Type = "applicant.created"
	TypeTaskCompleted     Type = "task.completed"
	TypeTaskFailed        Type = "task.failed"
	TypeApplicantAccepted Type = "applicant.accepted"
	TypeApplicantRejected Type = "applicant.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeApplicantCreated,
		TypeTaskCompleted,
		TypeTaskFailed,
		TypeApplicantAccepted,
		TypeApplicantRejected:
		return true
	default:
		return false
	}
}

// All returns every defined event type
func All() []Type {
	return []Type{
		TypeApplicantCreated,
		TypeTaskCompleted,
		TypeTaskFailed,
		TypeApplicantAccepted,
		TypeApplicantRejected,
	}
}
